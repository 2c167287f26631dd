// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package health tracks whether the local block driver is still making progress.
package health

import (
	"sync"
	"time"
)

type BlockIngestion struct {
	Number    *uint64    `json:"number"`
	Timestamp *time.Time `json:"timestamp"`
}

type Status struct {
	Healthy        bool            `json:"healthy"`
	BlockIngestion *BlockIngestion `json:"blockIngestion"`
	Epoch          uint64          `json:"epoch"`
	Bootstrapped   bool            `json:"bootstrapped"`
}

type Health struct {
	lock         sync.RWMutex
	newBestBlock time.Time
	bestBlock    *uint64
	epoch        uint64
	bootstrapped bool
	timeBetween  time.Duration
}

// New returns a Health that reports unhealthy once no block has been produced for
// timeBetweenBlocks.
func New(timeBetweenBlocks time.Duration) *Health {
	return &Health{timeBetween: timeBetweenBlocks}
}

func (h *Health) NewBestBlock(number, epoch uint64) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.newBestBlock = time.Now()
	h.bestBlock = &number
	h.epoch = epoch
}

// Bootstrapped marks genesis as applied.
func (h *Health) Bootstrapped() {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.bootstrapped = true
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	ingestion := &BlockIngestion{Number: h.bestBlock}
	if h.bestBlock != nil {
		ts := h.newBestBlock
		ingestion.Timestamp = &ts
	}

	healthy := h.bootstrapped &&
		h.bestBlock != nil &&
		time.Since(h.newBestBlock) <= h.timeBetween

	return &Status{
		Healthy:        healthy,
		BlockIngestion: ingestion,
		Epoch:          h.epoch,
		Bootstrapped:   h.bootstrapped,
	}
}
