// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/scalarorg/gravity-genesis-contract-sub001/co"
	"github.com/scalarorg/gravity-genesis-contract-sub001/logdb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
)

// BlockEvents is the batch of events committed by one block.
type BlockEvents struct {
	Block     uint64         `json:"block"`
	Timestamp uint64         `json:"timestamp"` // µs
	Events    []*state.Event `json:"events"`
}

// History serves blocks that fell out of the backlog.
type History interface {
	Block(ctx context.Context, number uint64) (*logdb.Block, error)
}

// Feed keeps a bounded backlog of committed blocks and wakes subscribers on every publish.
type Feed struct {
	mu      sync.RWMutex
	cache   *lru.Cache // block number -> *BlockEvents
	next    uint64     // number of the next block to publish
	signal  co.Signal
	history History
}

// NewFeed creates a feed retaining the last backlog blocks.
func NewFeed(backlog int) *Feed {
	if backlog <= 0 {
		backlog = 1
	}
	cache, err := lru.New(backlog)
	if err != nil {
		// lru.New only fails on a non positive size
		panic(fmt.Errorf("failed to create feed backlog: %v", err))
	}
	return &Feed{cache: cache}
}

// Publish appends the events of block. Blocks must be published in order.
func (f *Feed) Publish(block, timestamp uint64, events []*state.Event) error {
	f.mu.Lock()
	if block != f.next && f.next != 0 {
		f.mu.Unlock()
		return fmt.Errorf("feed expects block %d, got %d", f.next, block)
	}
	f.cache.Add(block, &BlockEvents{Block: block, Timestamp: timestamp, Events: events})
	f.next = block + 1
	f.mu.Unlock()

	f.signal.Broadcast()
	return nil
}

// Next returns the number of the next block to be published.
func (f *Feed) Next() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.next
}

// SetHistory makes evicted blocks readable from h.
func (f *Feed) SetHistory(h History) {
	f.mu.Lock()
	f.history = h
	f.mu.Unlock()
}

// Get returns the events of block. ok is false when the block is not published yet;
// errEvicted is returned when it fell out of the backlog and no history has it.
func (f *Feed) Get(block uint64) (*BlockEvents, bool, error) {
	f.mu.RLock()
	next, history := f.next, f.history
	v, ok := f.cache.Get(block)
	f.mu.RUnlock()

	if block >= next {
		return nil, false, nil
	}
	if ok {
		return v.(*BlockEvents), true, nil
	}
	if history == nil {
		return nil, false, errEvicted
	}
	b, err := history.Block(context.Background(), block)
	if err != nil {
		return nil, false, err
	}
	if b == nil {
		return nil, false, errEvicted
	}
	metricHistoryReads().Add(1)
	return &BlockEvents{Block: b.Number, Timestamp: b.Timestamp, Events: b.Events}, true, nil
}

func (f *Feed) waiter() co.Waiter {
	return f.signal.NewWaiter()
}
