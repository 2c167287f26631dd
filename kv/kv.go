// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv is the key-value surface the state commits blocks into.
package kv

type Getter interface {
	// Get fails when the key is absent; IsNotFound tells that error apart.
	Get(key []byte) ([]byte, error)
	IsNotFound(error) bool
}

type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Batch buffers writes until Write applies them atomically.
type Batch interface {
	Putter
	Write() error
}

type Store interface {
	Getter
	Putter
	NewBatch() Batch
}
