// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co holds small goroutine coordination helpers.
package co

import (
	"sync"
)

// Waiter yields the channel to wait on for the next broadcast.
type Waiter interface {
	C() <-chan struct{}
}

// Signal wakes every goroutine waiting on it. Unlike sync.Cond it is channel based, so waiting
// composes with select.
type Signal struct {
	mu sync.Mutex
	ch chan struct{}
}

func (s *Signal) current() chan struct{} {
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	return s.ch
}

// Broadcast wakes all goroutines waiting on s.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	close(s.current())
	s.ch = make(chan struct{})
	s.mu.Unlock()
}

// NewWaiter returns a waiter armed at the current generation. Each call to C returns the channel
// of the generation the waiter last observed and re-arms it at the latest one, so no broadcast
// between two calls is missed.
func (s *Signal) NewWaiter() Waiter {
	s.mu.Lock()
	ref := s.current()
	s.mu.Unlock()

	return waiterFunc(func() <-chan struct{} {
		ch := ref
		s.mu.Lock()
		ref = s.current()
		s.mu.Unlock()
		return ch
	})
}

type waiterFunc func() <-chan struct{}

func (w waiterFunc) C() <-chan struct{} { return w() }
