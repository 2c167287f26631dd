// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// Event is a notification emitted by a built-in contract.
type Event struct {
	Address thor.Address   `json:"address"`
	Name    string         `json:"name"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// AddEvent appends an event to the journaled event log.
// Events added after a checkpoint are dropped by RevertTo.
func (s *State) AddEvent(ev *Event) {
	n := s.eventCount()
	s.sm.Put(eventKey(n), ev)
	s.sm.Put(eventCountKey{}, n+1)
}

// Events returns events emitted since the last commit.
func (s *State) Events() []*Event {
	n := s.eventCount()
	events := make([]*Event, 0, n)
	for i := range n {
		v, _, _ := s.sm.Get(eventKey(i))
		events = append(events, v.(*Event))
	}
	return events
}

func (s *State) eventCount() int {
	v, _, _ := s.sm.Get(eventCountKey{})
	return v.(int)
}
