// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// Event is a built-in event as stored in the index.
type Event struct {
	BlockNumber uint64
	BlockTime   uint64 // µs
	Index       uint32
	Address     thor.Address
	Name        string
	Fields      map[string]any
}

// Block is the events of one committed block.
type Block struct {
	Number    uint64
	Timestamp uint64 // µs
	Events    []*state.Event
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range selects blocks From..To inclusive. To is ignored when below From.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events by emitter and name. Zero fields match anything.
type EventCriteria struct {
	Address *thor.Address
	Name    string
}

// EventFilter filter. Criteria are OR-ed.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
