// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math"

	"github.com/scalarorg/gravity-genesis-contract-sub001/logdb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// Range selects blocks by number. A missing bound is open.
type Range struct {
	From *uint64 `json:"from"`
	To   *uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventCriteria struct {
	Address *thor.Address `json:"address"`
	Name    string        `json:"name"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

type LogMeta struct {
	BlockNumber    uint64 `json:"blockNumber"`
	BlockTimestamp uint64 `json:"blockTimestamp"` // µs
	EventIndex     uint32 `json:"eventIndex"`
}

type FilteredEvent struct {
	Address thor.Address   `json:"address"`
	Name    string         `json:"name"`
	Fields  map[string]any `json:"fields"`
	Meta    LogMeta        `json:"meta"`
}

func convertRange(r *Range) *logdb.Range {
	if r == nil {
		return nil
	}
	out := &logdb.Range{To: math.MaxUint64}
	if r.From != nil {
		out.From = *r.From
	}
	if r.To != nil {
		out.To = *r.To
	}
	return out
}

func convertEventFilter(f *EventFilter) *logdb.EventFilter {
	out := &logdb.EventFilter{
		Range: convertRange(f.Range),
		Order: f.Order,
	}
	if f.Options != nil {
		out.Options = &logdb.Options{Offset: f.Options.Offset, Limit: f.Options.Limit}
	}
	for _, c := range f.CriteriaSet {
		out.CriteriaSet = append(out.CriteriaSet, &logdb.EventCriteria{Address: c.Address, Name: c.Name})
	}
	return out
}

func convertEvent(e *logdb.Event) *FilteredEvent {
	return &FilteredEvent{
		Address: e.Address,
		Name:    e.Name,
		Fields:  e.Fields,
		Meta: LogMeta{
			BlockNumber:    e.BlockNumber,
			BlockTimestamp: e.BlockTime,
			EventIndex:     e.Index,
		},
	}
}
