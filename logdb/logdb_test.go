// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalarorg/gravity-genesis-contract-sub001/logdb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var (
	registry = thor.ValidatorManagerAddress
	dkg      = thor.DKGAddress
)

func newEvent(addr thor.Address, name string, i int) *state.Event {
	return &state.Event{
		Address: addr,
		Name:    name,
		Fields: map[string]any{
			"validator": thor.BytesToAddress([]byte(fmt.Sprintf("v%d", i))),
			"amount":    new(big.Int).Lsh(big.NewInt(1), 80),
			"epoch":     uint64(i),
		},
	}
}

// fill writes blocks 0..9; even blocks carry a registration and a dkg event, odd ones nothing.
func fill(t *testing.T, db *logdb.LogDB) {
	for n := uint64(0); n < 10; n++ {
		var events []*state.Event
		if n%2 == 0 {
			events = append(events,
				newEvent(registry, "ValidatorRegistered", int(n)),
				newEvent(dkg, "DKGStartEvent", int(n)),
			)
		}
		require.NoError(t, db.Write(n, 1_000+n, events))
	}
}

func TestWriteAndBlock(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	_, ok, err := db.Newest()
	require.NoError(t, err)
	assert.False(t, ok)

	fill(t, db)
	newest, ok, err := db.Newest()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(9), newest)

	ctx := context.Background()
	b, err := db.Block(ctx, 4)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, uint64(1_004), b.Timestamp)
	require.Len(t, b.Events, 2)
	assert.Equal(t, "ValidatorRegistered", b.Events[0].Name)
	assert.Equal(t, dkg, b.Events[1].Address)

	// the stored block renders the same json as the committed one
	want, err := json.Marshal(newEvent(registry, "ValidatorRegistered", 4))
	require.NoError(t, err)
	got, err := json.Marshal(b.Events[0])
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))

	empty, err := db.Block(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, empty)
	assert.Empty(t, empty.Events)

	missing, err := db.Block(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)

	// rewriting a block replaces its events
	require.NoError(t, db.Write(4, 1_004, nil))
	b, err = db.Block(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, b.Events)
}

func TestFilterEvents(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	fill(t, db)

	ctx := context.Background()
	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	tests := []struct {
		name   string
		filter *logdb.EventFilter
		want   []uint64 // block numbers
	}{
		{
			name:   "by name",
			filter: &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Name: "DKGStartEvent"}}},
			want:   []uint64{0, 2, 4, 6, 8},
		},
		{
			name: "by address and range",
			filter: &logdb.EventFilter{
				CriteriaSet: []*logdb.EventCriteria{{Address: &registry}},
				Range:       &logdb.Range{From: 3, To: 6},
			},
			want: []uint64{4, 6},
		},
		{
			name:   "open range",
			filter: &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{{Name: "ValidatorRegistered"}}, Range: &logdb.Range{From: 7}},
			want:   []uint64{8},
		},
		{
			name: "criteria are or-ed",
			filter: &logdb.EventFilter{
				CriteriaSet: []*logdb.EventCriteria{
					{Address: &registry, Name: "DKGStartEvent"},
					{Address: &dkg, Name: "DKGStartEvent"},
				},
				Range: &logdb.Range{From: 0, To: 2},
			},
			want: []uint64{0, 2},
		},
		{
			name: "desc with paging",
			filter: &logdb.EventFilter{
				CriteriaSet: []*logdb.EventCriteria{{Name: "ValidatorRegistered"}},
				Order:       logdb.DESC,
				Options:     &logdb.Options{Offset: 1, Limit: 2},
			},
			want: []uint64{6, 4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := db.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			got := make([]uint64, 0, len(events))
			for _, ev := range events {
				got = append(got, ev.BlockNumber)
				assert.Equal(t, 1_000+ev.BlockNumber, ev.BlockTime)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncateAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")
	db, err := logdb.New(path)
	require.NoError(t, err)
	fill(t, db)

	require.NoError(t, db.Truncate(6))
	newest, _, err := db.Newest()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), newest)
	require.NoError(t, db.Close())

	db, err = logdb.New(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())

	events, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, events, 6)
}
