// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package timestamp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/lvldb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

func newTimestamp(t *testing.T) *Timestamp {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(thor.TimestampAddress, state.New(db))
}

func TestUpdate(t *testing.T) {
	ts := newTimestamp(t)
	proposer := thor.BytesToAddress([]byte("proposer"))
	sys := thor.SystemCallerAddress

	assert.NoError(t, ts.Initialize(5*MicrosPerSecond))

	// advance
	assert.NoError(t, ts.Update(sys, proposer, 6*MicrosPerSecond))
	now, err := ts.NowMicroseconds()
	assert.NoError(t, err)
	assert.Equal(t, uint64(6*MicrosPerSecond), now)
	secs, err := ts.NowSeconds()
	assert.NoError(t, err)
	assert.Equal(t, uint64(6), secs)

	// backward and equal are rejected
	assert.ErrorIs(t, ts.Update(sys, proposer, 5*MicrosPerSecond), ErrInvalidTimestamp)
	assert.ErrorIs(t, ts.Update(sys, proposer, 6*MicrosPerSecond), ErrInvalidTimestamp)

	// nil block keeps time
	assert.NoError(t, ts.Update(sys, thor.Address{}, 6*MicrosPerSecond))
	assert.ErrorIs(t, ts.Update(sys, thor.Address{}, 7*MicrosPerSecond), ErrInvalidTimestamp)

	// wrong caller
	assert.ErrorIs(t, ts.Update(proposer, proposer, 8*MicrosPerSecond), acl.ErrOnlySystemCaller)
}
