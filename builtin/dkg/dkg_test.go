// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dkg

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/randomness"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/validator"
	"github.com/scalarorg/gravity-genesis-contract-sub001/lvldb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

type testClock uint64

func (c *testClock) NowMicroseconds() (uint64, error) { return uint64(*c), nil }

var caller = thor.ReconfigurationWithDKGAddress

func newDKG(t *testing.T) (*DKG, *testClock) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	clock := testClock(1_000)
	return New(thor.DKGAddress, state.New(db), &clock), &clock
}

func metadata(epoch uint64) *Metadata {
	info := validator.ConsensusInfo{
		Address:            thor.BytesToAddress([]byte("v0")),
		ConsensusPublicKey: []byte("key-0"),
		VotingPower:        big.NewInt(100),
	}
	return &Metadata{
		DealerEpoch:      epoch,
		RandomnessConfig: randomness.DefaultConfig(),
		DealerValidators: []validator.ConsensusInfo{info},
		TargetValidators: []validator.ConsensusInfo{info},
	}
}

func TestSessionLifecycle(t *testing.T) {
	d, clock := newDKG(t)

	_, ok, err := d.IncompleteSession()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, d.Finish(caller, []byte("t")), ErrNoSessionInProgress)

	assert.ErrorIs(t, d.Start(thor.SystemCallerAddress, metadata(5)), acl.ErrOnlyReconfiguration)
	require.NoError(t, d.Start(caller, metadata(5)))
	assert.ErrorIs(t, d.Start(caller, metadata(5)), ErrSessionInProgress)

	session, ok, err := d.IncompleteSession()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(5), session.Metadata.DealerEpoch)
	assert.Equal(t, uint64(1_000), session.StartTime)
	assert.Equal(t, big.NewInt(100), session.Metadata.TargetValidators[0].VotingPower)
	assert.Equal(t, randomness.VariantV2, session.Metadata.RandomnessConfig.Variant)

	*clock = 2_000
	require.NoError(t, d.Finish(caller, []byte("transcript")))

	inProgress, err := d.InProgress()
	require.NoError(t, err)
	assert.False(t, inProgress)

	done, ok, err := d.LastCompletedSession()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("transcript"), done.Transcript)
	assert.Equal(t, uint64(1_000), done.StartTime)
}

func TestTryClearIncompleteSession(t *testing.T) {
	d, _ := newDKG(t)

	cleared, err := d.TryClearIncompleteSession(caller)
	require.NoError(t, err)
	assert.False(t, cleared)

	require.NoError(t, d.Start(caller, metadata(5)))
	cleared, err = d.TryClearIncompleteSession(caller)
	require.NoError(t, err)
	assert.True(t, cleared)

	_, ok, err := d.LastCompletedSession()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Start(caller, metadata(6)))
	session, _, err := d.IncompleteSession()
	require.NoError(t, err)
	assert.Equal(t, uint64(6), session.Metadata.DealerEpoch)
}
