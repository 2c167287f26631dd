// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reconfig

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/dkg"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/epoch"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/params"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/randomness"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/timestamp"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/validator"
	"github.com/scalarorg/gravity-genesis-contract-sub001/lvldb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

type fakeEpoch struct {
	current     uint64
	ready       bool
	transitions int
}

func (f *fakeEpoch) Current() (uint64, error)     { return f.current, nil }
func (f *fakeEpoch) CanTransition() (bool, error) { return f.ready, nil }

func (f *fakeEpoch) Transition(caller thor.Address) error {
	if err := acl.Require(caller, acl.Reconfiguration); err != nil {
		return err
	}
	if !f.ready {
		return epoch.ErrEpochTransitionNotReady
	}
	f.current++
	f.transitions++
	f.ready = false
	return nil
}

type callback func() error

func (c callback) OnNewEpoch(thor.Address, uint64) error { return c() }

var (
	system   = thor.SystemCallerAddress
	proposer = thor.BytesToAddress([]byte("genesis-0"))
)

type testEnv struct {
	state      *state.State
	clock      *timestamp.Timestamp
	randomness *randomness.RandomnessConfig
	dkg        *dkg.DKG
	validators *validator.Registry
	epoch      *fakeEpoch
	reconfig   *Reconfig
	now        uint64
}

func newTestEnv(t *testing.T, pending ...PendingConfig) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db)

	e := &testEnv{state: st, epoch: &fakeEpoch{}, now: 1_000_000}
	e.clock = timestamp.New(thor.TimestampAddress, st)
	require.NoError(t, e.clock.Initialize(e.now))

	p := params.New(thor.StakeConfigAddress, st)
	require.NoError(t, p.Initialize(params.DefaultConfig()))
	e.dkg = dkg.New(thor.DKGAddress, st, e.clock)
	e.validators = validator.New(thor.ValidatorManagerAddress, st, p, e.clock, nil, e.dkg)

	gp := &validator.GenesisParams{}
	for i := 0; i < 3; i++ {
		addr := thor.BytesToAddress([]byte(fmt.Sprintf("genesis-%d", i)))
		gp.ValidatorAddresses = append(gp.ValidatorAddresses, addr)
		gp.ConsensusPublicKeys = append(gp.ConsensusPublicKeys, []byte(fmt.Sprintf("key-%d", i)))
		gp.VotingPowers = append(gp.VotingPowers, big.NewInt(1000))
		gp.ValidatorNetworkAddresses = append(gp.ValidatorNetworkAddresses, []byte("v"))
		gp.FullnodeNetworkAddresses = append(gp.FullnodeNetworkAddresses, []byte("f"))
		gp.ConsensusAddresses = append(gp.ConsensusAddresses, thor.BytesToBytes32(addr.Bytes()))
	}
	require.NoError(t, e.validators.Initialize(thor.GenesisAddress, gp))

	e.randomness = randomness.New(thor.RandomnessConfigAddress, st)
	require.NoError(t, e.randomness.Initialize(thor.GenesisAddress, randomness.DefaultConfig()))

	e.reconfig = New(thor.ReconfigurationWithDKGAddress, st, Deps{
		Clock:      e.clock,
		Epoch:      e.epoch,
		DKG:        e.dkg,
		Randomness: e.randomness,
		Validators: e.validators,
		Pending:    append([]PendingConfig{e.randomness}, pending...),
	})
	return e
}

func (e *testEnv) block(t *testing.T) {
	e.now += 1_000
	require.NoError(t, e.reconfig.BlockPrologue(system, proposer, nil, e.now))
}

func (e *testEnv) session(t *testing.T) *dkg.Session {
	s, ok, err := e.dkg.IncompleteSession()
	require.NoError(t, err)
	if !ok {
		return nil
	}
	return s
}

func TestBlockPrologue(t *testing.T) {
	e := newTestEnv(t)

	assert.ErrorIs(t, e.reconfig.BlockPrologue(proposer, proposer, nil, e.now+1), acl.ErrOnlySystemCaller)
	assert.ErrorIs(t, e.reconfig.BlockPrologue(system, proposer, nil, e.now), timestamp.ErrInvalidTimestamp)

	e.block(t)
	now, err := e.clock.NowMicroseconds()
	require.NoError(t, err)
	assert.Equal(t, e.now, now)
	assert.Nil(t, e.session(t))

	e.epoch.ready = true
	e.block(t)
	s := e.session(t)
	require.NotNil(t, s)
	assert.Equal(t, uint64(0), s.Metadata.DealerEpoch)
	assert.Equal(t, e.now, s.StartTime)
	assert.Len(t, s.Metadata.DealerValidators, 3)
	assert.Len(t, s.Metadata.TargetValidators, 3)
	assert.Equal(t, randomness.VariantV2, s.Metadata.RandomnessConfig.Variant)

	// later blocks of the same epoch leave the session alone
	started := s.StartTime
	e.block(t)
	assert.Equal(t, started, e.session(t).StartTime)
	assert.Equal(t, 0, e.epoch.transitions)
}

// Scenario C: a second start for the same epoch is a no-op, a start for a later epoch replaces
// the stale session.
func TestTryStartStaleSession(t *testing.T) {
	e := newTestEnv(t)
	e.epoch.current = 5

	assert.ErrorIs(t, e.reconfig.TryStart(system), epoch.ErrEpochTransitionNotReady)
	e.epoch.ready = true
	assert.ErrorIs(t, e.reconfig.TryStart(proposer), acl.ErrOnlySystemCaller)
	require.NoError(t, e.reconfig.TryStart(system))
	first := e.session(t)
	require.NotNil(t, first)
	assert.Equal(t, uint64(5), first.Metadata.DealerEpoch)

	e.now += 1_000
	require.NoError(t, e.clock.Update(system, proposer, e.now))
	require.NoError(t, e.reconfig.TryStart(system))
	assert.Equal(t, first, e.session(t))

	e.epoch.current = 6
	require.NoError(t, e.reconfig.TryStart(system))
	second := e.session(t)
	require.NotNil(t, second)
	assert.Equal(t, uint64(6), second.Metadata.DealerEpoch)
	assert.Equal(t, e.now, second.StartTime)

	_, ok, err := e.dkg.LastCompletedSession()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFinishWithResult(t *testing.T) {
	e := newTestEnv(t)

	assert.ErrorIs(t, e.reconfig.FinishWithResult(system, []byte("t")), ErrNoSessionInProgress)

	e.epoch.ready = true
	e.block(t)
	require.NoError(t, e.randomness.SetForNextEpoch(thor.GovHubAddress, randomness.NewV1(randomness.Fraction(1, 3), randomness.Fraction(2, 3))))

	assert.ErrorIs(t, e.reconfig.FinishWithResult(proposer, []byte("t")), acl.ErrOnlySystemCaller)
	require.NoError(t, e.reconfig.FinishWithResult(system, []byte("transcript")))

	assert.Equal(t, 1, e.epoch.transitions)
	assert.Nil(t, e.session(t))
	done, ok, err := e.dkg.LastCompletedSession()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("transcript"), done.Transcript)

	current, err := e.randomness.Current()
	require.NoError(t, err)
	assert.Equal(t, randomness.VariantV1, current.Variant)

	assert.ErrorIs(t, e.reconfig.FinishWithResult(system, []byte("again")), ErrNoSessionInProgress)
}

func TestFinishWithoutTranscript(t *testing.T) {
	e := newTestEnv(t)
	assert.ErrorIs(t, e.reconfig.Finish(system), ErrNoSessionInProgress)

	e.epoch.ready = true
	e.block(t)
	assert.ErrorIs(t, e.reconfig.Finish(proposer), acl.ErrOnlyGovernance)
	require.NoError(t, e.reconfig.Finish(thor.GovHubAddress))

	assert.Equal(t, 1, e.epoch.transitions)
	assert.Nil(t, e.session(t))
	_, ok, err := e.dkg.LastCompletedSession()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRandomnessOff(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.randomness.SetForNextEpoch(thor.GovHubAddress, randomness.Off()))
	e.epoch.ready = true
	e.block(t)
	require.NoError(t, e.reconfig.FinishWithResult(system, nil))
	assert.Equal(t, 1, e.epoch.transitions)

	// with randomness off the next eligible block reconfigures directly
	e.epoch.ready = true
	e.block(t)
	assert.Equal(t, 2, e.epoch.transitions)
	assert.Nil(t, e.session(t))
}

func TestReentrancy(t *testing.T) {
	var e *testEnv
	e = newTestEnv(t, callback(func() error {
		return e.reconfig.TryStart(system)
	}))
	require.NoError(t, e.randomness.SetForNextEpoch(thor.GovHubAddress, randomness.Off()))
	require.NoError(t, e.randomness.OnNewEpoch(thor.ReconfigurationWithDKGAddress, 0))

	e.epoch.ready = true
	rev := e.state.NewCheckpoint()
	e.now += 1_000
	err := e.reconfig.BlockPrologue(system, proposer, nil, e.now)
	assert.ErrorIs(t, err, ErrReentrant)
	e.state.RevertTo(rev)
	assert.Equal(t, 0, e.epoch.transitions)
}

func TestTargetSet(t *testing.T) {
	info := func(name string) validator.ConsensusInfo {
		return validator.ConsensusInfo{Address: thor.BytesToAddress([]byte(name)), ConsensusPublicKey: []byte(name)}
	}
	part := &validator.Partition{
		Active:          []validator.ConsensusInfo{info("a"), info("b"), info("c")},
		PendingInactive: []validator.ConsensusInfo{info("b")},
		PendingActive:   []validator.ConsensusInfo{info("d"), info("e")},
	}
	var names []string
	for _, v := range TargetSet(part) {
		names = append(names, string(v.ConsensusPublicKey))
	}
	assert.Equal(t, []string{"a", "c", "d", "e"}, names)
}
