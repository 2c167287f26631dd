// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin wires the built-in contracts together and exposes the transactional entry
// points driven by the block producer, the consensus client and genesis.
package builtin

import (
	"math/big"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/dkg"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/epoch"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/govhub"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/params"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/performance"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/randomness"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reconfig"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/timestamp"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/validator"
	"github.com/scalarorg/gravity-genesis-contract-sub001/kv"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/metrics"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var (
	logger = log.WithContext("pkg", "builtin")

	metricReverts          = metrics.LazyLoadCounterVec("reverts_count", []string{"kind"})
	metricTotalVotingPower = metrics.LazyLoadGauge("total_voting_power_tokens")
	metricValidatorSet     = metrics.LazyLoadGaugeVec("validator_set_size", []string{"partition"})

	ether = big.NewInt(1e18)
)

// Options customizes the system.
type Options struct {
	// AddressCodec validates network address blobs; nil accepts any blob.
	AddressCodec validator.AddressCodec
}

// Genesis holds everything the genesis bootstrap seeds.
type Genesis struct {
	TimestampMicros uint64
	StakeConfig     *params.Config
	EpochInterval   uint64
	Randomness      *randomness.Config
	Validators      *validator.GenesisParams
}

// System is the explicit table of built-in contracts, each bound to the same state.
type System struct {
	state *state.State

	Timestamp   *timestamp.Timestamp
	StakeConfig *params.Params
	Validators  *validator.Registry
	Randomness  *randomness.RandomnessConfig
	DKG         *dkg.DKG
	Performance *performance.Tracker
	Epoch       *epoch.Manager
	Reconfig    *reconfig.Reconfig
	GovHub      *govhub.Hub
}

// New binds every built-in contract to state.
func New(state *state.State, opts Options) *System {
	s := &System{state: state}

	s.Timestamp = timestamp.New(thor.TimestampAddress, state)
	s.StakeConfig = params.New(thor.StakeConfigAddress, state)
	s.DKG = dkg.New(thor.DKGAddress, state, s.Timestamp)
	s.Validators = validator.New(thor.ValidatorManagerAddress, state, s.StakeConfig, s.Timestamp, opts.AddressCodec, s.DKG)
	s.Randomness = randomness.New(thor.RandomnessConfigAddress, state)
	s.Performance = performance.New(thor.PerformanceTrackerAddress, state, s.Validators)
	s.Epoch = epoch.New(thor.EpochManagerAddress, state, s.Timestamp, s.Validators, s.Performance)
	s.Reconfig = reconfig.New(thor.ReconfigurationWithDKGAddress, state, reconfig.Deps{
		Clock:       s.Timestamp,
		Performance: s.Performance,
		Epoch:       s.Epoch,
		DKG:         s.DKG,
		Randomness:  s.Randomness,
		Validators:  s.Validators,
		Pending:     []reconfig.PendingConfig{s.Randomness},
	})
	s.GovHub = govhub.New(thor.GovHubAddress, state, map[thor.Address]govhub.ParamUpdater{
		thor.StakeConfigAddress:  s.StakeConfig,
		thor.EpochManagerAddress: s.Epoch,
	})
	return s
}

// State returns the bound state.
func (s *System) State() *state.State {
	return s.state
}

// Execute runs fn as one transaction: on error every change fn made, events included, is
// reverted.
func (s *System) Execute(fn func() error) error {
	rev := s.state.NewCheckpoint()
	if err := fn(); err != nil {
		s.state.RevertTo(rev)
		metricReverts().AddWithLabel(1, map[string]string{"kind": reverts.KindOf(err).String()})
		return err
	}
	return nil
}

// Initialize runs the genesis bootstrap.
func (s *System) Initialize(caller thor.Address, g *Genesis) error {
	return s.Execute(func() error {
		if err := acl.Require(caller, acl.Genesis); err != nil {
			return err
		}
		if err := s.Timestamp.Initialize(g.TimestampMicros); err != nil {
			return err
		}
		cfg := g.StakeConfig
		if cfg == nil {
			cfg = params.DefaultConfig()
		}
		if err := s.StakeConfig.Initialize(cfg); err != nil {
			return err
		}
		rnd := g.Randomness
		if rnd == nil {
			rnd = randomness.DefaultConfig()
		}
		if err := s.Randomness.Initialize(caller, rnd); err != nil {
			return err
		}
		interval := g.EpochInterval
		if interval == 0 {
			interval = epoch.DefaultInterval
		}
		if err := s.Epoch.Initialize(caller, interval); err != nil {
			return err
		}
		if err := s.Validators.Initialize(caller, g.Validators); err != nil {
			return err
		}
		s.observe()
		logger.Info("genesis initialized", "validators", len(g.Validators.ValidatorAddresses), "epochInterval", interval)
		return nil
	})
}

// BlockPrologue is the per-block entry point of the block driver.
func (s *System) BlockPrologue(caller, proposer thor.Address, failedIndices []uint64, micros uint64) error {
	err := s.Execute(func() error {
		return s.Reconfig.BlockPrologue(caller, proposer, failedIndices, micros)
	})
	if err == nil {
		s.observe()
	}
	return err
}

// FinishWithResult is the entry point of the consensus client once DKG completes.
func (s *System) FinishWithResult(caller thor.Address, transcript []byte) error {
	err := s.Execute(func() error {
		return s.Reconfig.FinishWithResult(caller, transcript)
	})
	if err == nil {
		s.observe()
	}
	return err
}

// Commit flushes the state, together with the extra writes, and returns the events emitted
// since the last commit.
func (s *System) Commit(extra ...func(w kv.Putter) error) ([]*state.Event, error) {
	return s.state.Commit(extra...)
}

func (s *System) observe() {
	set, err := s.Validators.ValidatorSet()
	if err != nil {
		return
	}
	for partition, list := range map[string][]thor.Address{
		"active":           set.Active,
		"pending_active":   set.PendingActive,
		"pending_inactive": set.PendingInactive,
	} {
		metricValidatorSet().SetWithLabel(int64(len(list)), map[string]string{"partition": partition})
	}
	if set.TotalVotingPower == nil {
		return
	}
	if tokens := new(big.Int).Div(set.TotalVotingPower, ether); tokens.IsInt64() {
		metricTotalVotingPower().Set(tokens.Int64())
	}
}
