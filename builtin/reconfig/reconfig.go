// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reconfig implements the `ReconfigurationWithDKG` contract, which sequences the epoch
// change: it opens a DKG session once the epoch may end and, when the session completes,
// rotates pending configs and transitions the epoch.
package reconfig

import (
	"bytes"
	"time"

	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/dkg"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/epoch"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/randomness"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/solidity"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/validator"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/metrics"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var (
	logger = log.WithContext("pkg", "reconfig")

	slotReconfiguring = thor.BytesToBytes32([]byte("reconfiguring"))

	metricPrologueDuration = metrics.LazyLoadHistogram("block_prologue_duration_ms", metrics.Bucket10s)
	metricDKGSessions      = metrics.LazyLoadCounterVec("dkg_sessions_count", []string{"stage"})
	metricEpoch            = metrics.LazyLoadGauge("current_epoch")

	ErrReentrant           = reverts.New(reverts.Precondition, "ReconfigurationInProgress", "reconfiguration re-entered")
	ErrNoSessionInProgress = reverts.New(reverts.Precondition, "DKGNotInProgress", "no DKG session in progress")
)

// Clock is the block clock.
type Clock interface {
	Update(caller, proposer thor.Address, micros uint64) error
}

// PerformanceRecorder counts proposals.
type PerformanceRecorder interface {
	Record(caller, proposer thor.Address, failedIndices []uint64) error
}

// EpochClock is the epoch manager view.
type EpochClock interface {
	Current() (uint64, error)
	CanTransition() (bool, error)
	Transition(caller thor.Address) error
}

// DKGCoordinator is the DKG contract view.
type DKGCoordinator interface {
	Start(caller thor.Address, meta *dkg.Metadata) error
	Finish(caller thor.Address, transcript []byte) error
	TryClearIncompleteSession(caller thor.Address) (bool, error)
	IncompleteSession() (*dkg.Session, bool, error)
}

// RandomnessSource provides the current randomness config.
type RandomnessSource interface {
	Current() (*randomness.Config, error)
}

// ValidatorSetView provides the consensus view of the validator set.
type ValidatorSetView interface {
	Partition() (*validator.Partition, error)
}

// PendingConfig is a module staging config for the next epoch.
type PendingConfig interface {
	OnNewEpoch(caller thor.Address, epoch uint64) error
}

// Deps are the collaborators of the orchestrator.
type Deps struct {
	Clock       Clock
	Performance PerformanceRecorder
	Epoch       EpochClock
	DKG         DKGCoordinator
	Randomness  RandomnessSource
	Validators  ValidatorSetView
	// Pending configs rotate in order before the epoch transition.
	Pending []PendingConfig
}

// Reconfig implements native methods of the `ReconfigurationWithDKG` contract.
type Reconfig struct {
	sctx          *solidity.Context
	deps          Deps
	reconfiguring *solidity.Value[bool]
}

func New(addr thor.Address, state *state.State, deps Deps) *Reconfig {
	sctx := solidity.NewContext(addr, state)
	return &Reconfig{
		sctx:          sctx,
		deps:          deps,
		reconfiguring: solidity.NewValue[bool](sctx, slotReconfiguring),
	}
}

func (r *Reconfig) self() thor.Address {
	return r.sctx.Address()
}

// BlockPrologue runs once per block: it advances the clock, records proposer performance and,
// once the epoch may end, starts the reconfiguration.
func (r *Reconfig) BlockPrologue(caller, proposer thor.Address, failedIndices []uint64, micros uint64) error {
	if err := acl.Require(caller, acl.BlockDriver); err != nil {
		return err
	}
	start := time.Now()
	defer func() { metricPrologueDuration().Observe(time.Since(start).Milliseconds()) }()

	if err := r.deps.Clock.Update(caller, proposer, micros); err != nil {
		return err
	}
	if r.deps.Performance != nil {
		if err := r.deps.Performance.Record(caller, proposer, failedIndices); err != nil {
			return err
		}
	}
	ok, err := r.deps.Epoch.CanTransition()
	if err != nil || !ok {
		return err
	}
	return r.tryStart()
}

// TryStart starts a DKG session for the current epoch. It is a no-op when one is already in
// progress for this epoch; a session left from an earlier epoch is discarded first. With
// randomness off the epoch changes immediately.
func (r *Reconfig) TryStart(caller thor.Address) error {
	if err := acl.Require(caller, acl.BlockDriver); err != nil {
		return err
	}
	ok, err := r.deps.Epoch.CanTransition()
	if err != nil {
		return err
	}
	if !ok {
		return epoch.ErrEpochTransitionNotReady
	}
	return r.tryStart()
}

func (r *Reconfig) tryStart() error {
	current, err := r.deps.Epoch.Current()
	if err != nil {
		return err
	}
	session, ok, err := r.deps.DKG.IncompleteSession()
	if err != nil {
		return err
	}
	if ok {
		if session.Metadata.DealerEpoch == current {
			return nil
		}
		logger.Info("discarding stale dkg session", "dealerEpoch", session.Metadata.DealerEpoch, "epoch", current)
		if _, err := r.deps.DKG.TryClearIncompleteSession(r.self()); err != nil {
			return err
		}
	}

	cfg, err := r.deps.Randomness.Current()
	if err != nil {
		return err
	}
	if cfg.Variant == randomness.VariantOff {
		logger.Debug("randomness off, reconfiguring without dkg", "epoch", current)
		return r.finish()
	}

	part, err := r.deps.Validators.Partition()
	if err != nil {
		return err
	}
	meta := &dkg.Metadata{
		DealerEpoch:      current,
		RandomnessConfig: cfg,
		DealerValidators: part.Active,
		TargetValidators: TargetSet(part),
	}
	if err := r.deps.DKG.Start(r.self(), meta); err != nil {
		return err
	}
	metricDKGSessions().AddWithLabel(1, map[string]string{"stage": "started"})
	return nil
}

// TargetSet returns the validators of the next epoch: active ones not leaving, keyed by
// consensus key and in index order, followed by joining ones in registration order.
func TargetSet(part *validator.Partition) []validator.ConsensusInfo {
	leaving := func(key []byte) bool {
		for _, v := range part.PendingInactive {
			if bytes.Equal(v.ConsensusPublicKey, key) {
				return true
			}
		}
		return false
	}
	targets := make([]validator.ConsensusInfo, 0, len(part.Active)+len(part.PendingActive))
	for _, v := range part.Active {
		if !leaving(v.ConsensusPublicKey) {
			targets = append(targets, v)
		}
	}
	return append(targets, part.PendingActive...)
}

// FinishWithResult completes the DKG session with transcript and reconfigures.
func (r *Reconfig) FinishWithResult(caller thor.Address, transcript []byte) error {
	if err := acl.Require(caller, acl.ConsensusClient); err != nil {
		return err
	}
	logger.Debug("finishing dkg session", "transcript", len(transcript))

	if _, ok, err := r.deps.DKG.IncompleteSession(); err != nil {
		return err
	} else if !ok {
		return ErrNoSessionInProgress
	}
	if err := r.deps.DKG.Finish(r.self(), transcript); err != nil {
		return err
	}
	metricDKGSessions().AddWithLabel(1, map[string]string{"stage": "finished"})
	return r.finish()
}

// Finish reconfigures without a transcript, discarding the session in progress.
func (r *Reconfig) Finish(caller thor.Address) error {
	if err := acl.Require(caller, acl.Administrator); err != nil {
		return err
	}
	if _, ok, err := r.deps.DKG.IncompleteSession(); err != nil {
		return err
	} else if !ok {
		return ErrNoSessionInProgress
	}
	return r.finish()
}

// finish rotates the pending configs and transitions the epoch. The reconfiguring flag is set
// before any collaborator runs and rejects nested calls.
func (r *Reconfig) finish() error {
	busy, err := r.reconfiguring.Get()
	if err != nil {
		return err
	}
	if busy {
		return ErrReentrant
	}
	if err := r.reconfiguring.Set(true); err != nil {
		return err
	}

	if _, err := r.deps.DKG.TryClearIncompleteSession(r.self()); err != nil {
		return err
	}
	current, err := r.deps.Epoch.Current()
	if err != nil {
		return err
	}
	for _, p := range r.deps.Pending {
		if err := p.OnNewEpoch(r.self(), current+1); err != nil {
			return errors.Wrap(err, "rotate pending config")
		}
	}
	if err := r.deps.Epoch.Transition(r.self()); err != nil {
		return err
	}
	r.reconfiguring.Clear()

	metricEpoch().Set(int64(current + 1))
	r.sctx.Emit("ReconfigurationFinished", map[string]any{"epoch": current + 1})
	logger.Info("reconfiguration finished", "epoch", current+1)
	return nil
}
