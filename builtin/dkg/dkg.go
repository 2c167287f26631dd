// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package dkg implements the `DKG` contract. It records the two on-chain commit points of a
// distributed key generation ceremony: the session start and its transcript.
package dkg

import (
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/randomness"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/solidity"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/validator"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var (
	logger = log.WithContext("pkg", "dkg")

	slotInProgress    = thor.BytesToBytes32([]byte("in-progress-session"))
	slotLastCompleted = thor.BytesToBytes32([]byte("last-completed-session"))

	ErrSessionInProgress   = reverts.New(reverts.Precondition, "DKGInProgress", "a DKG session is already in progress")
	ErrNoSessionInProgress = reverts.New(reverts.Precondition, "DKGNotInProgress", "no DKG session in progress")
)

// Clock provides the on-chain time.
type Clock interface {
	NowMicroseconds() (uint64, error)
}

// Metadata describes a session as it was started.
type Metadata struct {
	DealerEpoch      uint64                    `json:"dealerEpoch"`
	RandomnessConfig *randomness.Config        `json:"randomnessConfig"`
	DealerValidators []validator.ConsensusInfo `json:"dealerValidatorSet"`
	TargetValidators []validator.ConsensusInfo `json:"targetValidatorSet"`
}

// Session is a DKG session; Transcript is empty until the session completes.
type Session struct {
	Metadata   Metadata `json:"metadata"`
	StartTime  uint64   `json:"startTimeUs"`
	Transcript []byte   `json:"transcript"`
}

// DKG implements native methods of the `DKG` contract.
type DKG struct {
	sctx          *solidity.Context
	clock         Clock
	inProgress    *solidity.Value[*Session]
	lastCompleted *solidity.Value[*Session]
}

func New(addr thor.Address, state *state.State, clock Clock) *DKG {
	sctx := solidity.NewContext(addr, state)
	return &DKG{
		sctx:          sctx,
		clock:         clock,
		inProgress:    solidity.NewValue[*Session](sctx, slotInProgress),
		lastCompleted: solidity.NewValue[*Session](sctx, slotLastCompleted),
	}
}

// Start opens a session. At most one session may be in progress.
func (d *DKG) Start(caller thor.Address, meta *Metadata) error {
	if err := acl.Require(caller, acl.Reconfiguration); err != nil {
		return err
	}
	logger.Debug("starting dkg session", "dealerEpoch", meta.DealerEpoch)

	if ok, err := d.inProgress.Exists(); err != nil {
		return err
	} else if ok {
		return ErrSessionInProgress
	}
	now, err := d.clock.NowMicroseconds()
	if err != nil {
		return err
	}
	if err := d.inProgress.Set(&Session{Metadata: *meta, StartTime: now}); err != nil {
		return err
	}

	d.sctx.Emit("DKGStartEvent", map[string]any{
		"dealerEpoch": meta.DealerEpoch,
		"startTimeUs": now,
		"dealers":     len(meta.DealerValidators),
		"targets":     len(meta.TargetValidators),
	})
	logger.Info("dkg session started", "dealerEpoch", meta.DealerEpoch, "dealers", len(meta.DealerValidators), "targets", len(meta.TargetValidators))
	return nil
}

// Finish completes the session in progress with the given transcript.
func (d *DKG) Finish(caller thor.Address, transcript []byte) error {
	if err := acl.Require(caller, acl.Reconfiguration); err != nil {
		return err
	}
	session, ok, err := d.IncompleteSession()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSessionInProgress
	}
	session.Transcript = transcript
	if err := d.lastCompleted.Set(session); err != nil {
		return err
	}
	d.inProgress.Clear()

	d.sctx.Emit("DKGFinishEvent", map[string]any{
		"dealerEpoch": session.Metadata.DealerEpoch,
		"transcript":  len(transcript),
	})
	logger.Info("dkg session finished", "dealerEpoch", session.Metadata.DealerEpoch, "transcript", len(transcript))
	return nil
}

// TryClearIncompleteSession discards the session in progress, if any, and reports whether one
// was discarded.
func (d *DKG) TryClearIncompleteSession(caller thor.Address) (bool, error) {
	if err := acl.Require(caller, acl.Reconfiguration); err != nil {
		return false, err
	}
	session, ok, err := d.IncompleteSession()
	if err != nil || !ok {
		return false, err
	}
	d.inProgress.Clear()
	logger.Info("dkg session discarded", "dealerEpoch", session.Metadata.DealerEpoch)
	return true, nil
}

func (d *DKG) load(v *solidity.Value[*Session]) (*Session, bool, error) {
	ok, err := v.Exists()
	if err != nil || !ok {
		return nil, false, err
	}
	session, err := v.Get()
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to decode dkg session")
	}
	return session, true, nil
}

// IncompleteSession returns the session in progress.
func (d *DKG) IncompleteSession() (*Session, bool, error) {
	return d.load(d.inProgress)
}

// LastCompletedSession returns the most recently completed session.
func (d *DKG) LastCompletedSession() (*Session, bool, error) {
	return d.load(d.lastCompleted)
}

// InProgress reports whether a session is open.
func (d *DKG) InProgress() (bool, error) {
	return d.inProgress.Exists()
}
