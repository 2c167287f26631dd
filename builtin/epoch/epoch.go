// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package epoch implements the `EpochManager` contract: the epoch counter, the transition
// predicate and the single transition entry point notifying every epoch listener.
package epoch

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/params"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/solidity"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// KeyEpochInterval is the governance key of the epoch interval.
const KeyEpochInterval = "epochIntervalMicrosecs"

// DefaultInterval is two hours.
const DefaultInterval = uint64(2 * 3600 * 1_000_000)

var (
	logger = log.WithContext("pkg", "epoch")

	slotEpoch          = thor.BytesToBytes32([]byte("current-epoch"))
	slotLastTransition = thor.BytesToBytes32([]byte("last-transition-time"))
	slotInterval       = thor.BytesToBytes32([]byte("epoch-interval"))
	slotInitialized    = thor.BytesToBytes32([]byte("epoch-initialized"))

	ErrEpochTransitionNotReady = reverts.New(reverts.Precondition, "EpochTransitionNotReady", "epoch interval has not elapsed")
	ErrAlreadyInitialized      = reverts.New(reverts.Precondition, "AlreadyInitialized", "epoch manager already initialized")
	ErrNotInitialized          = reverts.New(reverts.Precondition, "NotInitialized", "epoch manager not initialized")
)

// Clock provides the on-chain time.
type Clock interface {
	NowMicroseconds() (uint64, error)
}

// Listener is notified after each transition, in registration order. The caller passed is the
// epoch manager.
type Listener interface {
	OnNewEpoch(caller thor.Address, epoch uint64) error
}

// Manager implements native methods of the `EpochManager` contract.
type Manager struct {
	sctx           *solidity.Context
	clock          Clock
	listeners      []Listener
	epoch          *solidity.Value[uint64]
	lastTransition *solidity.Value[uint64]
	interval       *solidity.Value[uint64]
	initialized    *solidity.Value[bool]
}

func New(addr thor.Address, state *state.State, clock Clock, listeners ...Listener) *Manager {
	sctx := solidity.NewContext(addr, state)
	return &Manager{
		sctx:           sctx,
		clock:          clock,
		listeners:      listeners,
		epoch:          solidity.NewValue[uint64](sctx, slotEpoch),
		lastTransition: solidity.NewValue[uint64](sctx, slotLastTransition),
		interval:       solidity.NewValue[uint64](sctx, slotInterval),
		initialized:    solidity.NewValue[bool](sctx, slotInitialized),
	}
}

// Initialize starts epoch 0 at the current time.
func (m *Manager) Initialize(caller thor.Address, interval uint64) error {
	if err := acl.Require(caller, acl.Genesis); err != nil {
		return err
	}
	done, err := m.initialized.Get()
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialized
	}
	if interval == 0 {
		return errors.Wrapf(params.ErrInvalidValue, "%s: must be positive", KeyEpochInterval)
	}
	now, err := m.clock.NowMicroseconds()
	if err != nil {
		return err
	}
	if err := m.interval.Set(interval); err != nil {
		return err
	}
	if err := m.lastTransition.Set(now); err != nil {
		return err
	}
	if err := m.epoch.Set(0); err != nil {
		return err
	}
	return m.initialized.Set(true)
}

// Current returns the current epoch.
func (m *Manager) Current() (uint64, error) {
	return m.epoch.Get()
}

// LastTransitionTime returns when the current epoch started, in µs.
func (m *Manager) LastTransitionTime() (uint64, error) {
	return m.lastTransition.Get()
}

// Interval returns the minimum epoch duration, in µs.
func (m *Manager) Interval() (uint64, error) {
	return m.interval.Get()
}

// CanTransition reports whether the current epoch lasted at least the interval.
func (m *Manager) CanTransition() (bool, error) {
	done, err := m.initialized.Get()
	if err != nil || !done {
		return false, err
	}
	now, err := m.clock.NowMicroseconds()
	if err != nil {
		return false, err
	}
	last, err := m.lastTransition.Get()
	if err != nil {
		return false, err
	}
	interval, err := m.interval.Get()
	if err != nil {
		return false, err
	}
	return now >= last && now-last >= interval, nil
}

// Transition advances the epoch and notifies the listeners. The new epoch is stored before any
// listener runs, so a second transition in the same block fails the predicate.
func (m *Manager) Transition(caller thor.Address) error {
	if err := acl.Require(caller, acl.Reconfiguration); err != nil {
		return err
	}
	if done, err := m.initialized.Get(); err != nil {
		return err
	} else if !done {
		return ErrNotInitialized
	}
	ok, err := m.CanTransition()
	if err != nil {
		return err
	}
	if !ok {
		return ErrEpochTransitionNotReady
	}
	now, err := m.clock.NowMicroseconds()
	if err != nil {
		return err
	}
	epoch, err := m.epoch.Get()
	if err != nil {
		return err
	}
	epoch++
	if err := m.epoch.Set(epoch); err != nil {
		return err
	}
	if err := m.lastTransition.Set(now); err != nil {
		return err
	}

	for _, l := range m.listeners {
		if err := l.OnNewEpoch(m.sctx.Address(), epoch); err != nil {
			return errors.Wrapf(err, "epoch %d listener", epoch)
		}
	}

	m.sctx.Emit("NewEpoch", map[string]any{"epoch": epoch, "transitionTime": now})
	logger.Info("new epoch", "epoch", epoch, "time", now)
	return nil
}

// UpdateParam updates the epoch interval from a 32-byte big-endian word.
func (m *Manager) UpdateParam(caller thor.Address, key string, value []byte) error {
	if err := acl.Require(caller, acl.Governance); err != nil {
		return err
	}
	if key != KeyEpochInterval {
		return errors.Wrapf(params.ErrUnknownParam, "key %q", key)
	}
	if len(value) != 32 {
		return errors.Wrapf(params.ErrInvalidValue, "%s: expected 32 bytes, got %d", key, len(value))
	}
	v := new(big.Int).SetBytes(value)
	if v.Sign() == 0 || !v.IsUint64() {
		return errors.Wrapf(params.ErrInvalidValue, "%s: %v out of range", key, v)
	}
	if err := m.interval.Set(v.Uint64()); err != nil {
		return err
	}
	m.sctx.Emit("ParamUpdated", map[string]any{"key": key, "value": v.String()})
	logger.Info("epoch interval updated", "interval", v)
	return nil
}
