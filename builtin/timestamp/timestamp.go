// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package timestamp implements the on-chain clock, advanced once per block.
package timestamp

import (
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/solidity"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

const MicrosPerSecond = 1_000_000

var (
	logger = log.WithContext("pkg", "timestamp")

	slotMicroseconds = thor.BytesToBytes32([]byte("microseconds"))

	ErrInvalidTimestamp = reverts.New(reverts.Validation, "InvalidTimestamp", "timestamp must advance")
)

// Timestamp implements native methods of the `Timestamp` contract.
type Timestamp struct {
	sctx *solidity.Context
	now  *solidity.Value[uint64]
}

func New(addr thor.Address, state *state.State) *Timestamp {
	sctx := solidity.NewContext(addr, state)
	return &Timestamp{
		sctx: sctx,
		now:  solidity.NewValue[uint64](sctx, slotMicroseconds),
	}
}

// NowMicroseconds returns the current on-chain time in microseconds.
func (t *Timestamp) NowMicroseconds() (uint64, error) {
	return t.now.Get()
}

// NowSeconds returns the current on-chain time in seconds.
func (t *Timestamp) NowSeconds() (uint64, error) {
	micros, err := t.now.Get()
	if err != nil {
		return 0, err
	}
	return micros / MicrosPerSecond, nil
}

// Update advances the clock. A block with no proposer (nil block) must carry the current time,
// any other block must strictly advance it.
func (t *Timestamp) Update(caller, proposer thor.Address, micros uint64) error {
	if err := acl.Require(caller, acl.BlockDriver); err != nil {
		return err
	}
	now, err := t.now.Get()
	if err != nil {
		return err
	}

	if proposer.IsZero() || proposer == thor.SystemCallerAddress {
		if micros != now {
			return errors.Wrapf(ErrInvalidTimestamp, "nil block at %d, now %d", micros, now)
		}
		return nil
	}
	if micros <= now {
		return errors.Wrapf(ErrInvalidTimestamp, "block at %d, now %d", micros, now)
	}

	logger.Trace("global time updated", "proposer", proposer, "micros", micros)
	return t.now.Set(micros)
}

// Initialize sets the genesis time.
func (t *Timestamp) Initialize(micros uint64) error {
	return t.now.Set(micros)
}
