// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package performance implements the `ValidatorPerformanceTracker` contract, counting
// successful and failed proposals per validator index over the current epoch.
package performance

import (
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/solidity"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/validator"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var (
	logger = log.WithContext("pkg", "performance")

	slotPerformance = thor.BytesToBytes32([]byte("epoch-performance"))
)

// Validators is the registry view the tracker needs.
type Validators interface {
	Get(addr thor.Address) (*validator.Validator, error)
	ValidatorSet() (*validator.ValidatorSet, error)
}

// Proposals counts the proposals of one validator.
type Proposals struct {
	Successful uint64 `json:"successfulProposals"`
	Failed     uint64 `json:"failedProposals"`
}

// EpochPerformance is indexed by validator index.
type EpochPerformance struct {
	Epoch      uint64      `json:"epoch"`
	Validators []Proposals `json:"validators"`
}

// Tracker implements native methods of the `ValidatorPerformanceTracker` contract.
type Tracker struct {
	sctx        *solidity.Context
	validators  Validators
	performance *solidity.Value[*EpochPerformance]
}

func New(addr thor.Address, state *state.State, validators Validators) *Tracker {
	sctx := solidity.NewContext(addr, state)
	return &Tracker{
		sctx:        sctx,
		validators:  validators,
		performance: solidity.NewValue[*EpochPerformance](sctx, slotPerformance),
	}
}

// Performance returns the counters of the current epoch.
func (t *Tracker) Performance() (*EpochPerformance, error) {
	return t.performance.Get()
}

// Record credits a successful proposal to proposer and a failure to each failed index.
// Indices outside the current set are ignored. A zero or system proposer marks a nil block.
func (t *Tracker) Record(caller, proposer thor.Address, failedIndices []uint64) error {
	if err := acl.Require(caller, acl.BlockDriver); err != nil {
		return err
	}
	perf, err := t.performance.Get()
	if err != nil {
		return err
	}
	if len(perf.Validators) == 0 {
		if perf, err = t.fresh(perf.Epoch); err != nil {
			return err
		}
	}

	if !proposer.IsZero() && proposer != thor.SystemCallerAddress {
		v, err := t.validators.Get(proposer)
		if err != nil {
			return err
		}
		if v != nil && v.IsActive() && v.Index < uint64(len(perf.Validators)) {
			perf.Validators[v.Index].Successful++
		} else {
			logger.Debug("proposer not in the active set", "proposer", proposer)
		}
	}
	for _, i := range failedIndices {
		if i < uint64(len(perf.Validators)) {
			perf.Validators[i].Failed++
		}
	}
	return t.performance.Set(perf)
}

func (t *Tracker) fresh(epoch uint64) (*EpochPerformance, error) {
	set, err := t.validators.ValidatorSet()
	if err != nil {
		return nil, err
	}
	return &EpochPerformance{Epoch: epoch, Validators: make([]Proposals, len(set.Active))}, nil
}

// OnNewEpoch resets the counters for the new active set.
func (t *Tracker) OnNewEpoch(caller thor.Address, epoch uint64) error {
	if err := acl.Require(caller, acl.EpochManager); err != nil {
		return err
	}
	prev, err := t.performance.Get()
	if err != nil {
		return err
	}
	perf, err := t.fresh(epoch)
	if err != nil {
		return err
	}
	if err := t.performance.Set(perf); err != nil {
		return err
	}
	logger.Debug("performance reset", "epoch", epoch, "previous", prev.Epoch, "validators", len(perf.Validators))
	return nil
}
