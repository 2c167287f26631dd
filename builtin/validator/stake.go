// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// Delegate stakes amount paid by caller into the ledger of validator. Stake joining an active or
// pending active validator counts towards the epoch's joining power. Stake operations fail with
// ErrReconfigurationInProgress while a DKG session is open; Claim does not.
func (r *Registry) Delegate(caller, validator thor.Address, amount *big.Int) (*big.Int, error) {
	v, err := r.getExisting(validator)
	if err != nil {
		return nil, err
	}
	if err := r.requireStable(); err != nil {
		return nil, err
	}
	cfg, err := r.params.Config()
	if err != nil {
		return nil, err
	}
	if amount != nil && amount.Sign() > 0 && amount.Cmp(cfg.MinDelegationStake) < 0 {
		return nil, errors.Wrapf(ErrInsufficientStake, "delegation %v, minimum %v", amount, cfg.MinDelegationStake)
	}

	joining := v.Status == StatusActive || v.Status == StatusPendingActive
	var set *ValidatorSet
	if joining && amount != nil {
		if set, err = r.storage.getSet(); err != nil {
			return nil, err
		}
		if err := checkVotingPowerIncrease(set, amount, cfg.VotingPowerIncreaseLimit); err != nil {
			return nil, err
		}
	}

	shares, err := r.Ledger(validator).Delegate(caller, caller, amount, cfg.MaximumStake)
	if err != nil {
		return nil, err
	}
	if set != nil {
		set.TotalJoiningPower.Add(set.TotalJoiningPower, amount)
		if err := r.storage.setSet(set); err != nil {
			return nil, err
		}
	}
	return shares, nil
}

// Unlock starts unbonding shares of caller in the ledger of validator.
func (r *Registry) Unlock(caller, validator thor.Address, shares *big.Int) (*big.Int, error) {
	if _, err := r.getExisting(validator); err != nil {
		return nil, err
	}
	if err := r.requireStable(); err != nil {
		return nil, err
	}
	now, err := r.clock.NowMicroseconds()
	if err != nil {
		return nil, err
	}
	return r.Ledger(validator).Unlock(caller, shares, now)
}

// ReactivateStake cancels part of the unlock request of caller in the ledger of validator.
func (r *Registry) ReactivateStake(caller, validator thor.Address, shares *big.Int) (*big.Int, error) {
	if _, err := r.getExisting(validator); err != nil {
		return nil, err
	}
	if err := r.requireStable(); err != nil {
		return nil, err
	}
	return r.Ledger(validator).ReactivateStake(caller, shares)
}

// Claim pays out the matured value of caller in the ledger of validator.
func (r *Registry) Claim(caller, validator thor.Address) (*big.Int, error) {
	if _, err := r.getExisting(validator); err != nil {
		return nil, err
	}
	return r.Ledger(validator).Claim(caller)
}
