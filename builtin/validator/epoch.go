// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// OnNewEpoch rebuilds the validator set. Every ledger settles its buckets first; then
// pending inactive validators leave, pending active validators join and indices are reassigned:
// survivors keep their relative index order, entrants follow in registration order.
// The epoch manager guarantees it runs once per epoch.
func (r *Registry) OnNewEpoch(caller thor.Address, epoch uint64) error {
	if err := acl.Require(caller, acl.EpochManager); err != nil {
		return err
	}
	logger.Debug("rebuilding validator set", "epoch", epoch)

	cfg, err := r.params.Config()
	if err != nil {
		return err
	}
	now, err := r.clock.NowMicroseconds()
	if err != nil {
		return err
	}
	registered, err := r.storage.registered.Get()
	if err != nil {
		return err
	}
	power := make(map[thor.Address]*big.Int, len(registered))
	for _, addr := range registered {
		active, err := r.Ledger(addr).OnNewEpoch(now, cfg.RecurringLockupDuration)
		if err != nil {
			return errors.Wrapf(err, "ledger of %v", addr)
		}
		power[addr] = active
	}

	set, err := r.storage.getSet()
	if err != nil {
		return err
	}

	leaving := make(map[thor.Address]bool, len(set.PendingInactive))
	for _, addr := range set.PendingInactive {
		leaving[addr] = true
	}
	entrants := make([]*Validator, 0, len(set.PendingActive))
	for _, addr := range set.PendingActive {
		v, err := r.getExisting(addr)
		if err != nil {
			return err
		}
		entrants = append(entrants, v)
	}
	sort.SliceStable(entrants, func(i, j int) bool { return entrants[i].Sequence < entrants[j].Sequence })

	next := newValidatorSet()
	place := func(v *Validator) error {
		v.Index = uint64(len(next.Active))
		v.VotingPower = power[v.Address]
		r.setStatus(v, StatusActive)
		next.Active = append(next.Active, v.Address)
		next.TotalVotingPower.Add(next.TotalVotingPower, v.VotingPower)
		return r.storage.setValidator(v)
	}
	retire := func(v *Validator) error {
		v.VotingPower = new(big.Int)
		v.Index = 0
		r.setStatus(v, StatusInactive)
		return r.storage.setValidator(v)
	}

	for _, addr := range set.Active {
		v, err := r.getExisting(addr)
		if err != nil {
			return err
		}
		if leaving[addr] {
			err = retire(v)
		} else {
			err = place(v)
		}
		if err != nil {
			return err
		}
	}
	for _, v := range entrants {
		if power[v.Address].Cmp(cfg.MinValidatorStake) < 0 {
			logger.Info("entrant below minimum stake", "validator", v.Address, "power", power[v.Address])
			if err := retire(v); err != nil {
				return err
			}
			continue
		}
		if err := place(v); err != nil {
			return err
		}
	}

	if err := r.storage.setSet(next); err != nil {
		return err
	}
	r.sctx.Emit("ValidatorSetUpdated", map[string]any{
		"epoch":            epoch,
		"active":           len(next.Active),
		"totalVotingPower": next.TotalVotingPower.String(),
	})
	logger.Info("validator set rebuilt", "epoch", epoch, "active", len(next.Active), "totalVotingPower", next.TotalVotingPower)
	return nil
}
