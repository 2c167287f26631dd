// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"math/big"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var ErrInconsistentSet = errors.New("validator set is inconsistent")

// ValidateStakeStates checks the solvency of every ledger and reports all violations.
func (r *Registry) ValidateStakeStates() error {
	registered, err := r.storage.registered.Get()
	if err != nil {
		return err
	}
	var result *multierror.Error
	for _, addr := range registered {
		if err := r.Ledger(addr).ValidateStakeStates(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// ValidateValidatorSet checks that the partition agrees with the validator entries: every
// registered validator sits in the list matching its status, and the total voting power is
// the sum over the active list.
func (r *Registry) ValidateValidatorSet() error {
	set, err := r.storage.getSet()
	if err != nil {
		return err
	}
	vals, err := r.Validators()
	if err != nil {
		return err
	}

	member := func(list []thor.Address) map[thor.Address]bool {
		m := make(map[thor.Address]bool, len(list))
		for _, a := range list {
			m[a] = true
		}
		return m
	}
	active, pendingActive, pendingInactive := member(set.Active), member(set.PendingActive), member(set.PendingInactive)

	var (
		result *multierror.Error
		total  = new(big.Int)
	)
	fail := func(format string, args ...any) {
		result = multierror.Append(result, errors.Wrapf(ErrInconsistentSet, format, args...))
	}
	for i, addr := range set.Active {
		v, err := r.getExisting(addr)
		if err != nil {
			return err
		}
		if v.Index != uint64(i) {
			fail("%v has index %d at position %d", addr, v.Index, i)
		}
		total.Add(total, v.VotingPower)
	}
	if total.Cmp(set.TotalVotingPower) != 0 {
		fail("total voting power %v, sum %v", set.TotalVotingPower, total)
	}
	for _, v := range vals {
		var ok bool
		switch v.Status {
		case StatusActive:
			ok = active[v.Address] && !pendingInactive[v.Address] && !pendingActive[v.Address]
		case StatusPendingInactive:
			ok = active[v.Address] && pendingInactive[v.Address]
		case StatusPendingActive:
			ok = pendingActive[v.Address] && !active[v.Address]
		case StatusInactive:
			ok = !active[v.Address] && !pendingActive[v.Address]
		}
		if !ok {
			fail("%v in status %s is misplaced", v.Address, StatusName(v.Status))
		}
	}
	return result.ErrorOrNil()
}
