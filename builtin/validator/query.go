// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"math/big"
	"sort"

	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// Get returns the validator entry, or nil when the address is not registered.
func (r *Registry) Get(addr thor.Address) (*Validator, error) {
	v, err := r.storage.getValidator(addr)
	if err != nil || v.IsEmpty() {
		return nil, err
	}
	return v, nil
}

// ValidatorSet returns the current partition.
func (r *Registry) ValidatorSet() (*ValidatorSet, error) {
	return r.storage.getSet()
}

// Validators returns every registered validator in registration order.
func (r *Registry) Validators() ([]*Validator, error) {
	registered, err := r.storage.registered.Get()
	if err != nil {
		return nil, err
	}
	out := make([]*Validator, 0, len(registered))
	for _, addr := range registered {
		v, err := r.getExisting(addr)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// IsInitialized reports whether the genesis set was seeded.
func (r *Registry) IsInitialized() (bool, error) {
	return r.storage.initialized.Get()
}

// TotalVotingPower returns the voting power of the current epoch.
func (r *Registry) TotalVotingPower() (*big.Int, error) {
	set, err := r.storage.getSet()
	if err != nil {
		return nil, err
	}
	return set.TotalVotingPower, nil
}

func (r *Registry) load(addrs []thor.Address) ([]*Validator, error) {
	vals := make([]*Validator, 0, len(addrs))
	for _, addr := range addrs {
		v, err := r.getExisting(addr)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func toConsensusInfo(v *Validator, power *big.Int) ConsensusInfo {
	return ConsensusInfo{
		Address:                   v.Address,
		ConsensusPublicKey:        v.ConsensusPublicKey,
		ConsensusAddress:          v.ConsensusAddress,
		VotingPower:               power,
		ValidatorNetworkAddresses: v.ValidatorNetworkAddresses,
		FullnodeNetworkAddresses:  v.FullnodeNetworkAddresses,
	}
}

// Partition returns the consensus view of the set. Active entries carry their current voting
// power, pending active entries their bonded stake and are ordered by registration.
func (r *Registry) Partition() (*Partition, error) {
	set, err := r.storage.getSet()
	if err != nil {
		return nil, err
	}
	p := &Partition{}

	active, err := r.load(set.Active)
	if err != nil {
		return nil, err
	}
	for _, v := range active {
		p.Active = append(p.Active, toConsensusInfo(v, v.VotingPower))
	}

	leaving, err := r.load(set.PendingInactive)
	if err != nil {
		return nil, err
	}
	for _, v := range leaving {
		p.PendingInactive = append(p.PendingInactive, toConsensusInfo(v, v.VotingPower))
	}

	joining, err := r.load(set.PendingActive)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(joining, func(i, j int) bool { return joining[i].Sequence < joining[j].Sequence })
	for _, v := range joining {
		st, err := r.Ledger(v.Address).Stake()
		if err != nil {
			return nil, err
		}
		p.PendingActive = append(p.PendingActive, toConsensusInfo(v, st.Bonded()))
	}
	return p, nil
}
