// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/validator"
)

// EpochInfo is the epoch clock as seen after genesis.
type EpochInfo struct {
	Epoch              uint64 `json:"epoch"`
	LastTransitionTime uint64 `json:"lastTransitionTime"`
	Interval           uint64 `json:"epochInterval"`
}

// Report is the state read back from an initialized system.
type Report struct {
	Epoch      EpochInfo              `json:"epoch"`
	Validators []*validator.Validator `json:"validators"`
}

// Inspect reads the epoch and the active validators of sys and verifies them against the
// genesis arguments. The report is returned even when verification fails.
func (g *Genesis) Inspect(sys *builtin.System) (*Report, error) {
	var (
		r   Report
		err error
	)
	if r.Epoch.Epoch, err = sys.Epoch.Current(); err != nil {
		return nil, err
	}
	if r.Epoch.LastTransitionTime, err = sys.Epoch.LastTransitionTime(); err != nil {
		return nil, err
	}
	if r.Epoch.Interval, err = sys.Epoch.Interval(); err != nil {
		return nil, err
	}

	set, err := sys.Validators.ValidatorSet()
	if err != nil {
		return nil, err
	}
	for _, addr := range set.Active {
		v, err := sys.Validators.Get(addr)
		if err != nil {
			return nil, err
		}
		r.Validators = append(r.Validators, v)
	}
	return &r, Verify(g.builtin.Validators, r.Validators)
}

// Verify compares the active validators, in index order, with the genesis arguments field by
// field. Every mismatch is reported.
func Verify(want *validator.GenesisParams, active []*validator.Validator) error {
	if len(want.ValidatorAddresses) != len(active) {
		return errors.Errorf("validator count mismatch: want %d, got %d", len(want.ValidatorAddresses), len(active))
	}

	var result *multierror.Error
	mismatch := func(i int, field string, want, got any) {
		result = multierror.Append(result, errors.Errorf("validator %d: %s mismatch: want %v, got %v", i, field, want, got))
	}
	for i, v := range active {
		addr := want.ValidatorAddresses[i]
		if v.Address != addr {
			mismatch(i, "address", addr, v.Address)
		}
		if v.Operator != addr {
			mismatch(i, "operator", addr, v.Operator)
		}
		if v.ConsensusAddress != want.ConsensusAddresses[i] {
			mismatch(i, "consensus address", want.ConsensusAddresses[i], v.ConsensusAddress)
		}
		if !bytes.Equal(v.ConsensusPublicKey, want.ConsensusPublicKeys[i]) {
			mismatch(i, "consensus public key", want.ConsensusPublicKeys[i], v.ConsensusPublicKey)
		}
		if v.VotingPower == nil || v.VotingPower.Cmp(want.VotingPowers[i]) != 0 {
			mismatch(i, "voting power", want.VotingPowers[i], v.VotingPower)
		}
		if !bytes.Equal(v.ValidatorNetworkAddresses, want.ValidatorNetworkAddresses[i]) {
			mismatch(i, "validator network addresses", want.ValidatorNetworkAddresses[i], v.ValidatorNetworkAddresses)
		}
		if !bytes.Equal(v.FullnodeNetworkAddresses, want.FullnodeNetworkAddresses[i]) {
			mismatch(i, "fullnode network addresses", want.FullnodeNetworkAddresses[i], v.FullnodeNetworkAddresses)
		}
	}
	return result.ErrorOrNil()
}
