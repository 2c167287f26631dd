// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"math/big"

	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

type Status = uint8

const (
	StatusPendingActive   = Status(iota) // registered, joins at the next epoch
	StatusActive                         // member of the current validator set
	StatusPendingInactive                // leaves at the next epoch, still active
	StatusInactive                       // not part of any set
)

// StatusName returns a readable status.
func StatusName(s Status) string {
	switch s {
	case StatusPendingActive:
		return "PENDING_ACTIVE"
	case StatusActive:
		return "ACTIVE"
	case StatusPendingInactive:
		return "PENDING_INACTIVE"
	case StatusInactive:
		return "INACTIVE"
	default:
		return "UNKNOWN"
	}
}

// Commission terms in basis points, 10000 is 100%.
type Commission struct {
	Rate          uint64 `json:"rate"`
	MaxRate       uint64 `json:"maxRate"`
	MaxChangeRate uint64 `json:"maxChangeRate"`
}

// Validator is the registry entry of a validator.
type Validator struct {
	Address            thor.Address `json:"address"`
	ConsensusPublicKey []byte       `json:"consensusPublicKey"`
	ConsensusAddress   thor.Bytes32 `json:"consensusAddress"`
	Moniker            string       `json:"moniker"`
	Operator           thor.Address `json:"operator"`
	Beneficiary        thor.Address `json:"beneficiary"`
	Commission         Commission   `json:"commission"`

	ValidatorNetworkAddresses []byte `json:"validatorNetworkAddresses"`
	FullnodeNetworkAddresses  []byte `json:"fullnodeNetworkAddresses"`

	Status               Status       `json:"status"`
	VotingPower          *big.Int     `json:"votingPower"`
	Index                uint64       `json:"validatorIndex"` // meaningful while active
	LastCommissionUpdate uint64       `json:"updateTime"`     // µs
	Sequence             uint64       `json:"sequence"`       // registration order
	StakeCredit          thor.Address `json:"stakeCreditAddress"`
}

// IsEmpty returns whether the entry was never registered.
func (v *Validator) IsEmpty() bool {
	return v == nil || v.Address.IsZero()
}

// IsActive reports whether the validator takes part in the current epoch.
func (v *Validator) IsActive() bool {
	return v.Status == StatusActive || v.Status == StatusPendingInactive
}

// ValidatorSet is the partition of validators maintained across epochs.
type ValidatorSet struct {
	Active            []thor.Address // ordered by validator index
	PendingActive     []thor.Address // ordered by request time
	PendingInactive   []thor.Address // subset of Active
	TotalVotingPower  *big.Int
	TotalJoiningPower *big.Int
}

func newValidatorSet() *ValidatorSet {
	return &ValidatorSet{
		TotalVotingPower:  new(big.Int),
		TotalJoiningPower: new(big.Int),
	}
}

func (s *ValidatorSet) normalize() *ValidatorSet {
	if s.TotalVotingPower == nil {
		s.TotalVotingPower = new(big.Int)
	}
	if s.TotalJoiningPower == nil {
		s.TotalJoiningPower = new(big.Int)
	}
	return s
}

// ConsensusInfo is what the consensus layer needs to know about a validator.
type ConsensusInfo struct {
	Address                   thor.Address `json:"address"`
	ConsensusPublicKey        []byte       `json:"consensusPublicKey"`
	ConsensusAddress          thor.Bytes32 `json:"consensusAddress"`
	VotingPower               *big.Int     `json:"votingPower"`
	ValidatorNetworkAddresses []byte       `json:"validatorNetworkAddresses"`
	FullnodeNetworkAddresses  []byte       `json:"fullnodeNetworkAddresses"`
}

// Partition is the consensus view of the validator set. PendingActive is in registration order.
type Partition struct {
	Active          []ConsensusInfo
	PendingActive   []ConsensusInfo
	PendingInactive []ConsensusInfo
}

// RegistrationParams describes a new validator.
type RegistrationParams struct {
	ConsensusPublicKey        []byte
	ConsensusAddress          thor.Bytes32
	Moniker                   string
	Commission                Commission
	Operator                  thor.Address // defaults to the validator
	Beneficiary               thor.Address // defaults to the validator
	ValidatorNetworkAddresses []byte
	FullnodeNetworkAddresses  []byte
}

// GenesisParams seeds the initial active set. All arrays must have the same length.
type GenesisParams struct {
	ValidatorAddresses        []thor.Address
	ConsensusPublicKeys       [][]byte
	VotingPowers              []*big.Int
	ValidatorNetworkAddresses [][]byte
	FullnodeNetworkAddresses  [][]byte
	ConsensusAddresses        []thor.Bytes32
}
