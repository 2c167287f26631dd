// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/stakecredit"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/validator"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// Validator is the API view of a registry entry.
type Validator struct {
	Address                   thor.Address          `json:"address"`
	Moniker                   string                `json:"moniker"`
	Status                    string                `json:"status"`
	Index                     uint64                `json:"index"`
	VotingPower               *math.HexOrDecimal256 `json:"votingPower"`
	ConsensusPublicKey        hexutil.Bytes         `json:"consensusPublicKey"`
	ConsensusAddress          thor.Bytes32          `json:"consensusAddress"`
	Operator                  thor.Address          `json:"operator"`
	Beneficiary               thor.Address          `json:"beneficiary"`
	Commission                validator.Commission  `json:"commission"`
	ValidatorNetworkAddresses hexutil.Bytes         `json:"validatorNetworkAddresses"`
	FullnodeNetworkAddresses  hexutil.Bytes         `json:"fullnodeNetworkAddresses"`
	StakeCredit               thor.Address          `json:"stakeCredit"`
}

func bigOrZero(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

func convertValidator(v *validator.Validator) *Validator {
	return &Validator{
		Address:                   v.Address,
		Moniker:                   v.Moniker,
		Status:                    validator.StatusName(v.Status),
		Index:                     v.Index,
		VotingPower:               bigOrZero(v.VotingPower),
		ConsensusPublicKey:        v.ConsensusPublicKey,
		ConsensusAddress:          v.ConsensusAddress,
		Operator:                  v.Operator,
		Beneficiary:               v.Beneficiary,
		Commission:                v.Commission,
		ValidatorNetworkAddresses: v.ValidatorNetworkAddresses,
		FullnodeNetworkAddresses:  v.FullnodeNetworkAddresses,
		StakeCredit:               v.StakeCredit,
	}
}

// ValidatorSet is the API view of the validator set partition.
type ValidatorSet struct {
	Active            []thor.Address        `json:"active"`
	PendingActive     []thor.Address        `json:"pendingActive"`
	PendingInactive   []thor.Address        `json:"pendingInactive"`
	TotalVotingPower  *math.HexOrDecimal256 `json:"totalVotingPower"`
	TotalJoiningPower *math.HexOrDecimal256 `json:"totalJoiningPower"`
}

// ValidatorList is the response of the list endpoint.
type ValidatorList struct {
	Set        *ValidatorSet `json:"set"`
	Validators []*Validator  `json:"validators"`
}

func convertSet(s *validator.ValidatorSet) *ValidatorSet {
	nonNil := func(list []thor.Address) []thor.Address {
		if list == nil {
			return []thor.Address{}
		}
		return list
	}
	return &ValidatorSet{
		Active:            nonNil(s.Active),
		PendingActive:     nonNil(s.PendingActive),
		PendingInactive:   nonNil(s.PendingInactive),
		TotalVotingPower:  bigOrZero(s.TotalVotingPower),
		TotalJoiningPower: bigOrZero(s.TotalJoiningPower),
	}
}

// Stake is the API view of a stake ledger.
type Stake struct {
	Ledger          thor.Address          `json:"ledger"`
	Active          *math.HexOrDecimal256 `json:"active"`
	Inactive        *math.HexOrDecimal256 `json:"inactive"`
	PendingActive   *math.HexOrDecimal256 `json:"pendingActive"`
	PendingInactive *math.HexOrDecimal256 `json:"pendingInactive"`
	TotalShares     *math.HexOrDecimal256 `json:"totalShares"`
	UnlockRequest   *UnlockRequest        `json:"unlockRequest"`
	Holder          *Holder               `json:"holder,omitempty"`
}

// UnlockRequest is the outstanding unlock request of a ledger.
type UnlockRequest struct {
	Holder    thor.Address          `json:"holder"`
	Timestamp uint64                `json:"timestamp"`
	Shares    *math.HexOrDecimal256 `json:"shares"`
	Value     *math.HexOrDecimal256 `json:"value"`
}

// Holder is the position of one holder in a ledger.
type Holder struct {
	Address   thor.Address          `json:"address"`
	Shares    *math.HexOrDecimal256 `json:"shares"`
	Value     *math.HexOrDecimal256 `json:"value"`
	Claimable *math.HexOrDecimal256 `json:"claimable"`
}

func convertStake(ledger thor.Address, st *stakecredit.Stake, req *stakecredit.UnlockRequest) *Stake {
	out := &Stake{
		Ledger:          ledger,
		Active:          bigOrZero(st.Active),
		Inactive:        bigOrZero(st.Inactive),
		PendingActive:   bigOrZero(st.PendingActive),
		PendingInactive: bigOrZero(st.PendingInactive),
		TotalShares:     bigOrZero(st.TotalShares),
	}
	if !req.IsEmpty() {
		out.UnlockRequest = &UnlockRequest{
			Holder:    req.Holder,
			Timestamp: req.Timestamp,
			Shares:    bigOrZero(req.Shares),
			Value:     bigOrZero(req.Value),
		}
	}
	return out
}
