// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package consensus

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/dkg"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/randomness"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/validator"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

type Epoch struct {
	Epoch              uint64 `json:"epoch"`
	LastTransitionTime uint64 `json:"lastTransitionTime"`
	IntervalMicrosecs  uint64 `json:"epochIntervalMicrosecs"`
	Now                uint64 `json:"nowMicrosecs"`
	CanTransition      bool   `json:"canTransition"`
	Reconfiguring      bool   `json:"dkgInProgress"`
}

// RandomnessConfig renders thresholds as decimal 64.64 fixed-point values.
type RandomnessConfig struct {
	Variant                  string `json:"variant"`
	SecrecyThreshold         string `json:"secrecyThreshold,omitempty"`
	ReconstructionThreshold  string `json:"reconstructionThreshold,omitempty"`
	FastPathSecrecyThreshold string `json:"fastPathSecrecyThreshold,omitempty"`
}

type Randomness struct {
	Current *RandomnessConfig `json:"current"`
	Pending *RandomnessConfig `json:"pending"`
}

func dec(v *uint256.Int) string {
	if v == nil {
		return ""
	}
	return v.Dec()
}

func convertRandomness(c *randomness.Config) *RandomnessConfig {
	if c == nil {
		return nil
	}
	out := &RandomnessConfig{Variant: randomness.VariantName(c.Variant)}
	if c.Variant != randomness.VariantOff {
		out.SecrecyThreshold = dec(c.SecrecyThreshold)
		out.ReconstructionThreshold = dec(c.ReconstructionThreshold)
		out.FastPathSecrecyThreshold = dec(c.FastPathSecrecyThreshold)
	}
	return out
}

type Validator struct {
	Address                   thor.Address          `json:"address"`
	ConsensusPublicKey        hexutil.Bytes         `json:"consensusPublicKey"`
	ConsensusAddress          thor.Bytes32          `json:"consensusAddress"`
	VotingPower               *math.HexOrDecimal256 `json:"votingPower"`
	ValidatorNetworkAddresses hexutil.Bytes         `json:"validatorNetworkAddresses"`
	FullnodeNetworkAddresses  hexutil.Bytes         `json:"fullnodeNetworkAddresses"`
}

func convertValidators(infos []validator.ConsensusInfo) []Validator {
	out := make([]Validator, 0, len(infos))
	for _, info := range infos {
		out = append(out, Validator{
			Address:                   info.Address,
			ConsensusPublicKey:        info.ConsensusPublicKey,
			ConsensusAddress:          info.ConsensusAddress,
			VotingPower:               (*math.HexOrDecimal256)(info.VotingPower),
			ValidatorNetworkAddresses: info.ValidatorNetworkAddresses,
			FullnodeNetworkAddresses:  info.FullnodeNetworkAddresses,
		})
	}
	return out
}

type Session struct {
	DealerEpoch      uint64            `json:"dealerEpoch"`
	StartTime        uint64            `json:"startTimeMicrosecs"`
	RandomnessConfig *RandomnessConfig `json:"randomnessConfig"`
	DealerValidators []Validator       `json:"dealerValidators"`
	TargetValidators []Validator       `json:"targetValidators"`
	Transcript       hexutil.Bytes     `json:"transcript"`
}

func convertSession(s *dkg.Session) *Session {
	if s == nil {
		return nil
	}
	return &Session{
		DealerEpoch:      s.Metadata.DealerEpoch,
		StartTime:        s.StartTime,
		RandomnessConfig: convertRandomness(s.Metadata.RandomnessConfig),
		DealerValidators: convertValidators(s.Metadata.DealerValidators),
		TargetValidators: convertValidators(s.Metadata.TargetValidators),
		Transcript:       s.Transcript,
	}
}

type DKG struct {
	InProgress    *Session `json:"inProgress"`
	LastCompleted *Session `json:"lastCompleted"`
}
