// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"bytes"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/params"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/randomness"
)

// StakeParams mirrors params.Config. Amounts are whole tokens, durations microseconds.
type StakeParams struct {
	MinValidatorStake        string `yaml:"minValidatorStake"`
	MaximumStake             string `yaml:"maximumStake"`
	MinDelegationStake       string `yaml:"minDelegationStake"`
	RecurringLockupDuration  uint64 `yaml:"recurringLockupDuration"`
	VotingPowerIncreaseLimit uint64 `yaml:"votingPowerIncreaseLimit"`
	MaxCommissionRate        uint64 `yaml:"maxCommissionRate"`
	CommissionUpdateCooldown uint64 `yaml:"commissionUpdateCooldown"`
	AllowValidatorSetChange  bool   `yaml:"allowValidatorSetChange"`
}

// RandomnessParams selects the randomness variant. Thresholds are fractions such as "2/3".
type RandomnessParams struct {
	Variant                  string `yaml:"variant"` // off, v1 or v2
	SecrecyThreshold         string `yaml:"secrecyThreshold"`
	ReconstructionThreshold  string `yaml:"reconstructionThreshold"`
	FastPathSecrecyThreshold string `yaml:"fastPathSecrecyThreshold"`
}

// Account is a genesis balance, in whole tokens.
type Account struct {
	Address string `yaml:"address"`
	Balance string `yaml:"balance"`
}

// ChainParams is the YAML chain configuration applied at genesis.
type ChainParams struct {
	LaunchTime             uint64            `yaml:"launchTime"` // µs
	EpochIntervalMicrosecs uint64            `yaml:"epochIntervalMicrosecs"`
	Stake                  *StakeParams      `yaml:"stake"`
	Randomness             *RandomnessParams `yaml:"randomness"`
	Accounts               []Account         `yaml:"accounts"`
}

// LoadChainParams reads a YAML chain configuration.
func LoadChainParams(path string) (*ChainParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read chain params")
	}
	return ParseChainParams(data)
}

// ParseChainParams decodes a YAML chain configuration. Unknown keys are rejected.
func ParseChainParams(data []byte) (*ChainParams, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p ChainParams
	if err := dec.Decode(&p); err != nil {
		return nil, errors.Wrap(err, "decode chain params")
	}
	return &p, nil
}

// StakeConfig returns the staking parameters, the defaults when none are given.
func (p *ChainParams) StakeConfig() (*params.Config, error) {
	if p.Stake == nil {
		return params.DefaultConfig(), nil
	}
	s := p.Stake
	cfg := &params.Config{
		RecurringLockupDuration:  s.RecurringLockupDuration,
		VotingPowerIncreaseLimit: s.VotingPowerIncreaseLimit,
		MaxCommissionRate:        s.MaxCommissionRate,
		CommissionUpdateCooldown: s.CommissionUpdateCooldown,
		AllowValidatorSetChange:  s.AllowValidatorSetChange,
	}
	for _, f := range []struct {
		name string
		in   string
		out  **big.Int
	}{
		{"minValidatorStake", s.MinValidatorStake, &cfg.MinValidatorStake},
		{"maximumStake", s.MaximumStake, &cfg.MaximumStake},
		{"minDelegationStake", s.MinDelegationStake, &cfg.MinDelegationStake},
	} {
		v, err := ToWei(f.in)
		if err != nil {
			return nil, errors.Wrap(err, f.name)
		}
		*f.out = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseFraction parses "num/den" into a 64.64 fixed-point value.
func ParseFraction(s string) (*uint256.Int, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return nil, errors.Errorf("invalid fraction %q", s)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "fraction %q", s)
	}
	d, err := strconv.ParseUint(strings.TrimSpace(den), 10, 64)
	if err != nil || d == 0 {
		return nil, errors.Errorf("invalid denominator in %q", s)
	}
	return randomness.Fraction(n, d), nil
}

// RandomnessConfig returns the genesis randomness configuration, the default when none is given.
func (p *ChainParams) RandomnessConfig() (*randomness.Config, error) {
	r := p.Randomness
	if r == nil {
		return randomness.DefaultConfig(), nil
	}

	var cfg *randomness.Config
	switch strings.ToLower(r.Variant) {
	case "off":
		return randomness.Off(), nil
	case "v1":
		secrecy, err := ParseFraction(r.SecrecyThreshold)
		if err != nil {
			return nil, err
		}
		reconstruction, err := ParseFraction(r.ReconstructionThreshold)
		if err != nil {
			return nil, err
		}
		cfg = randomness.NewV1(secrecy, reconstruction)
	case "v2", "":
		secrecy, err := ParseFraction(r.SecrecyThreshold)
		if err != nil {
			return nil, err
		}
		reconstruction, err := ParseFraction(r.ReconstructionThreshold)
		if err != nil {
			return nil, err
		}
		fastPath, err := ParseFraction(r.FastPathSecrecyThreshold)
		if err != nil {
			return nil, err
		}
		cfg = randomness.NewV2(secrecy, reconstruction, fastPath)
	default:
		return nil, errors.Errorf("unknown randomness variant %q", r.Variant)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
