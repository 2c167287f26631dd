// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package params implements the `StakeConfig` contract: staking parameters updatable by governance.
package params

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/solidity"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// Parameter keys accepted by UpdateParam.
const (
	KeyMinValidatorStake        = "minValidatorStake"
	KeyMaximumStake             = "maximumStake"
	KeyMinDelegationStake       = "minDelegationStake"
	KeyRecurringLockupDuration  = "recurringLockupDuration"
	KeyVotingPowerIncreaseLimit = "votingPowerIncreaseLimit"
	KeyMaxCommissionRate        = "maxCommissionRate"
	KeyCommissionUpdateCooldown = "commissionUpdateCooldown"
	KeyAllowValidatorSetChange  = "allowValidatorSetChange"
)

const (
	// MaxBps is 100% in basis points.
	MaxBps = 10_000
	// MaxVotingPowerIncreaseLimit caps the per-epoch voting power growth, in percent.
	MaxVotingPowerIncreaseLimit = 50
)

var (
	logger = log.WithContext("pkg", "params")

	slotInitialized = thor.BytesToBytes32([]byte("stake-config-initialized"))

	ErrUnknownParam   = reverts.New(reverts.Validation, "UnknownParam", "unknown parameter key")
	ErrInvalidValue   = reverts.New(reverts.Validation, "InvalidValue", "invalid parameter value")
	ErrAlreadyInit    = reverts.New(reverts.Precondition, "AlreadyInitialized", "stake config already initialized")
	ErrNotInitialized = reverts.New(reverts.Precondition, "NotInitialized", "stake config not initialized")
)

var ether = big.NewInt(1e18)

// Config is a snapshot of all staking parameters.
type Config struct {
	MinValidatorStake        *big.Int
	MaximumStake             *big.Int
	MinDelegationStake       *big.Int
	RecurringLockupDuration  uint64 // unbonding period, µs
	VotingPowerIncreaseLimit uint64 // percent of total voting power
	MaxCommissionRate        uint64 // bps
	CommissionUpdateCooldown uint64 // µs
	AllowValidatorSetChange  bool
}

// DefaultConfig returns the parameters used when genesis does not override them.
func DefaultConfig() *Config {
	return &Config{
		MinValidatorStake:        new(big.Int).Mul(big.NewInt(1_000), ether),
		MaximumStake:             new(big.Int).Mul(big.NewInt(1_000_000_000), ether),
		MinDelegationStake:       new(big.Int).Set(ether),
		RecurringLockupDuration:  14 * 24 * 3600 * 1_000_000,
		VotingPowerIncreaseLimit: 20,
		MaxCommissionRate:        5_000,
		CommissionUpdateCooldown: 24 * 3600 * 1_000_000,
		AllowValidatorSetChange:  true,
	}
}

// Params binder of `StakeConfig` contract.
type Params struct {
	sctx        *solidity.Context
	initialized *solidity.Value[bool]
}

func New(addr thor.Address, state *state.State) *Params {
	sctx := solidity.NewContext(addr, state)
	return &Params{
		sctx:        sctx,
		initialized: solidity.NewValue[bool](sctx, slotInitialized),
	}
}

func slotOf(key string) thor.Bytes32 {
	return thor.Blake2b([]byte("stake-config"), []byte(key))
}

// Get native way to get param.
func (p *Params) Get(key string) (*big.Int, error) {
	return solidity.NewUint256(p.sctx, slotOf(key)).Get()
}

// Set native way to set param, bypassing validation.
func (p *Params) Set(key string, value *big.Int) {
	solidity.NewUint256(p.sctx, slotOf(key)).Set(value)
}

// Initialize stores the genesis parameters once.
func (p *Params) Initialize(cfg *Config) error {
	done, err := p.initialized.Get()
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInit
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	for key, v := range cfg.values() {
		p.Set(key, v)
	}
	return p.initialized.Set(true)
}

// Config reads all parameters.
func (p *Params) Config() (*Config, error) {
	vals := make(map[string]*big.Int, len(validators))
	for key := range validators {
		v, err := p.Get(key)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", key)
		}
		vals[key] = v
	}
	return fromValues(vals), nil
}

// UpdateParam decodes a 32-byte big-endian word and applies it to the named parameter.
func (p *Params) UpdateParam(caller thor.Address, key string, value []byte) error {
	if err := acl.Require(caller, acl.Governance); err != nil {
		return err
	}
	done, err := p.initialized.Get()
	if err != nil {
		return err
	}
	if !done {
		return ErrNotInitialized
	}
	validate, ok := validators[key]
	if !ok {
		return errors.Wrapf(ErrUnknownParam, "key %q", key)
	}
	if len(value) != 32 {
		return errors.Wrapf(ErrInvalidValue, "%s: expected 32 bytes, got %d", key, len(value))
	}
	v := new(big.Int).SetBytes(value)

	cfg, err := p.Config()
	if err != nil {
		return err
	}
	if err := validate(v, cfg); err != nil {
		return errors.Wrapf(ErrInvalidValue, "%s: %v", key, err)
	}

	p.Set(key, v)
	p.sctx.Emit("ParamUpdated", map[string]any{"key": key, "value": v.String()})
	logger.Info("stake config updated", "key", key, "value", v)
	return nil
}

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

func fitsUint64(v *big.Int, _ *Config) error {
	if v.Cmp(maxUint64) > 0 {
		return errors.New("exceeds uint64")
	}
	return nil
}

var validators = map[string]func(v *big.Int, cfg *Config) error{
	KeyMinValidatorStake: func(v *big.Int, cfg *Config) error {
		if v.Sign() == 0 || v.Cmp(cfg.MaximumStake) > 0 {
			return errors.New("must be positive and not above maximum stake")
		}
		return nil
	},
	KeyMaximumStake: func(v *big.Int, cfg *Config) error {
		if v.Cmp(cfg.MinValidatorStake) < 0 {
			return errors.New("below minimum validator stake")
		}
		return nil
	},
	KeyMinDelegationStake: func(v *big.Int, _ *Config) error {
		if v.Sign() == 0 {
			return errors.New("must be positive")
		}
		return nil
	},
	KeyRecurringLockupDuration: func(v *big.Int, cfg *Config) error {
		if v.Sign() == 0 {
			return errors.New("must be positive")
		}
		return fitsUint64(v, cfg)
	},
	KeyVotingPowerIncreaseLimit: func(v *big.Int, _ *Config) error {
		if v.Sign() == 0 || v.Cmp(big.NewInt(MaxVotingPowerIncreaseLimit)) > 0 {
			return errors.Errorf("must be within 1..%d", MaxVotingPowerIncreaseLimit)
		}
		return nil
	},
	KeyMaxCommissionRate: func(v *big.Int, _ *Config) error {
		if v.Cmp(big.NewInt(MaxBps)) > 0 {
			return errors.Errorf("must not exceed %d bps", MaxBps)
		}
		return nil
	},
	KeyCommissionUpdateCooldown: fitsUint64,
	KeyAllowValidatorSetChange: func(v *big.Int, _ *Config) error {
		if v.Cmp(big.NewInt(1)) > 0 {
			return errors.New("must be 0 or 1")
		}
		return nil
	},
}

func (c *Config) values() map[string]*big.Int {
	var allow int64
	if c.AllowValidatorSetChange {
		allow = 1
	}
	return map[string]*big.Int{
		KeyMinValidatorStake:        c.MinValidatorStake,
		KeyMaximumStake:             c.MaximumStake,
		KeyMinDelegationStake:       c.MinDelegationStake,
		KeyRecurringLockupDuration:  new(big.Int).SetUint64(c.RecurringLockupDuration),
		KeyVotingPowerIncreaseLimit: new(big.Int).SetUint64(c.VotingPowerIncreaseLimit),
		KeyMaxCommissionRate:        new(big.Int).SetUint64(c.MaxCommissionRate),
		KeyCommissionUpdateCooldown: new(big.Int).SetUint64(c.CommissionUpdateCooldown),
		KeyAllowValidatorSetChange:  big.NewInt(allow),
	}
}

// Validate checks a whole config the same way UpdateParam checks a single key.
func (c *Config) Validate() error {
	for key, v := range c.values() {
		if v == nil {
			return errors.Wrapf(ErrInvalidValue, "%s: missing", key)
		}
	}
	for key, v := range c.values() {
		if err := validators[key](v, c); err != nil {
			return errors.Wrapf(ErrInvalidValue, "%s: %v", key, err)
		}
	}
	return nil
}

func fromValues(vals map[string]*big.Int) *Config {
	return &Config{
		MinValidatorStake:        vals[KeyMinValidatorStake],
		MaximumStake:             vals[KeyMaximumStake],
		MinDelegationStake:       vals[KeyMinDelegationStake],
		RecurringLockupDuration:  vals[KeyRecurringLockupDuration].Uint64(),
		VotingPowerIncreaseLimit: vals[KeyVotingPowerIncreaseLimit].Uint64(),
		MaxCommissionRate:        vals[KeyMaxCommissionRate].Uint64(),
		CommissionUpdateCooldown: vals[KeyCommissionUpdateCooldown].Uint64(),
		AllowValidatorSetChange:  vals[KeyAllowValidatorSetChange].Sign() != 0,
	}
}
