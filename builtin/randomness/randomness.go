// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package randomness implements the `RandomnessConfig` contract: the versioned DKG threshold
// configuration, rotated only at epoch boundaries.
package randomness

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/solidity"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

type Variant = uint8

const (
	VariantOff = Variant(iota)
	VariantV1
	VariantV2
)

// VariantName returns a readable variant.
func VariantName(v Variant) string {
	switch v {
	case VariantOff:
		return "off"
	case VariantV1:
		return "v1"
	case VariantV2:
		return "v2"
	default:
		return "unknown"
	}
}

var (
	logger = log.WithContext("pkg", "randomness")

	slotCurrent     = thor.BytesToBytes32([]byte("current-config"))
	slotPending     = thor.BytesToBytes32([]byte("pending-config"))
	slotInitialized = thor.BytesToBytes32([]byte("randomness-initialized"))

	ErrInvalidConfigVariant = reverts.New(reverts.Validation, "InvalidConfigVariant", "randomness config violates its variant's thresholds")
	ErrAlreadyInitialized   = reverts.New(reverts.Precondition, "AlreadyInitialized", "randomness config already initialized")
	ErrNotInitialized       = reverts.New(reverts.Precondition, "NotInitialized", "randomness config not initialized")
)

// One is 1.0 in the 64.64 fixed-point format of thresholds.
var One = new(uint256.Int).Lsh(uint256.NewInt(1), 64)

// Fraction returns num/den as a 64.64 fixed-point value.
func Fraction(num, den uint64) *uint256.Int {
	v := new(uint256.Int).Lsh(uint256.NewInt(num), 64)
	return v.Div(v, uint256.NewInt(den))
}

// Config is the randomness configuration. Thresholds are 64.64 fixed-point fractions of the
// total voting power; V1 ignores FastPathSecrecyThreshold and Off ignores all of them.
type Config struct {
	Variant                  Variant
	SecrecyThreshold         *uint256.Int
	ReconstructionThreshold  *uint256.Int
	FastPathSecrecyThreshold *uint256.Int
}

// Off returns the config that disables randomness.
func Off() *Config {
	return &Config{Variant: VariantOff}
}

// NewV1 returns a V1 config.
func NewV1(secrecy, reconstruction *uint256.Int) *Config {
	return &Config{Variant: VariantV1, SecrecyThreshold: secrecy, ReconstructionThreshold: reconstruction}
}

// NewV2 returns a V2 config.
func NewV2(secrecy, reconstruction, fastPath *uint256.Int) *Config {
	return &Config{
		Variant:                  VariantV2,
		SecrecyThreshold:         secrecy,
		ReconstructionThreshold:  reconstruction,
		FastPathSecrecyThreshold: fastPath,
	}
}

// DefaultConfig is V2 with secrecy 1/2 and reconstruction and fast path 2/3.
func DefaultConfig() *Config {
	return NewV2(Fraction(1, 2), Fraction(2, 3), Fraction(2, 3))
}

func zeroIfNil(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

func (c *Config) normalize() *Config {
	c.SecrecyThreshold = zeroIfNil(c.SecrecyThreshold)
	c.ReconstructionThreshold = zeroIfNil(c.ReconstructionThreshold)
	c.FastPathSecrecyThreshold = zeroIfNil(c.FastPathSecrecyThreshold)
	return c
}

// Validate checks the threshold ordering required by the variant.
func (c *Config) Validate() error {
	c.normalize()
	switch c.Variant {
	case VariantOff:
		return nil
	case VariantV1, VariantV2:
	default:
		return errors.Wrapf(ErrInvalidConfigVariant, "variant %d", c.Variant)
	}
	if c.ReconstructionThreshold.Cmp(c.SecrecyThreshold) <= 0 {
		return errors.Wrap(ErrInvalidConfigVariant, "reconstruction threshold must exceed secrecy threshold")
	}
	if c.ReconstructionThreshold.Cmp(One) > 0 {
		return errors.Wrap(ErrInvalidConfigVariant, "reconstruction threshold above one")
	}
	if c.Variant == VariantV2 {
		if c.FastPathSecrecyThreshold.Cmp(c.SecrecyThreshold) <= 0 {
			return errors.Wrap(ErrInvalidConfigVariant, "fast path threshold must exceed secrecy threshold")
		}
		if c.FastPathSecrecyThreshold.Cmp(One) > 0 {
			return errors.Wrap(ErrInvalidConfigVariant, "fast path threshold above one")
		}
	}
	return nil
}

// RandomnessConfig implements native methods of the `RandomnessConfig` contract.
type RandomnessConfig struct {
	sctx        *solidity.Context
	current     *solidity.Value[*Config]
	pending     *solidity.Value[*Config]
	initialized *solidity.Value[bool]
}

func New(addr thor.Address, state *state.State) *RandomnessConfig {
	sctx := solidity.NewContext(addr, state)
	return &RandomnessConfig{
		sctx:        sctx,
		current:     solidity.NewValue[*Config](sctx, slotCurrent),
		pending:     solidity.NewValue[*Config](sctx, slotPending),
		initialized: solidity.NewValue[bool](sctx, slotInitialized),
	}
}

// Initialize sets the genesis config.
func (r *RandomnessConfig) Initialize(caller thor.Address, cfg *Config) error {
	if err := acl.Require(caller, acl.Genesis); err != nil {
		return err
	}
	done, err := r.initialized.Get()
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialized
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := r.current.Set(cfg); err != nil {
		return err
	}
	logger.Info("randomness config initialized", "variant", VariantName(cfg.Variant))
	return r.initialized.Set(true)
}

func (r *RandomnessConfig) requireInitialized() error {
	done, err := r.initialized.Get()
	if err != nil {
		return err
	}
	if !done {
		return ErrNotInitialized
	}
	return nil
}

// SetForNextEpoch stages cfg to take effect at the next epoch, replacing any staged config.
// An invalid config is rejected and nothing is staged.
func (r *RandomnessConfig) SetForNextEpoch(caller thor.Address, cfg *Config) error {
	if err := acl.Require(caller, acl.Governance); err != nil {
		return err
	}
	if err := r.requireInitialized(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		logger.Info("rejected randomness config", "variant", VariantName(cfg.Variant), "error", err)
		return err
	}
	if err := r.pending.Set(cfg); err != nil {
		return err
	}
	r.sctx.Emit("PendingRandomnessConfigSet", map[string]any{"variant": VariantName(cfg.Variant)})
	logger.Info("staged randomness config", "variant", VariantName(cfg.Variant))
	return nil
}

// OnNewEpoch promotes the staged config, if any, to current.
func (r *RandomnessConfig) OnNewEpoch(caller thor.Address, epoch uint64) error {
	if err := acl.Require(caller, acl.Reconfiguration); err != nil {
		return err
	}
	pending, ok, err := r.Pending()
	if err != nil || !ok {
		return err
	}
	if err := r.current.Set(pending); err != nil {
		return err
	}
	r.pending.Clear()
	r.sctx.Emit("RandomnessConfigApplied", map[string]any{"epoch": epoch, "variant": VariantName(pending.Variant)})
	logger.Info("randomness config rotated", "epoch", epoch, "variant", VariantName(pending.Variant))
	return nil
}

// Current returns the config in effect.
func (r *RandomnessConfig) Current() (*Config, error) {
	cfg, err := r.current.Get()
	if err != nil {
		return nil, err
	}
	return cfg.normalize(), nil
}

// Pending returns the staged config.
func (r *RandomnessConfig) Pending() (*Config, bool, error) {
	ok, err := r.pending.Exists()
	if err != nil || !ok {
		return nil, false, err
	}
	cfg, err := r.pending.Get()
	if err != nil {
		return nil, false, err
	}
	return cfg.normalize(), true, nil
}

// Enabled reports whether the current config produces randomness.
func (r *RandomnessConfig) Enabled() (bool, error) {
	cfg, err := r.Current()
	if err != nil {
		return false, err
	}
	return cfg.Variant != VariantOff, nil
}
