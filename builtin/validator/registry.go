// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package validator implements the `ValidatorManager` contract: validator identities, their
// status state machine and the validator set partition rebuilt at every epoch.
package validator

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/params"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/solidity"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/stakecredit"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

const maxMonikerLength = 64

var (
	logger = log.WithContext("pkg", "validator")

	MaxValidatorSetSize = solidity.NewConfigVariable("max-validator-set-size", 65536)

	ErrAlreadyInitialized              = reverts.New(reverts.Precondition, "AlreadyInitialized", "validator manager already initialized")
	ErrNotInitialized                  = reverts.New(reverts.Precondition, "NotInitialized", "validator manager not initialized")
	ErrArrayLengthMismatch             = reverts.New(reverts.Validation, "ArrayLengthMismatch", "genesis arrays differ in length")
	ErrEmptyValidatorSet               = reverts.New(reverts.Validation, "EmptyValidatorSet", "genesis needs at least one validator")
	ErrAlreadyExists                   = reverts.New(reverts.Validation, "AlreadyExists", "validator identity already registered")
	ErrValidatorNotExists              = reverts.New(reverts.Precondition, "ValidatorNotExists", "validator is not registered")
	ErrInvalidMoniker                  = reverts.New(reverts.Validation, "InvalidMoniker", "moniker is empty or too long")
	ErrInvalidConsensusKey             = reverts.New(reverts.Validation, "InvalidConsensusKey", "consensus public key is empty")
	ErrInvalidNetworkAddresses         = reverts.New(reverts.Validation, "InvalidNetworkAddresses", "network addresses failed to decode")
	ErrInvalidCommission               = reverts.New(reverts.Validation, "InvalidCommission", "commission terms are invalid")
	ErrUpdateTooFrequently             = reverts.New(reverts.Precondition, "UpdateTooFrequently", "commission updated within the cooldown")
	ErrInvalidStatus                   = reverts.New(reverts.Precondition, "InvalidStatus", "operation not allowed in the validator status")
	ErrLastValidatorCannotLeave        = reverts.New(reverts.Precondition, "LastValidatorCannotLeave", "the last active validator cannot leave")
	ErrValidatorSetChangeDisabled      = reverts.New(reverts.Precondition, "ValidatorSetChangeDisabled", "validator set changes are disabled")
	ErrValidatorSetFull                = reverts.New(reverts.Economic, "ValidatorSetFull", "validator set reached its size limit")
	ErrInsufficientStake               = reverts.New(reverts.Economic, "InsufficientStake", "stake below the minimum")
	ErrVotingPowerIncreaseExceedsLimit = reverts.New(reverts.Economic, "VotingPowerIncreaseExceedsLimit", "joining power exceeds the per-epoch limit")
	ErrNotValidatorOwner               = reverts.New(reverts.Authorization, "NotValidatorOwner", "caller is not the validator")
	ErrInvalidOperator                 = reverts.New(reverts.Validation, "InvalidOperator", "operator must not be zero")
	ErrReconfigurationInProgress       = reverts.New(reverts.Precondition, "ReconfigurationInProgress", "validator set is frozen during reconfiguration")
)

// StakeConfig provides the staking parameters.
type StakeConfig interface {
	Config() (*params.Config, error)
}

// Clock provides the on-chain time.
type Clock interface {
	NowMicroseconds() (uint64, error)
}

// Reconfiguration reports whether a DKG session for the next validator set is open.
type Reconfiguration interface {
	InProgress() (bool, error)
}

// AddressCodec validates opaque network address blobs without the registry interpreting them.
type AddressCodec interface {
	Validate(blob []byte) error
}

// OpaqueCodec accepts any blob up to MaxLen bytes.
type OpaqueCodec struct {
	MaxLen int
}

func (c OpaqueCodec) Validate(blob []byte) error {
	if c.MaxLen > 0 && len(blob) > c.MaxLen {
		return errors.Errorf("blob of %d bytes exceeds %d", len(blob), c.MaxLen)
	}
	return nil
}

// Registry implements native methods of the `ValidatorManager` contract.
type Registry struct {
	sctx    *solidity.Context
	storage *storage
	params  StakeConfig
	clock   Clock
	codec   AddressCodec
	reconf  Reconfiguration
}

// New creates the registry. A nil codec accepts any network address blob. A nil reconf never
// freezes the set.
func New(addr thor.Address, state *state.State, params StakeConfig, clock Clock, codec AddressCodec, reconf Reconfiguration) *Registry {
	sctx := solidity.NewContext(addr, state)

	// debug overrides for testing
	MaxValidatorSetSize.Override(sctx)

	if codec == nil {
		codec = OpaqueCodec{}
	}
	return &Registry{
		sctx:    sctx,
		storage: newStorage(sctx),
		params:  params,
		clock:   clock,
		codec:   codec,
		reconf:  reconf,
	}
}

// Ledger binds the stake ledger of a validator.
func (r *Registry) Ledger(validator thor.Address) *stakecredit.Ledger {
	return stakecredit.New(validator, r.sctx.State())
}

func (r *Registry) requireInitialized() error {
	done, err := r.storage.initialized.Get()
	if err != nil {
		return err
	}
	if !done {
		return ErrNotInitialized
	}
	return nil
}

// requireStable rejects changes to the validator set, stakes and consensus info while the
// target set of the next epoch is being dealt.
func (r *Registry) requireStable() error {
	if r.reconf == nil {
		return nil
	}
	busy, err := r.reconf.InProgress()
	if err != nil {
		return err
	}
	if busy {
		return ErrReconfigurationInProgress
	}
	return nil
}

func (r *Registry) getExisting(addr thor.Address) (*Validator, error) {
	v, err := r.storage.getValidator(addr)
	if err != nil {
		return nil, err
	}
	if v.IsEmpty() {
		return nil, errors.Wrapf(ErrValidatorNotExists, "validator %v", addr)
	}
	return v, nil
}

func (r *Registry) setStatus(v *Validator, status Status) {
	if v.Status == status {
		return
	}
	r.sctx.Emit("ValidatorStatusChanged", map[string]any{
		"validator": v.Address,
		"from":      StatusName(v.Status),
		"to":        StatusName(status),
	})
	v.Status = status
}

// Initialize seeds the genesis validator set. Every genesis validator is active with the given
// voting power, which is minted into its stake ledger.
func (r *Registry) Initialize(caller thor.Address, p *GenesisParams) error {
	if err := acl.Require(caller, acl.Genesis); err != nil {
		return err
	}
	done, err := r.storage.initialized.Get()
	if err != nil {
		return err
	}
	if done {
		return ErrAlreadyInitialized
	}
	n := len(p.ValidatorAddresses)
	for _, l := range []int{
		len(p.ConsensusPublicKeys),
		len(p.VotingPowers),
		len(p.ValidatorNetworkAddresses),
		len(p.FullnodeNetworkAddresses),
		len(p.ConsensusAddresses),
	} {
		if l != n {
			return errors.Wrapf(ErrArrayLengthMismatch, "%d validators, %d entries", n, l)
		}
	}
	if n == 0 {
		return ErrEmptyValidatorSet
	}
	cfg, err := r.params.Config()
	if err != nil {
		return err
	}
	now, err := r.clock.NowMicroseconds()
	if err != nil {
		return err
	}

	set := newValidatorSet()
	for i, addr := range p.ValidatorAddresses {
		v := &Validator{
			Address:            addr,
			ConsensusPublicKey: p.ConsensusPublicKeys[i],
			ConsensusAddress:   p.ConsensusAddresses[i],
			Moniker:            fmt.Sprintf("genesis-%d", i),
			Operator:           addr,
			Beneficiary:        addr,
			Commission: Commission{
				MaxRate:       cfg.MaxCommissionRate,
				MaxChangeRate: cfg.MaxCommissionRate,
			},
			ValidatorNetworkAddresses: p.ValidatorNetworkAddresses[i],
			FullnodeNetworkAddresses:  p.FullnodeNetworkAddresses[i],
			Status:                    StatusActive,
			VotingPower:               new(big.Int).Set(p.VotingPowers[i]),
			Index:                     uint64(i),
			LastCommissionUpdate:      now,
		}
		if err := r.checkIdentity(v); err != nil {
			return err
		}
		if err := r.create(v); err != nil {
			return err
		}

		ledger := r.Ledger(addr)
		if err := r.sctx.State().AddBalance(ledger.Address(), v.VotingPower); err != nil {
			return err
		}
		if err := ledger.Bootstrap(addr, v.VotingPower); err != nil {
			return errors.Wrapf(err, "genesis validator %v", addr)
		}
		set.Active = append(set.Active, addr)
		set.TotalVotingPower.Add(set.TotalVotingPower, v.VotingPower)
	}
	if err := r.storage.setSet(set); err != nil {
		return err
	}

	logger.Info("validator manager initialized", "validators", n, "totalVotingPower", set.TotalVotingPower)
	return r.storage.initialized.Set(true)
}

// checkIdentity rejects address, consensus key and moniker collisions and malformed identity data.
func (r *Registry) checkIdentity(v *Validator) error {
	if len(v.ConsensusPublicKey) == 0 {
		return ErrInvalidConsensusKey
	}
	if len(v.Moniker) == 0 || len(v.Moniker) > maxMonikerLength {
		return errors.Wrapf(ErrInvalidMoniker, "%q", v.Moniker)
	}
	if err := r.codec.Validate(v.ValidatorNetworkAddresses); err != nil {
		return errors.Wrapf(ErrInvalidNetworkAddresses, "validator network addresses: %v", err)
	}
	if err := r.codec.Validate(v.FullnodeNetworkAddresses); err != nil {
		return errors.Wrapf(ErrInvalidNetworkAddresses, "fullnode network addresses: %v", err)
	}

	existing, err := r.storage.getValidator(v.Address)
	if err != nil {
		return err
	}
	if !existing.IsEmpty() {
		return errors.Wrapf(ErrAlreadyExists, "address %v", v.Address)
	}
	owner, err := r.storage.ownerOfKey(v.ConsensusPublicKey)
	if err != nil {
		return err
	}
	if !owner.IsZero() {
		return errors.Wrapf(ErrAlreadyExists, "consensus key owned by %v", owner)
	}
	owner, err = r.storage.ownerOfMoniker(v.Moniker)
	if err != nil {
		return err
	}
	if !owner.IsZero() {
		return errors.Wrapf(ErrAlreadyExists, "moniker %q owned by %v", v.Moniker, owner)
	}
	return nil
}

func (r *Registry) create(v *Validator) error {
	seq, err := r.storage.register(v.Address)
	if err != nil {
		return err
	}
	v.Sequence = seq
	v.StakeCredit = thor.StakeCreditAddress(v.Address)
	if err := r.storage.indexKey(v.ConsensusPublicKey, v.Address); err != nil {
		return err
	}
	if err := r.storage.indexMoniker(v.Moniker, v.Address); err != nil {
		return err
	}
	if err := r.storage.setValidator(v); err != nil {
		return err
	}
	if err := r.Ledger(v.Address).Initialize(v.Address); err != nil {
		return err
	}
	r.sctx.Emit("ValidatorRegistered", map[string]any{
		"validator":   v.Address,
		"moniker":     v.Moniker,
		"operator":    v.Operator,
		"stakeCredit": v.StakeCredit,
	})
	return nil
}

func checkCommission(c Commission, maxCommissionRate uint64) error {
	if c.MaxRate > maxCommissionRate || c.MaxRate > params.MaxBps {
		return errors.Wrapf(ErrInvalidCommission, "max rate %d exceeds %d", c.MaxRate, maxCommissionRate)
	}
	if c.Rate > c.MaxRate {
		return errors.Wrapf(ErrInvalidCommission, "rate %d exceeds max rate %d", c.Rate, c.MaxRate)
	}
	if c.MaxChangeRate > c.MaxRate {
		return errors.Wrapf(ErrInvalidCommission, "max change rate %d exceeds max rate %d", c.MaxChangeRate, c.MaxRate)
	}
	return nil
}

func (r *Registry) checkSetSize(set *ValidatorSet) error {
	if uint64(len(set.Active)+len(set.PendingActive)) >= uint64(MaxValidatorSetSize.Get()) {
		return errors.Wrapf(ErrValidatorSetFull, "limit %d", MaxValidatorSetSize.Get())
	}
	return nil
}

// Register creates a validator in PendingActive status whose stake ledger is seeded with stake
// paid by caller. The validator becomes active at the next epoch.
func (r *Registry) Register(caller thor.Address, p *RegistrationParams, stake *big.Int) error {
	logger.Debug("registering validator", "validator", caller, "moniker", p.Moniker, "stake", stake)

	if err := r.register(caller, p, stake); err != nil {
		logger.Info("register validator failed", "validator", caller, "error", err)
		return err
	}

	logger.Info("registered validator", "validator", caller)
	return nil
}

func (r *Registry) register(caller thor.Address, p *RegistrationParams, stake *big.Int) error {
	if err := r.requireInitialized(); err != nil {
		return err
	}
	if err := r.requireStable(); err != nil {
		return err
	}
	cfg, err := r.params.Config()
	if err != nil {
		return err
	}
	if !cfg.AllowValidatorSetChange {
		return ErrValidatorSetChangeDisabled
	}
	now, err := r.clock.NowMicroseconds()
	if err != nil {
		return err
	}

	v := &Validator{
		Address:                   caller,
		ConsensusPublicKey:        p.ConsensusPublicKey,
		ConsensusAddress:          p.ConsensusAddress,
		Moniker:                   p.Moniker,
		Operator:                  p.Operator,
		Beneficiary:               p.Beneficiary,
		Commission:                p.Commission,
		ValidatorNetworkAddresses: p.ValidatorNetworkAddresses,
		FullnodeNetworkAddresses:  p.FullnodeNetworkAddresses,
		Status:                    StatusPendingActive,
		VotingPower:               new(big.Int),
		LastCommissionUpdate:      now,
	}
	if v.Operator.IsZero() {
		v.Operator = caller
	}
	if v.Beneficiary.IsZero() {
		v.Beneficiary = caller
	}
	if err := r.checkIdentity(v); err != nil {
		return err
	}
	if err := checkCommission(v.Commission, cfg.MaxCommissionRate); err != nil {
		return err
	}
	if stake == nil || stake.Cmp(cfg.MinValidatorStake) < 0 {
		return errors.Wrapf(ErrInsufficientStake, "stake %v, minimum %v", stake, cfg.MinValidatorStake)
	}
	set, err := r.storage.getSet()
	if err != nil {
		return err
	}
	if err := r.checkSetSize(set); err != nil {
		return err
	}
	if err := checkVotingPowerIncrease(set, stake, cfg.VotingPowerIncreaseLimit); err != nil {
		return err
	}

	if err := r.create(v); err != nil {
		return err
	}
	if _, err := r.Ledger(caller).Delegate(caller, caller, stake, cfg.MaximumStake); err != nil {
		return err
	}

	set.PendingActive = append(set.PendingActive, caller)
	set.TotalJoiningPower.Add(set.TotalJoiningPower, stake)
	return r.storage.setSet(set)
}

// Join asks for an inactive validator to re-enter the set at the next epoch. A validator that
// is already pending active is left unchanged.
func (r *Registry) Join(caller, validator thor.Address) error {
	logger.Debug("joining validator set", "validator", validator)

	v, err := r.getExisting(validator)
	if err != nil {
		return err
	}
	if err := acl.RequireOperator(caller, v.Operator); err != nil {
		return err
	}
	if err := r.requireStable(); err != nil {
		return err
	}
	switch v.Status {
	case StatusPendingActive:
		return nil
	case StatusInactive:
	default:
		return errors.Wrapf(ErrInvalidStatus, "cannot join from %s", StatusName(v.Status))
	}

	cfg, err := r.params.Config()
	if err != nil {
		return err
	}
	if !cfg.AllowValidatorSetChange {
		return ErrValidatorSetChangeDisabled
	}
	stake, err := r.Ledger(validator).Stake()
	if err != nil {
		return err
	}
	power := stake.Bonded()
	if power.Cmp(cfg.MinValidatorStake) < 0 {
		return errors.Wrapf(ErrInsufficientStake, "bonded %v, minimum %v", power, cfg.MinValidatorStake)
	}
	set, err := r.storage.getSet()
	if err != nil {
		return err
	}
	if err := r.checkSetSize(set); err != nil {
		return err
	}
	if err := checkVotingPowerIncrease(set, power, cfg.VotingPowerIncreaseLimit); err != nil {
		return err
	}

	r.setStatus(v, StatusPendingActive)
	if err := r.storage.setValidator(v); err != nil {
		return err
	}
	set.PendingActive = append(set.PendingActive, validator)
	set.TotalJoiningPower.Add(set.TotalJoiningPower, power)
	if err := r.storage.setSet(set); err != nil {
		return err
	}

	logger.Info("validator rejoining", "validator", validator, "power", power)
	return nil
}

// Leave requests removal. An active validator leaves at the next epoch, a pending active one
// leaves immediately.
func (r *Registry) Leave(caller, validator thor.Address) error {
	logger.Debug("leaving validator set", "validator", validator)

	v, err := r.getExisting(validator)
	if err != nil {
		return err
	}
	if err := acl.RequireOperator(caller, v.Operator); err != nil {
		return err
	}
	if err := r.requireStable(); err != nil {
		return err
	}
	cfg, err := r.params.Config()
	if err != nil {
		return err
	}
	if !cfg.AllowValidatorSetChange {
		return ErrValidatorSetChangeDisabled
	}
	set, err := r.storage.getSet()
	if err != nil {
		return err
	}

	switch v.Status {
	case StatusActive:
		if len(set.Active)-len(set.PendingInactive) <= 1 {
			return ErrLastValidatorCannotLeave
		}
		set.PendingInactive = append(set.PendingInactive, validator)
		r.setStatus(v, StatusPendingInactive)
	case StatusPendingActive:
		set.PendingActive = remove(set.PendingActive, validator)
		stake, err := r.Ledger(validator).Stake()
		if err != nil {
			return err
		}
		set.TotalJoiningPower.Sub(set.TotalJoiningPower, stake.Bonded())
		if set.TotalJoiningPower.Sign() < 0 {
			set.TotalJoiningPower.SetInt64(0)
		}
		r.setStatus(v, StatusInactive)
	default:
		return errors.Wrapf(ErrInvalidStatus, "cannot leave from %s", StatusName(v.Status))
	}

	if err := r.storage.setValidator(v); err != nil {
		return err
	}
	if err := r.storage.setSet(set); err != nil {
		return err
	}
	logger.Info("validator leaving", "validator", validator, "status", StatusName(v.Status))
	return nil
}

// UpdateCommissionRate changes the commission rate within the validator's terms and cooldown.
func (r *Registry) UpdateCommissionRate(caller, validator thor.Address, newRate uint64) error {
	logger.Debug("updating commission rate", "validator", validator, "rate", newRate)

	v, err := r.getExisting(validator)
	if err != nil {
		return err
	}
	if err := acl.RequireOperator(caller, v.Operator); err != nil {
		return err
	}
	if newRate > v.Commission.MaxRate {
		return errors.Wrapf(ErrInvalidCommission, "rate %d exceeds max rate %d", newRate, v.Commission.MaxRate)
	}
	diff := newRate - v.Commission.Rate
	if newRate < v.Commission.Rate {
		diff = v.Commission.Rate - newRate
	}
	if diff > v.Commission.MaxChangeRate {
		return errors.Wrapf(ErrInvalidCommission, "change %d exceeds max change rate %d", diff, v.Commission.MaxChangeRate)
	}
	cfg, err := r.params.Config()
	if err != nil {
		return err
	}
	now, err := r.clock.NowMicroseconds()
	if err != nil {
		return err
	}
	if now < v.LastCommissionUpdate+cfg.CommissionUpdateCooldown {
		return errors.Wrapf(ErrUpdateTooFrequently, "next update at %d", v.LastCommissionUpdate+cfg.CommissionUpdateCooldown)
	}

	old := v.Commission.Rate
	v.Commission.Rate = newRate
	v.LastCommissionUpdate = now
	if err := r.storage.setValidator(v); err != nil {
		return err
	}
	r.sctx.Emit("CommissionRateEdited", map[string]any{"validator": validator, "from": old, "to": newRate})
	logger.Info("commission rate updated", "validator", validator, "rate", newRate)
	return nil
}

// CheckVotingPowerIncrease reports whether amount more joining power fits in this epoch.
func (r *Registry) CheckVotingPowerIncrease(amount *big.Int) error {
	cfg, err := r.params.Config()
	if err != nil {
		return err
	}
	set, err := r.storage.getSet()
	if err != nil {
		return err
	}
	return checkVotingPowerIncrease(set, amount, cfg.VotingPowerIncreaseLimit)
}

// checkVotingPowerIncrease bounds the joining power of one epoch to limit percent of the
// current total voting power. An empty set has no bound.
func checkVotingPowerIncrease(set *ValidatorSet, amount *big.Int, limit uint64) error {
	if set.TotalVotingPower.Sign() == 0 {
		return nil
	}
	joining := new(big.Int).Add(set.TotalJoiningPower, amount)
	lhs := new(big.Int).Mul(joining, big.NewInt(100))
	rhs := new(big.Int).Mul(set.TotalVotingPower, new(big.Int).SetUint64(limit))
	if lhs.Cmp(rhs) > 0 {
		return errors.Wrapf(ErrVotingPowerIncreaseExceedsLimit, "joining %v of %v at %d%%", joining, set.TotalVotingPower, limit)
	}
	return nil
}

func remove(list []thor.Address, addr thor.Address) []thor.Address {
	out := list[:0]
	for _, a := range list {
		if a != addr {
			out = append(out, a)
		}
	}
	return out
}
