// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakecredit implements the per-validator, shares-based stake ledger.
//
// Value sits in four buckets. New stake enters pendingActive and is promoted to active at the
// next epoch. Unlocked value waits in pendingInactive until the unbonding period elapses, then
// becomes inactive and claimable by the holder. Shares price only the bonded value
// (active + pendingActive); unlocking burns shares.
package stakecredit

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/solidity"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var (
	logger = log.WithContext("pkg", "stakecredit")

	ErrZeroAmount          = reverts.New(reverts.Validation, "ZeroAmount", "amount must be positive")
	ErrZeroShares          = reverts.New(reverts.Economic, "ZeroShares", "amount too small to mint or redeem shares")
	ErrInsufficientShares  = reverts.New(reverts.Economic, "InsufficientShares", "holder does not own enough shares")
	ErrRequestExists       = reverts.New(reverts.Precondition, "RequestExists", "an unlock request is already pending")
	ErrNoUnlockRequest     = reverts.New(reverts.Precondition, "NoUnlockRequest", "no pending unlock request")
	ErrNoClaimableRequest  = reverts.New(reverts.Precondition, "NoClaimableRequest", "nothing to claim")
	ErrExceedsMaximumStake = reverts.New(reverts.Economic, "ExceedsMaximumStake", "stake would exceed the maximum")
	ErrStakeStateMismatch  = reverts.New(reverts.Precondition, "StakeStateMismatch", "stake buckets do not match the escrowed balance")
)

// Stake is the bucket breakdown of a ledger.
type Stake struct {
	Active          *big.Int `json:"active"`
	Inactive        *big.Int `json:"inactive"`
	PendingActive   *big.Int `json:"pendingActive"`
	PendingInactive *big.Int `json:"pendingInactive"`
	TotalShares     *big.Int `json:"totalShares"`
}

// Total returns the sum of all buckets.
func (s *Stake) Total() *big.Int {
	total := new(big.Int).Add(s.Active, s.Inactive)
	total.Add(total, s.PendingActive)
	return total.Add(total, s.PendingInactive)
}

// Bonded returns the value backing shares.
func (s *Stake) Bonded() *big.Int {
	return new(big.Int).Add(s.Active, s.PendingActive)
}

// Ledger implements native methods of a `StakeCredit` contract.
type Ledger struct {
	sctx    *solidity.Context
	storage *storage
}

// New binds the ledger of the given validator.
func New(validator thor.Address, state *state.State) *Ledger {
	sctx := solidity.NewContext(thor.StakeCreditAddress(validator), state)
	return &Ledger{sctx: sctx, storage: newStorage(sctx)}
}

// Address returns the account escrowing the ledger's value.
func (l *Ledger) Address() thor.Address {
	return l.sctx.Address()
}

// Initialize records the owning validator. It is called once when the validator registers.
func (l *Ledger) Initialize(validator thor.Address) error {
	return l.storage.validator.Set(validator)
}

// Validator returns the owning validator.
func (l *Ledger) Validator() (thor.Address, error) {
	return l.storage.validator.Get()
}

// Stake returns the bucket breakdown.
func (l *Ledger) Stake() (*Stake, error) {
	var (
		st  = &Stake{}
		err error
	)
	for _, b := range []struct {
		dst **big.Int
		src *solidity.Uint256
	}{
		{&st.Active, l.storage.active},
		{&st.Inactive, l.storage.inactive},
		{&st.PendingActive, l.storage.pendingActive},
		{&st.PendingInactive, l.storage.pendingInactive},
		{&st.TotalShares, l.storage.totalShares},
	} {
		if *b.dst, err = b.src.Get(); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// SharesOf returns the shares owned by holder.
func (l *Ledger) SharesOf(holder thor.Address) (*big.Int, error) {
	return l.storage.getShares(holder)
}

// Claimable returns the matured value holder may claim.
func (l *Ledger) Claimable(holder thor.Address) (*big.Int, error) {
	return l.storage.getClaimable(holder)
}

// UnlockRequest returns the pending unlock request, or nil.
func (l *Ledger) UnlockRequest() (*UnlockRequest, error) {
	r, err := l.storage.getRequest()
	if err != nil || r.IsEmpty() {
		return nil, err
	}
	return r, nil
}

// ValueToShares converts value into shares at the current exchange rate.
func (l *Ledger) ValueToShares(value *big.Int) (*big.Int, error) {
	st, err := l.Stake()
	if err != nil {
		return nil, err
	}
	return valueToShares(st, value), nil
}

// SharesToValue converts shares into value at the current exchange rate.
func (l *Ledger) SharesToValue(shares *big.Int) (*big.Int, error) {
	st, err := l.Stake()
	if err != nil {
		return nil, err
	}
	return sharesToValue(st, shares), nil
}

func valueToShares(st *Stake, value *big.Int) *big.Int {
	bonded := st.Bonded()
	if st.TotalShares.Sign() == 0 || bonded.Sign() == 0 {
		return new(big.Int).Set(value)
	}
	shares := new(big.Int).Mul(value, st.TotalShares)
	return shares.Div(shares, bonded)
}

func sharesToValue(st *Stake, shares *big.Int) *big.Int {
	if st.TotalShares.Sign() == 0 {
		return new(big.Int)
	}
	value := new(big.Int).Mul(shares, st.Bonded())
	return value.Div(value, st.TotalShares)
}

func (l *Ledger) mint(holder thor.Address, shares *big.Int) error {
	held, err := l.storage.getShares(holder)
	if err != nil {
		return err
	}
	if err := l.storage.setShares(holder, held.Add(held, shares)); err != nil {
		return err
	}
	return l.storage.totalShares.Add(shares)
}

// Delegate escrows amount from payer and credits holder with shares. The value waits in
// pendingActive until the next epoch. maxStake bounds the bonded value, nil means unbounded.
func (l *Ledger) Delegate(payer, holder thor.Address, amount, maxStake *big.Int) (*big.Int, error) {
	logger.Debug("delegating", "ledger", l.Address(), "holder", holder, "amount", amount)

	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	st, err := l.Stake()
	if err != nil {
		return nil, err
	}
	if maxStake != nil {
		if after := new(big.Int).Add(st.Bonded(), amount); after.Cmp(maxStake) > 0 {
			return nil, errors.Wrapf(ErrExceedsMaximumStake, "bonded %v > %v", after, maxStake)
		}
	}
	shares := valueToShares(st, amount)
	if shares.Sign() == 0 {
		return nil, ErrZeroShares
	}

	if err := l.sctx.State().Transfer(payer, l.Address(), amount); err != nil {
		return nil, err
	}
	if err := l.storage.pendingActive.Add(amount); err != nil {
		return nil, err
	}
	if err := l.mint(holder, shares); err != nil {
		return nil, err
	}

	l.sctx.Emit("StakeAdded", map[string]any{"holder": holder, "amount": amount.String(), "shares": shares.String()})
	logger.Info("delegated", "ledger", l.Address(), "holder", holder, "shares", shares)
	return shares, nil
}

// Bootstrap credits genesis stake straight into the active bucket. The value must already be
// held by the ledger account.
func (l *Ledger) Bootstrap(holder thor.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	st, err := l.Stake()
	if err != nil {
		return err
	}
	shares := valueToShares(st, amount)
	if err := l.storage.active.Add(amount); err != nil {
		return err
	}
	return l.mint(holder, shares)
}

// Unlock burns shares of holder and moves their value into pendingInactive, recording the
// single outstanding unlock request stamped with now.
func (l *Ledger) Unlock(holder thor.Address, shares *big.Int, now uint64) (*big.Int, error) {
	logger.Debug("unlocking", "ledger", l.Address(), "holder", holder, "shares", shares)

	if shares == nil || shares.Sign() <= 0 {
		return nil, ErrZeroShares
	}
	req, err := l.storage.getRequest()
	if err != nil {
		return nil, err
	}
	if !req.IsEmpty() {
		return nil, errors.Wrapf(ErrRequestExists, "held by %v", req.Holder)
	}
	held, err := l.storage.getShares(holder)
	if err != nil {
		return nil, err
	}
	if held.Cmp(shares) < 0 {
		return nil, errors.Wrapf(ErrInsufficientShares, "has %v, want %v", held, shares)
	}
	st, err := l.Stake()
	if err != nil {
		return nil, err
	}
	value := sharesToValue(st, shares)
	if value.Sign() == 0 {
		return nil, ErrZeroShares
	}

	// pendingActive is consumed first
	fromPending := new(big.Int).Set(value)
	if fromPending.Cmp(st.PendingActive) > 0 {
		fromPending.Set(st.PendingActive)
	}
	fromActive := new(big.Int).Sub(value, fromPending)
	if err := move(l.storage.pendingActive, l.storage.pendingInactive, fromPending); err != nil {
		return nil, err
	}
	if err := move(l.storage.active, l.storage.pendingInactive, fromActive); err != nil {
		return nil, err
	}

	if err := l.storage.setShares(holder, held.Sub(held, shares)); err != nil {
		return nil, err
	}
	if err := l.storage.totalShares.Sub(shares); err != nil {
		return nil, err
	}
	if err := l.storage.setRequest(&UnlockRequest{
		Holder:    holder,
		Timestamp: now,
		Shares:    new(big.Int).Set(shares),
		Value:     value,
	}); err != nil {
		return nil, err
	}

	l.sctx.Emit("StakeUnlocked", map[string]any{"holder": holder, "shares": shares.String(), "amount": value.String()})
	logger.Info("unlocked", "ledger", l.Address(), "holder", holder, "amount", value)
	return value, nil
}

// ReactivateStake cancels part or all of the pending unlock request of holder, moving the
// value back to active and re-minting shares at the current rate.
func (l *Ledger) ReactivateStake(holder thor.Address, shares *big.Int) (*big.Int, error) {
	logger.Debug("reactivating stake", "ledger", l.Address(), "holder", holder, "shares", shares)

	req, err := l.storage.getRequest()
	if err != nil {
		return nil, err
	}
	if req.IsEmpty() || req.Holder != holder {
		return nil, errors.Wrapf(ErrNoUnlockRequest, "holder %v", holder)
	}
	if shares == nil || shares.Sign() <= 0 {
		return nil, ErrZeroShares
	}
	if shares.Cmp(req.Shares) > 0 {
		return nil, errors.Wrapf(ErrInsufficientShares, "request has %v, want %v", req.Shares, shares)
	}

	value := new(big.Int).Mul(req.Value, shares)
	value.Div(value, req.Shares)

	st, err := l.Stake()
	if err != nil {
		return nil, err
	}
	minted := valueToShares(st, value)
	if minted.Sign() == 0 {
		return nil, ErrZeroShares
	}
	if err := move(l.storage.pendingInactive, l.storage.active, value); err != nil {
		return nil, err
	}
	if err := l.mint(holder, minted); err != nil {
		return nil, err
	}

	req.Shares.Sub(req.Shares, shares)
	req.Value.Sub(req.Value, value)
	if err := l.storage.setRequest(req); err != nil {
		return nil, err
	}

	l.sctx.Emit("StakeReactivated", map[string]any{"holder": holder, "shares": minted.String(), "amount": value.String()})
	logger.Info("reactivated stake", "ledger", l.Address(), "holder", holder, "amount", value)
	return value, nil
}

// OnNewEpoch matures the unlock request once it is at least unbonding old and promotes
// pendingActive into active. It returns the resulting active value.
func (l *Ledger) OnNewEpoch(now, unbonding uint64) (*big.Int, error) {
	req, err := l.storage.getRequest()
	if err != nil {
		return nil, err
	}
	if !req.IsEmpty() && now >= req.Timestamp && now-req.Timestamp >= unbonding {
		if err := move(l.storage.pendingInactive, l.storage.inactive, req.Value); err != nil {
			return nil, err
		}
		claimable, err := l.storage.getClaimable(req.Holder)
		if err != nil {
			return nil, err
		}
		if err := l.storage.setClaimable(req.Holder, claimable.Add(claimable, req.Value)); err != nil {
			return nil, err
		}
		if err := l.storage.setRequest(&UnlockRequest{}); err != nil {
			return nil, err
		}
		logger.Debug("unlock matured", "ledger", l.Address(), "holder", req.Holder, "amount", req.Value)
	}

	pending, err := l.storage.pendingActive.Get()
	if err != nil {
		return nil, err
	}
	if pending.Sign() > 0 {
		if err := move(l.storage.pendingActive, l.storage.active, pending); err != nil {
			return nil, err
		}
	}
	return l.storage.active.Get()
}

// Claim pays out the matured value of holder.
func (l *Ledger) Claim(holder thor.Address) (*big.Int, error) {
	logger.Debug("claiming", "ledger", l.Address(), "holder", holder)

	amount, err := l.storage.getClaimable(holder)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, errors.Wrapf(ErrNoClaimableRequest, "holder %v", holder)
	}
	if err := l.storage.inactive.Sub(amount); err != nil {
		return nil, err
	}
	if err := l.storage.setClaimable(holder, new(big.Int)); err != nil {
		return nil, err
	}
	if err := l.sctx.State().Transfer(l.Address(), holder, amount); err != nil {
		return nil, err
	}

	l.sctx.Emit("StakeWithdrawn", map[string]any{"holder": holder, "amount": amount.String()})
	logger.Info("claimed", "ledger", l.Address(), "holder", holder, "amount", amount)
	return amount, nil
}

// ValidateStakeStates checks that the buckets add up to the escrowed balance.
func (l *Ledger) ValidateStakeStates() error {
	st, err := l.Stake()
	if err != nil {
		return err
	}
	balance, err := l.sctx.State().GetBalance(l.Address())
	if err != nil {
		return err
	}
	if total := st.Total(); total.Cmp(balance) != 0 {
		return errors.Wrapf(ErrStakeStateMismatch, "ledger %v: buckets %v, balance %v", l.Address(), total, balance)
	}
	return nil
}
