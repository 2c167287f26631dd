// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakecredit

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/solidity"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var (
	slotActive          = thor.BytesToBytes32([]byte("stake-active"))
	slotInactive        = thor.BytesToBytes32([]byte("stake-inactive"))
	slotPendingActive   = thor.BytesToBytes32([]byte("stake-pending-active"))
	slotPendingInactive = thor.BytesToBytes32([]byte("stake-pending-inactive"))
	slotTotalShares     = thor.BytesToBytes32([]byte("total-shares"))
	slotShares          = thor.BytesToBytes32([]byte("shares"))
	slotClaimable       = thor.BytesToBytes32([]byte("claimable"))
	slotUnlockRequest   = thor.BytesToBytes32([]byte("unlock-request"))
	slotValidator       = thor.BytesToBytes32([]byte("validator"))
)

// UnlockRequest is the single outstanding withdrawal intent of a ledger.
type UnlockRequest struct {
	Holder    thor.Address
	Timestamp uint64 // µs
	Shares    *big.Int
	Value     *big.Int
}

// IsEmpty returns whether no request is recorded.
func (r *UnlockRequest) IsEmpty() bool {
	return r == nil || r.Shares == nil || r.Shares.Sign() == 0
}

type storage struct {
	active          *solidity.Uint256
	inactive        *solidity.Uint256
	pendingActive   *solidity.Uint256
	pendingInactive *solidity.Uint256
	totalShares     *solidity.Uint256

	shares    *solidity.Mapping[thor.Address, *big.Int]
	claimable *solidity.Mapping[thor.Address, *big.Int]
	request   *solidity.Value[*UnlockRequest]
	validator *solidity.Value[thor.Address]
}

func newStorage(sctx *solidity.Context) *storage {
	return &storage{
		active:          solidity.NewUint256(sctx, slotActive),
		inactive:        solidity.NewUint256(sctx, slotInactive),
		pendingActive:   solidity.NewUint256(sctx, slotPendingActive),
		pendingInactive: solidity.NewUint256(sctx, slotPendingInactive),
		totalShares:     solidity.NewUint256(sctx, slotTotalShares),
		shares:          solidity.NewMapping[thor.Address, *big.Int](sctx, slotShares),
		claimable:       solidity.NewMapping[thor.Address, *big.Int](sctx, slotClaimable),
		request:         solidity.NewValue[*UnlockRequest](sctx, slotUnlockRequest),
		validator:       solidity.NewValue[thor.Address](sctx, slotValidator),
	}
}

func (s *storage) getShares(holder thor.Address) (*big.Int, error) {
	v, err := s.shares.Get(holder)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get shares")
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

func (s *storage) setShares(holder thor.Address, v *big.Int) error {
	if v.Sign() == 0 {
		s.shares.Delete(holder)
		return nil
	}
	if err := s.shares.Set(holder, v); err != nil {
		return errors.Wrap(err, "failed to set shares")
	}
	return nil
}

func (s *storage) getClaimable(holder thor.Address) (*big.Int, error) {
	v, err := s.claimable.Get(holder)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get claimable")
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

func (s *storage) setClaimable(holder thor.Address, v *big.Int) error {
	if v.Sign() == 0 {
		s.claimable.Delete(holder)
		return nil
	}
	if err := s.claimable.Set(holder, v); err != nil {
		return errors.Wrap(err, "failed to set claimable")
	}
	return nil
}

func (s *storage) getRequest() (*UnlockRequest, error) {
	r, err := s.request.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get unlock request")
	}
	return r, nil
}

func (s *storage) setRequest(r *UnlockRequest) error {
	if r.IsEmpty() {
		s.request.Clear()
		return nil
	}
	if err := s.request.Set(r); err != nil {
		return errors.Wrap(err, "failed to set unlock request")
	}
	return nil
}

// move transfers value between two buckets.
func move(from, to *solidity.Uint256, value *big.Int) error {
	if err := from.Sub(value); err != nil {
		return err
	}
	return to.Add(value)
}
