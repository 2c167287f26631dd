// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// UpdateOperator hands the operator role to another address. Only the validator itself may do it.
func (r *Registry) UpdateOperator(caller, validator, operator thor.Address) error {
	v, err := r.getExisting(validator)
	if err != nil {
		return err
	}
	if caller != v.Address {
		return errors.Wrapf(ErrNotValidatorOwner, "caller %v", caller)
	}
	if operator.IsZero() {
		return ErrInvalidOperator
	}
	v.Operator = operator
	if err := r.storage.setValidator(v); err != nil {
		return err
	}
	r.sctx.Emit("OperatorUpdated", map[string]any{"validator": validator, "operator": operator})
	logger.Info("operator updated", "validator", validator, "operator", operator)
	return nil
}

func (r *Registry) operated(caller, validator thor.Address) (*Validator, error) {
	v, err := r.getExisting(validator)
	if err != nil {
		return nil, err
	}
	if err := acl.RequireOperator(caller, v.Operator); err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateBeneficiary sets the address receiving the validator's rewards.
func (r *Registry) UpdateBeneficiary(caller, validator, beneficiary thor.Address) error {
	v, err := r.operated(caller, validator)
	if err != nil {
		return err
	}
	v.Beneficiary = beneficiary
	if err := r.storage.setValidator(v); err != nil {
		return err
	}
	r.sctx.Emit("BeneficiaryUpdated", map[string]any{"validator": validator, "beneficiary": beneficiary})
	return nil
}

// RotateConsensusKey replaces the consensus key. The new key must not belong to any
// registered validator; the old key is released.
func (r *Registry) RotateConsensusKey(caller, validator thor.Address, key []byte, consensusAddress thor.Bytes32) error {
	logger.Debug("rotating consensus key", "validator", validator)

	v, err := r.operated(caller, validator)
	if err != nil {
		return err
	}
	if err := r.requireStable(); err != nil {
		return err
	}
	if len(key) == 0 {
		return ErrInvalidConsensusKey
	}
	owner, err := r.storage.ownerOfKey(key)
	if err != nil {
		return err
	}
	if !owner.IsZero() {
		return errors.Wrapf(ErrAlreadyExists, "consensus key owned by %v", owner)
	}
	r.storage.unindexKey(v.ConsensusPublicKey)
	if err := r.storage.indexKey(key, validator); err != nil {
		return err
	}
	v.ConsensusPublicKey = key
	v.ConsensusAddress = consensusAddress
	if err := r.storage.setValidator(v); err != nil {
		return err
	}
	r.sctx.Emit("ConsensusKeyRotated", map[string]any{"validator": validator, "consensusAddress": consensusAddress})
	logger.Info("consensus key rotated", "validator", validator)
	return nil
}

// UpdateNetworkAddresses replaces both network address blobs after the codec accepts them.
func (r *Registry) UpdateNetworkAddresses(caller, validator thor.Address, validatorAddrs, fullnodeAddrs []byte) error {
	v, err := r.operated(caller, validator)
	if err != nil {
		return err
	}
	if err := r.requireStable(); err != nil {
		return err
	}
	if err := r.codec.Validate(validatorAddrs); err != nil {
		return errors.Wrapf(ErrInvalidNetworkAddresses, "validator network addresses: %v", err)
	}
	if err := r.codec.Validate(fullnodeAddrs); err != nil {
		return errors.Wrapf(ErrInvalidNetworkAddresses, "fullnode network addresses: %v", err)
	}
	v.ValidatorNetworkAddresses = validatorAddrs
	v.FullnodeNetworkAddresses = fullnodeAddrs
	if err := r.storage.setValidator(v); err != nil {
		return err
	}
	r.sctx.Emit("NetworkAddressesUpdated", map[string]any{"validator": validator})
	return nil
}
