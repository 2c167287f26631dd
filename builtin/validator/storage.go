// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/solidity"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var (
	slotValidators   = thor.BytesToBytes32([]byte("validators"))
	slotKeyIndex     = thor.BytesToBytes32([]byte("consensus-key-index"))
	slotMonikerIndex = thor.BytesToBytes32([]byte("moniker-index"))
	slotRegistered   = thor.BytesToBytes32([]byte("registered-validators"))
	slotValidatorSet = thor.BytesToBytes32([]byte("validator-set"))
	slotSequence     = thor.BytesToBytes32([]byte("registration-sequence"))
	slotInitialized  = thor.BytesToBytes32([]byte("validator-manager-initialized"))
)

type storage struct {
	validators   *solidity.Mapping[thor.Address, *Validator]
	keyIndex     *solidity.Mapping[thor.Bytes32, thor.Address]
	monikerIndex *solidity.Mapping[thor.Bytes32, thor.Address]
	registered   *solidity.Value[[]thor.Address]
	set          *solidity.Value[*ValidatorSet]
	sequence     *solidity.Value[uint64]
	initialized  *solidity.Value[bool]
}

func newStorage(sctx *solidity.Context) *storage {
	return &storage{
		validators:   solidity.NewMapping[thor.Address, *Validator](sctx, slotValidators),
		keyIndex:     solidity.NewMapping[thor.Bytes32, thor.Address](sctx, slotKeyIndex),
		monikerIndex: solidity.NewMapping[thor.Bytes32, thor.Address](sctx, slotMonikerIndex),
		registered:   solidity.NewValue[[]thor.Address](sctx, slotRegistered),
		set:          solidity.NewValue[*ValidatorSet](sctx, slotValidatorSet),
		sequence:     solidity.NewValue[uint64](sctx, slotSequence),
		initialized:  solidity.NewValue[bool](sctx, slotInitialized),
	}
}

func keyHash(key []byte) thor.Bytes32 {
	return thor.Blake2b([]byte("consensus-key"), key)
}

func monikerHash(moniker string) thor.Bytes32 {
	return thor.Blake2b([]byte("moniker"), []byte(moniker))
}

func (s *storage) getValidator(addr thor.Address) (*Validator, error) {
	v, err := s.validators.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get validator")
	}
	return v, nil
}

func (s *storage) setValidator(v *Validator) error {
	if err := s.validators.Set(v.Address, v); err != nil {
		return errors.Wrap(err, "failed to set validator")
	}
	return nil
}

func (s *storage) ownerOfKey(key []byte) (thor.Address, error) {
	addr, err := s.keyIndex.Get(keyHash(key))
	if err != nil {
		return thor.Address{}, errors.Wrap(err, "failed to get consensus key index")
	}
	return addr, nil
}

func (s *storage) ownerOfMoniker(moniker string) (thor.Address, error) {
	addr, err := s.monikerIndex.Get(monikerHash(moniker))
	if err != nil {
		return thor.Address{}, errors.Wrap(err, "failed to get moniker index")
	}
	return addr, nil
}

func (s *storage) indexKey(key []byte, owner thor.Address) error {
	return s.keyIndex.Set(keyHash(key), owner)
}

func (s *storage) unindexKey(key []byte) {
	s.keyIndex.Delete(keyHash(key))
}

func (s *storage) indexMoniker(moniker string, owner thor.Address) error {
	return s.monikerIndex.Set(monikerHash(moniker), owner)
}

func (s *storage) getSet() (*ValidatorSet, error) {
	set, err := s.set.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get validator set")
	}
	return set.normalize(), nil
}

func (s *storage) setSet(set *ValidatorSet) error {
	if err := s.set.Set(set); err != nil {
		return errors.Wrap(err, "failed to set validator set")
	}
	return nil
}

// register appends addr to the registration list and returns its sequence number.
func (s *storage) register(addr thor.Address) (uint64, error) {
	list, err := s.registered.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get registered validators")
	}
	if err := s.registered.Set(append(list, addr)); err != nil {
		return 0, errors.Wrap(err, "failed to set registered validators")
	}
	seq, err := s.sequence.Get()
	if err != nil {
		return 0, err
	}
	return seq, s.sequence.Set(seq + 1)
}
