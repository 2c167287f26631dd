// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/kv"
	"github.com/scalarorg/gravity-genesis-contract-sub001/stackedmap"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

const (
	storageBucket = kv.Bucket("s")
	balanceBucket = kv.Bucket("b")

	slotCacheSize = 4096
)

// ErrInsufficientBalance is returned when a debit exceeds the account balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type (
	storageKey struct {
		addr thor.Address
		key  thor.Bytes32
	}
	balanceKey    thor.Address
	eventCountKey struct{}
	eventKey      int
)

// State holds account balances, contract storage and the event log of built-in contracts.
// Every write is journaled so it can be reverted to a checkpoint, and persisted by Commit.
type State struct {
	db       kv.Store
	storage  kv.Store
	balances kv.Store
	cache    *lru.Cache
	sm       *stackedmap.StackedMap
}

// New create state object over the given store.
func New(store kv.Store) *State {
	cache, _ := lru.New(slotCacheSize)
	s := &State{
		db:       store,
		storage:  storageBucket.NewStore(store),
		balances: balanceBucket.NewStore(store),
		cache:    cache,
	}
	s.sm = stackedmap.New(s.getter)
	return s
}

// getter implements stackedmap.MapGetter.
func (s *State) getter(key any) (any, bool, error) {
	switch k := key.(type) {
	case storageKey:
		raw, err := s.loadStorage(k)
		if err != nil {
			return nil, false, err
		}
		return raw, true, nil
	case balanceKey:
		bal, err := s.loadBalance(thor.Address(k))
		if err != nil {
			return nil, false, err
		}
		return bal, true, nil
	case eventCountKey:
		return 0, true, nil
	case eventKey:
		return nil, false, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func storageDBKey(k storageKey) []byte {
	return append(append(make([]byte, 0, 52), k.addr[:]...), k.key[:]...)
}

func (s *State) loadStorage(k storageKey) (rlp.RawValue, error) {
	if v, ok := s.cache.Get(k); ok {
		return v.(rlp.RawValue), nil
	}
	raw, err := s.storage.Get(storageDBKey(k))
	if err != nil {
		if !s.storage.IsNotFound(err) {
			return nil, err
		}
		raw = nil
	}
	s.cache.Add(k, rlp.RawValue(raw))
	return raw, nil
}

func (s *State) loadBalance(addr thor.Address) (*big.Int, error) {
	raw, err := s.balances.Get(addr[:])
	if err != nil {
		if s.balances.IsNotFound(err) {
			return new(big.Int), nil
		}
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

// GetBalance returns balance for the given address.
func (s *State) GetBalance(addr thor.Address) (*big.Int, error) {
	v, _, err := s.sm.Get(balanceKey(addr))
	if err != nil {
		return nil, &Error{err}
	}
	return new(big.Int).Set(v.(*big.Int)), nil
}

// SetBalance set balance for the given address.
func (s *State) SetBalance(addr thor.Address, balance *big.Int) {
	s.sm.Put(balanceKey(addr), new(big.Int).Set(balance))
}

// AddBalance credits amount to the given address.
func (s *State) AddBalance(addr thor.Address, amount *big.Int) error {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return err
	}
	s.SetBalance(addr, bal.Add(bal, amount))
	return nil
}

// SubBalance debits amount from the given address.
func (s *State) SubBalance(addr thor.Address, amount *big.Int) error {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return errors.Wrapf(ErrInsufficientBalance, "account %v", addr)
	}
	s.SetBalance(addr, bal.Sub(bal, amount))
	return nil
}

// Transfer moves amount from one account to another.
func (s *State) Transfer(from, to thor.Address, amount *big.Int) error {
	if err := s.SubBalance(from, amount); err != nil {
		return err
	}
	return s.AddBalance(to, amount)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr thor.Address, key thor.Bytes32) (thor.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if len(raw) == 0 {
		return thor.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return thor.Blake2b(raw), nil
	}
	return thor.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr thor.Address, key, value thor.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by end will be absorbed by State instance.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}
