// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/kv"
	"github.com/scalarorg/gravity-genesis-contract-sub001/stackedmap"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// Commit writes all journaled changes, plus whatever extra puts, into the store in a single
// batch and resets the journal. It returns the events emitted since the previous commit.
func (s *State) Commit(extra ...func(w kv.Putter) error) ([]*Event, error) {
	var (
		slots    = make(map[storageKey]rlp.RawValue)
		balances = make(map[thor.Address]*big.Int)
	)
	s.sm.Journal(func(k, v any) bool {
		switch key := k.(type) {
		case storageKey:
			slots[key] = v.(rlp.RawValue)
		case balanceKey:
			balances[thor.Address(key)] = v.(*big.Int)
		}
		return true
	})

	batch := s.db.NewBatch()
	storage := storageBucket.NewPutter(batch)
	for k, raw := range slots {
		var err error
		if len(raw) == 0 {
			err = storage.Delete(storageDBKey(k))
		} else {
			err = storage.Put(storageDBKey(k), raw)
		}
		if err != nil {
			return nil, errors.Wrap(err, "commit storage")
		}
	}
	bals := balanceBucket.NewPutter(batch)
	for addr, bal := range balances {
		if err := bals.Put(addr[:], bal.Bytes()); err != nil {
			return nil, errors.Wrap(err, "commit balances")
		}
	}
	for _, fn := range extra {
		if err := fn(batch); err != nil {
			return nil, err
		}
	}
	if err := batch.Write(); err != nil {
		return nil, errors.Wrap(err, "write batch")
	}

	for k, raw := range slots {
		s.cache.Add(k, raw)
	}
	events := s.Events()
	s.sm = stackedmap.New(s.getter)
	return events, nil
}
