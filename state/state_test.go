// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalarorg/gravity-genesis-contract-sub001/kv"
	"github.com/scalarorg/gravity-genesis-contract-sub001/lvldb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

func newTestState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

func TestStateReadWrite(t *testing.T) {
	st, _ := newTestState(t)

	addr := thor.BytesToAddress([]byte("account1"))
	storageKey := thor.BytesToBytes32([]byte("storageKey"))

	bal, err := st.GetBalance(addr)
	assert.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())

	st.SetBalance(addr, big.NewInt(1))
	bal, err = st.GetBalance(addr)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(1), bal)

	st.SetStorage(addr, storageKey, thor.BytesToBytes32([]byte("storageValue")))
	val, err := st.GetStorage(addr, storageKey)
	assert.NoError(t, err)
	assert.Equal(t, thor.BytesToBytes32([]byte("storageValue")), val)

	st.SetStorage(addr, storageKey, thor.Bytes32{})
	raw, err := st.GetRawStorage(addr, storageKey)
	assert.NoError(t, err)
	assert.Empty(t, raw)
}

func TestStateRevert(t *testing.T) {
	st, _ := newTestState(t)

	addr := thor.BytesToAddress([]byte("account1"))
	storageKey := thor.BytesToBytes32([]byte("storageKey"))

	values := []struct {
		balance *big.Int
		storage thor.Bytes32
	}{
		{big.NewInt(1), thor.BytesToBytes32([]byte("v1"))},
		{big.NewInt(2), thor.BytesToBytes32([]byte("v2"))},
		{big.NewInt(3), thor.BytesToBytes32([]byte("v3"))},
	}

	var chk []int
	for _, v := range values {
		chk = append(chk, st.NewCheckpoint())
		st.SetBalance(addr, v.balance)
		st.SetStorage(addr, storageKey, v.storage)
		st.AddEvent(&Event{Address: addr, Name: "Set"})
	}

	for i := range values {
		i = len(values) - i - 1
		bal, _ := st.GetBalance(addr)
		assert.Equal(t, values[i].balance, bal)
		stor, _ := st.GetStorage(addr, storageKey)
		assert.Equal(t, values[i].storage, stor)
		assert.Len(t, st.Events(), i+1)
		st.RevertTo(chk[i])
	}

	bal, _ := st.GetBalance(addr)
	assert.Equal(t, 0, bal.Sign())
	assert.Empty(t, st.Events())
}

func TestTransfer(t *testing.T) {
	st, _ := newTestState(t)
	a := thor.BytesToAddress([]byte("a"))
	b := thor.BytesToAddress([]byte("b"))

	st.SetBalance(a, big.NewInt(100))
	assert.NoError(t, st.Transfer(a, b, big.NewInt(40)))

	balA, _ := st.GetBalance(a)
	balB, _ := st.GetBalance(b)
	assert.Equal(t, big.NewInt(60), balA)
	assert.Equal(t, big.NewInt(40), balB)

	err := st.Transfer(a, b, big.NewInt(61))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestCommit(t *testing.T) {
	st, db := newTestState(t)

	addr := thor.BytesToAddress([]byte("contract"))
	key := thor.BytesToBytes32([]byte("slot"))

	st.SetBalance(addr, big.NewInt(7))
	st.SetStorage(addr, key, thor.BytesToBytes32([]byte{0x2a}))
	st.AddEvent(&Event{Address: addr, Name: "Committed"})

	events, err := st.Commit()
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Empty(t, st.Events())

	// a fresh state over the same store sees the committed values
	st2 := New(db)
	bal, err := st2.GetBalance(addr)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(7), bal)
	val, err := st2.GetStorage(addr, key)
	assert.NoError(t, err)
	assert.Equal(t, thor.BytesToBytes32([]byte{0x2a}), val)

	// clearing a slot deletes it from the store
	st2.SetStorage(addr, key, thor.Bytes32{})
	_, err = st2.Commit()
	assert.NoError(t, err)
	val, err = New(db).GetStorage(addr, key)
	assert.NoError(t, err)
	assert.True(t, val.IsZero())
}

func TestDecodeStorageError(t *testing.T) {
	st, _ := newTestState(t)
	addr := thor.BytesToAddress([]byte("addr"))
	slot := thor.BytesToBytes32([]byte("slot"))

	st.SetRawStorage(addr, slot, rlp.RawValue{0xFF})
	_, err := st.GetStorage(addr, slot)
	assert.Error(t, err)

	var out uint64
	err = st.DecodeStorage(addr, slot, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &out)
	})
	assert.Error(t, err)
}

func TestCommitExtraWrites(t *testing.T) {
	st, db := newTestState(t)
	addr := thor.BytesToAddress([]byte("contract"))
	key := thor.BytesToBytes32([]byte("slot"))
	meta := kv.Bucket("meta")

	st.SetStorage(addr, key, thor.BytesToBytes32([]byte{1}))
	_, err := st.Commit(func(w kv.Putter) error {
		return meta.NewPutter(w).Put([]byte("best"), []byte{9})
	})
	require.NoError(t, err)
	got, err := meta.NewStore(db).Get([]byte("best"))
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, got)

	// a failing extra write leaves the store untouched
	st.SetStorage(addr, key, thor.BytesToBytes32([]byte{2}))
	_, err = st.Commit(func(kv.Putter) error { return errors.New("disk full") })
	assert.EqualError(t, err, "disk full")
	val, err := New(db).GetStorage(addr, key)
	require.NoError(t, err)
	assert.Equal(t, thor.BytesToBytes32([]byte{1}), val)
}
