// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// Value stores a single RLP encoded value at a fixed slot, similar to a struct state variable.
type Value[V any] struct {
	context *Context
	pos     thor.Bytes32
}

func NewValue[V any](context *Context, pos thor.Bytes32) *Value[V] {
	return &Value[V]{context: context, pos: pos}
}

func (v *Value[V]) Get() (value V, err error) {
	err = v.context.state.DecodeStorage(v.context.address, v.pos, func(raw []byte) error {
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

func (v *Value[V]) Set(value V) error {
	return v.context.state.EncodeStorage(v.context.address, v.pos, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Clear resets the slot to empty.
func (v *Value[V]) Clear() {
	v.context.state.SetRawStorage(v.context.address, v.pos, nil)
}

// Exists reports whether the slot holds a value.
func (v *Value[V]) Exists() (bool, error) {
	raw, err := v.context.state.GetRawStorage(v.context.address, v.pos)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}
