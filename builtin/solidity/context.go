// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solidity lays out the fields of a built-in contract over the storage slots of its
// system address, the way a Solidity contract would.
package solidity

import (
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// Context is one contract's view of the state.
type Context struct {
	address thor.Address
	state   *state.State
}

func NewContext(address thor.Address, st *state.State) *Context {
	return &Context{address, st}
}

func (c *Context) Address() thor.Address { return c.address }

func (c *Context) State() *state.State { return c.state }

// Emit logs an event under the contract address. Reverting the enclosing checkpoint drops it.
func (c *Context) Emit(name string, fields map[string]any) {
	c.state.AddEvent(&state.Event{Address: c.address, Name: name, Fields: fields})
}
