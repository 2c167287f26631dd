// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math"
	"math/big"
	"sync"

	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var logger = log.WithContext("pkg", "solidity")

// ConfigVariable is a process wide limit with a built-in default. A devnet overrides it by
// writing a non-zero word into the slot named after the variable, in the storage of the
// contract that reads it. Only the first Override looks at storage.
type ConfigVariable struct {
	name  string
	slot  thor.Bytes32
	value uint32
	once  sync.Once
}

func NewConfigVariable(name string, defaultValue uint32) *ConfigVariable {
	return &ConfigVariable{
		name:  name,
		slot:  thor.Blake2b([]byte("config-variable"), []byte(name)),
		value: defaultValue,
	}
}

func (c *ConfigVariable) Get() uint32 { return c.value }

func (c *ConfigVariable) Name() string { return c.name }

func (c *ConfigVariable) Slot() thor.Bytes32 { return c.slot }

func (c *ConfigVariable) Override(ctx *Context) {
	c.once.Do(func() {
		word, err := ctx.state.GetStorage(ctx.address, c.slot)
		if err != nil {
			logger.Warn("config variable unreadable, keeping default", "name", c.name, "err", err)
			return
		}
		v := new(big.Int).SetBytes(word.Bytes())
		if v.Sign() == 0 || !v.IsUint64() || v.Uint64() > math.MaxUint32 {
			return
		}
		c.value = uint32(v.Uint64())
		logger.Info("config variable overridden", "name", c.name, "value", c.value)
	})
}
