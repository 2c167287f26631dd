// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var logger = log.WithContext("pkg", "genesis")

// Genesis is a resolved genesis: the bootstrap arguments plus the initial balances.
type Genesis struct {
	name    string
	builtin *builtin.Genesis
	alloc   map[thor.Address]*big.Int
}

// New resolves a validator file and chain parameters into a genesis.
func New(name string, cfg *Config, chain *ChainParams) (*Genesis, error) {
	validators, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	stake, err := chain.StakeConfig()
	if err != nil {
		return nil, errors.Wrap(err, "stake params")
	}
	rnd, err := chain.RandomnessConfig()
	if err != nil {
		return nil, errors.Wrap(err, "randomness params")
	}

	alloc := make(map[thor.Address]*big.Int, len(chain.Accounts))
	for _, acc := range chain.Accounts {
		addr, err := thor.ParseAddress(acc.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "account %q", acc.Address)
		}
		if _, ok := alloc[addr]; ok {
			return nil, errors.Errorf("duplicate account %v", addr)
		}
		bal, err := ToWei(acc.Balance)
		if err != nil {
			return nil, errors.Wrapf(err, "account %v", addr)
		}
		alloc[addr] = bal
	}

	return &Genesis{
		name: name,
		builtin: &builtin.Genesis{
			TimestampMicros: chain.LaunchTime,
			StakeConfig:     stake,
			EpochInterval:   chain.EpochIntervalMicrosecs,
			Randomness:      rnd,
			Validators:      validators,
		},
		alloc: alloc,
	}, nil
}

// Name returns the network name.
func (g *Genesis) Name() string { return g.name }

// Builtin returns the bootstrap arguments.
func (g *Genesis) Builtin() *builtin.Genesis { return g.builtin }

// Apply funds the genesis accounts and runs the genesis bootstrap on sys.
func (g *Genesis) Apply(sys *builtin.System) error {
	for addr, bal := range g.alloc {
		sys.State().SetBalance(addr, bal)
	}
	if err := sys.Initialize(thor.GenesisAddress, g.builtin); err != nil {
		return errors.Wrap(err, "initialize builtin contracts")
	}
	logger.Info("genesis applied", "network", g.name, "accounts", len(g.alloc))
	return nil
}
