// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis loads the genesis validator set and chain parameters and seeds a fresh
// system with them.
package genesis

import (
	"encoding/json"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/validator"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Config is the genesis validator file. Voting powers are decimal whole tokens, network addresses
// are plain strings and aptosAddresses are 32-byte hex consensus addresses whose trailing 20
// bytes must equal the validator address.
type Config struct {
	ValidatorAddresses        []string `json:"validatorAddresses"`
	ConsensusPublicKeys       []string `json:"consensusPublicKeys"`
	VotingPowers              []string `json:"votingPowers"`
	ValidatorNetworkAddresses []string `json:"validatorNetworkAddresses"`
	FullnodeNetworkAddresses  []string `json:"fullnodeNetworkAddresses"`
	AptosAddresses            []string `json:"aptosAddresses"`
}

// Load reads a genesis validator file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return Parse(data)
}

// Parse decodes a genesis validator file.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode genesis file")
	}
	return &cfg, nil
}

// ToWei scales a whole-token amount, decimal or 0x-hex, to wei.
func ToWei(tokens string) (*big.Int, error) {
	v, ok := math.ParseBig256(strings.TrimSpace(tokens))
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("invalid token amount %q", tokens)
	}
	return v.Mul(v, ether), nil
}

// networkAddress BCS-encodes addr, leaving an empty address empty.
func networkAddress(addr string) []byte {
	if addr == "" {
		return nil
	}
	return EncodeBCSString(addr)
}

// Params converts the file into registry genesis parameters.
func (c *Config) Params() (*validator.GenesisParams, error) {
	n := len(c.ValidatorAddresses)
	for name, l := range map[string]int{
		"consensusPublicKeys":       len(c.ConsensusPublicKeys),
		"votingPowers":              len(c.VotingPowers),
		"validatorNetworkAddresses": len(c.ValidatorNetworkAddresses),
		"fullnodeNetworkAddresses":  len(c.FullnodeNetworkAddresses),
		"aptosAddresses":            len(c.AptosAddresses),
	} {
		if l != n {
			return nil, errors.Errorf("%s has %d entries, validatorAddresses has %d", name, l, n)
		}
	}

	p := &validator.GenesisParams{}
	for i := 0; i < n; i++ {
		addr, err := thor.ParseAddress(c.ValidatorAddresses[i])
		if err != nil {
			return nil, errors.Wrapf(err, "validator %d address", i)
		}
		power, err := ToWei(c.VotingPowers[i])
		if err != nil {
			return nil, errors.Wrapf(err, "validator %d voting power", i)
		}
		consensusAddr, err := thor.ParseBytes32(c.AptosAddresses[i])
		if err != nil {
			return nil, errors.Wrapf(err, "validator %d aptos address", i)
		}
		if thor.BytesToAddress(consensusAddr[12:]) != addr {
			return nil, errors.Errorf("validator %d: aptos address %v does not end with %v", i, consensusAddr, addr)
		}

		p.ValidatorAddresses = append(p.ValidatorAddresses, addr)
		p.ConsensusPublicKeys = append(p.ConsensusPublicKeys, []byte(c.ConsensusPublicKeys[i]))
		p.VotingPowers = append(p.VotingPowers, power)
		p.ValidatorNetworkAddresses = append(p.ValidatorNetworkAddresses, networkAddress(c.ValidatorNetworkAddresses[i]))
		p.FullnodeNetworkAddresses = append(p.FullnodeNetworkAddresses, networkAddress(c.FullnodeNetworkAddresses[i]))
		p.ConsensusAddresses = append(p.ConsensusAddresses, consensusAddr)
	}
	return p, nil
}
