// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

// DevAccount is a well-known development key.
type DevAccount struct {
	Address    thor.Address
	PrivateKey *ecdsa.PrivateKey
}

// ConsensusAddress returns the 32-byte consensus address of the account.
func (a DevAccount) ConsensusAddress() thor.Bytes32 {
	return thor.BytesToBytes32(a.Address.Bytes())
}

// ConsensusPublicKey returns the compressed public key, hex encoded.
func (a DevAccount) ConsensusPublicKey() string {
	return hexutil.Encode(crypto.CompressPubkey(&a.PrivateKey.PublicKey))
}

var DevAccounts = sync.OnceValue(func() []DevAccount {
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
		"88d2d80b12b92feaa0da6d62309463d20408157723f2d7e799b6a74ead9a673b",
		"fbb9e7ba5fe9969a71c6599052237b91adeb1e5fc0c96727b66e56ff5d02f9d0",
		"547fb081e73dc2e22b4aae5c60e2970b008ac4fc3073aebc27d41ace9c4f53e9",
	}
	accs := make([]DevAccount, 0, len(privKeys))
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		accs = append(accs, DevAccount{thor.Address(crypto.PubkeyToAddress(pk.PublicKey)), pk})
	}
	return accs
})

// DevLaunchTime is the devnet genesis time, in microseconds.
const DevLaunchTime = uint64(1_700_000_000_000_000)

// DevConfig returns a validator file for the first n dev accounts, each with power tokens.
func DevConfig(n int, power string) *Config {
	accs := DevAccounts()
	if n > len(accs) {
		n = len(accs)
	}
	cfg := &Config{}
	for i, acc := range accs[:n] {
		cfg.ValidatorAddresses = append(cfg.ValidatorAddresses, acc.Address.String())
		cfg.ConsensusPublicKeys = append(cfg.ConsensusPublicKeys, acc.ConsensusPublicKey())
		cfg.VotingPowers = append(cfg.VotingPowers, power)
		cfg.ValidatorNetworkAddresses = append(cfg.ValidatorNetworkAddresses, fmt.Sprintf("/ip4/127.0.0.1/tcp/%d", 6180+i))
		cfg.FullnodeNetworkAddresses = append(cfg.FullnodeNetworkAddresses, fmt.Sprintf("/ip4/127.0.0.1/tcp/%d", 6190+i))
		cfg.AptosAddresses = append(cfg.AptosAddresses, strings.TrimPrefix(acc.ConsensusAddress().String(), "0x"))
	}
	return cfg
}

// DevChainParams returns chain parameters suited to a fast local devnet: one minute epochs
// and every dev account funded.
func DevChainParams() *ChainParams {
	p := &ChainParams{
		LaunchTime:             DevLaunchTime,
		EpochIntervalMicrosecs: 60 * 1_000_000,
		Stake: &StakeParams{
			MinValidatorStake:        "1000",
			MaximumStake:             "1000000000",
			MinDelegationStake:       "1",
			RecurringLockupDuration:  120 * 1_000_000,
			VotingPowerIncreaseLimit: 20,
			MaxCommissionRate:        5_000,
			CommissionUpdateCooldown: 60 * 1_000_000,
			AllowValidatorSetChange:  true,
		},
	}
	for _, acc := range DevAccounts() {
		p.Accounts = append(p.Accounts, Account{Address: acc.Address.String(), Balance: "1000000000"})
	}
	return p
}

// NewDevnet returns the genesis of a local devnet run by n dev validators.
func NewDevnet(n int) (*Genesis, error) {
	return New("devnet", DevConfig(n, "10000"), DevChainParams())
}
