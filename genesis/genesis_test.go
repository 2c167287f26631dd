// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/randomness"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/validator"
	"github.com/scalarorg/gravity-genesis-contract-sub001/genesis"
	"github.com/scalarorg/gravity-genesis-contract-sub001/lvldb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

const validatorFile = `{
  "validatorAddresses": ["0x6e9a3b8f2b2a0a7e4d2f8f4e0b61a2c1f5b1e001"],
  "consensusPublicKeys": ["851d41932d866f5fabed6673898e15473e6a0adcf5033d2c93816c6b115c85ad3451e0bac61d570d5ed9f23e1e7f77c4"],
  "votingPowers": ["1500"],
  "validatorNetworkAddresses": ["/ip4/10.0.0.1/tcp/6180"],
  "fullnodeNetworkAddresses": [""],
  "aptosAddresses": ["0000000000000000000000006e9a3b8f2b2a0a7e4d2f8f4e0b61a2c1f5b1e001"]
}`

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := genesis.Load(writeFile(t, "genesis.json", validatorFile))
	require.NoError(t, err)

	p, err := cfg.Params()
	require.NoError(t, err)

	addr := thor.MustParseAddress("0x6e9a3b8f2b2a0a7e4d2f8f4e0b61a2c1f5b1e001")
	assert.Equal(t, []thor.Address{addr}, p.ValidatorAddresses)
	assert.Equal(t, "1500000000000000000000", p.VotingPowers[0].String())
	assert.Equal(t, genesis.EncodeBCSString("/ip4/10.0.0.1/tcp/6180"), p.ValidatorNetworkAddresses[0])
	assert.Empty(t, p.FullnodeNetworkAddresses[0])
	assert.Equal(t, addr.Bytes(), p.ConsensusAddresses[0].Bytes()[12:])
	assert.Equal(t, []byte(cfg.ConsensusPublicKeys[0]), p.ConsensusPublicKeys[0])

	_, err = genesis.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	_, err = genesis.Parse([]byte("{"))
	assert.Error(t, err)
}

func TestParamsRejectsInconsistentFile(t *testing.T) {
	valid := func() *genesis.Config {
		cfg, err := genesis.Parse([]byte(validatorFile))
		require.NoError(t, err)
		return cfg
	}

	cfg := valid()
	cfg.AptosAddresses[0] = "0000000000000000000000000000000000000000000000000000000000000001"
	_, err := cfg.Params()
	assert.ErrorContains(t, err, "does not end with")

	cfg = valid()
	cfg.VotingPowers = append(cfg.VotingPowers, "1")
	_, err = cfg.Params()
	assert.ErrorContains(t, err, "votingPowers")

	cfg = valid()
	cfg.VotingPowers[0] = "lots"
	_, err = cfg.Params()
	assert.Error(t, err)

	cfg = valid()
	cfg.ValidatorAddresses[0] = "0x1234"
	_, err = cfg.Params()
	assert.Error(t, err)
}

func TestToWei(t *testing.T) {
	v, err := genesis.ToWei("2")
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18)), v)

	v, err = genesis.ToWei("0x10")
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(16), big.NewInt(1e18)), v)

	_, err = genesis.ToWei("-1")
	assert.Error(t, err)
}

const chainFile = `
launchTime: 1000000
epochIntervalMicrosecs: 7200000000
stake:
  minValidatorStake: "1000"
  maximumStake: "1000000"
  minDelegationStake: "1"
  recurringLockupDuration: 86400000000
  votingPowerIncreaseLimit: 20
  maxCommissionRate: 5000
  commissionUpdateCooldown: 86400000000
  allowValidatorSetChange: true
randomness:
  variant: v1
  secrecyThreshold: 1/2
  reconstructionThreshold: 2/3
accounts:
  - address: "0x6e9a3b8f2b2a0a7e4d2f8f4e0b61a2c1f5b1e001"
    balance: "5000"
`

func TestChainParams(t *testing.T) {
	p, err := genesis.LoadChainParams(writeFile(t, "chain.yaml", chainFile))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), p.LaunchTime)
	assert.Equal(t, uint64(7_200_000_000), p.EpochIntervalMicrosecs)

	stake, err := p.StakeConfig()
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000000", stake.MinValidatorStake.String())
	assert.True(t, stake.AllowValidatorSetChange)

	rnd, err := p.RandomnessConfig()
	require.NoError(t, err)
	assert.Equal(t, randomness.VariantV1, rnd.Variant)
	assert.Equal(t, randomness.Fraction(2, 3), rnd.ReconstructionThreshold)

	_, err = genesis.ParseChainParams([]byte("launchTime: 1\nunknownKey: 2\n"))
	assert.Error(t, err)
}

func TestChainParamsDefaults(t *testing.T) {
	p, err := genesis.ParseChainParams([]byte("launchTime: 1\n"))
	require.NoError(t, err)

	stake, err := p.StakeConfig()
	require.NoError(t, err)
	assert.NoError(t, stake.Validate())

	rnd, err := p.RandomnessConfig()
	require.NoError(t, err)
	assert.Equal(t, randomness.DefaultConfig(), rnd)
}

func TestRandomnessParams(t *testing.T) {
	tests := []struct {
		name    string
		params  genesis.RandomnessParams
		variant randomness.Variant
		wantErr bool
	}{
		{"off", genesis.RandomnessParams{Variant: "off"}, randomness.VariantOff, false},
		{"v2", genesis.RandomnessParams{Variant: "v2", SecrecyThreshold: "1/2", ReconstructionThreshold: "2/3", FastPathSecrecyThreshold: "2/3"}, randomness.VariantV2, false},
		{"reconstruction below secrecy", genesis.RandomnessParams{Variant: "v1", SecrecyThreshold: "2/3", ReconstructionThreshold: "1/2"}, 0, true},
		{"zero denominator", genesis.RandomnessParams{Variant: "v1", SecrecyThreshold: "1/0", ReconstructionThreshold: "1/2"}, 0, true},
		{"not a fraction", genesis.RandomnessParams{Variant: "v1", SecrecyThreshold: "0.5", ReconstructionThreshold: "1/2"}, 0, true},
		{"unknown variant", genesis.RandomnessParams{Variant: "v9"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &genesis.ChainParams{Randomness: &tt.params}
			cfg, err := p.RandomnessConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.variant, cfg.Variant)
		})
	}
}

func TestDevnetApply(t *testing.T) {
	g, err := genesis.NewDevnet(4)
	require.NoError(t, err)
	assert.Equal(t, "devnet", g.Name())

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	sys := builtin.New(state.New(db), builtin.Options{AddressCodec: genesis.BCSAddressCodec{MaxLen: 256}})
	require.NoError(t, g.Apply(sys))

	set, err := sys.Validators.ValidatorSet()
	require.NoError(t, err)
	require.Len(t, set.Active, 4)
	for i, acc := range genesis.DevAccounts()[:4] {
		assert.Equal(t, acc.Address, set.Active[i])
		v, err := sys.Validators.Get(acc.Address)
		require.NoError(t, err)
		assert.Equal(t, acc.ConsensusAddress(), v.ConsensusAddress)
	}

	bal, err := sys.State().GetBalance(genesis.DevAccounts()[7].Address)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000000000000", bal.String())

	assert.Error(t, g.Apply(sys))
}

func TestInspect(t *testing.T) {
	g, err := genesis.NewDevnet(3)
	require.NoError(t, err)

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	sys := builtin.New(state.New(db), builtin.Options{})
	require.NoError(t, g.Apply(sys))

	report, err := g.Inspect(sys)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), report.Epoch.Epoch)
	assert.Equal(t, g.Builtin().EpochInterval, report.Epoch.Interval)
	assert.Equal(t, g.Builtin().TimestampMicros, report.Epoch.LastTransitionTime)
	require.Len(t, report.Validators, 3)

	want := g.Builtin().Validators
	require.NoError(t, genesis.Verify(want, report.Validators))

	// tamper with copies so every field mismatch is reported
	active := make([]*validator.Validator, len(report.Validators))
	for i, v := range report.Validators {
		cp := *v
		active[i] = &cp
	}
	active[0].VotingPower = big.NewInt(1)
	active[1].FullnodeNetworkAddresses = []byte("elsewhere")
	active[2].Operator = thor.BytesToAddress([]byte("operator"))

	err = genesis.Verify(want, active)
	require.Error(t, err)
	assert.ErrorContains(t, err, "validator 0: voting power mismatch")
	assert.ErrorContains(t, err, "validator 1: fullnode network addresses mismatch")
	assert.ErrorContains(t, err, "validator 2: operator mismatch")

	assert.ErrorContains(t, genesis.Verify(want, active[:2]), "validator count mismatch")
}
