// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package randomness

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/acl"
	"github.com/scalarorg/gravity-genesis-contract-sub001/lvldb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

func newConfig(t *testing.T) *RandomnessConfig {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	r := New(thor.RandomnessConfigAddress, state.New(db))
	require.NoError(t, r.Initialize(thor.GenesisAddress, DefaultConfig()))
	return r
}

func TestFraction(t *testing.T) {
	assert.Equal(t, One, Fraction(1, 1))
	assert.Equal(t, new(uint256.Int).Rsh(One, 1), Fraction(1, 2))
	assert.True(t, Fraction(2, 3).Gt(Fraction(1, 2)))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   *Config
		valid bool
	}{
		{"off", Off(), true},
		{"v1", NewV1(Fraction(1, 2), Fraction(2, 3)), true},
		{"v1 equal thresholds", NewV1(Fraction(1, 2), Fraction(1, 2)), false},
		{"v1 reversed", NewV1(Fraction(2, 3), Fraction(1, 2)), false},
		{"v1 above one", NewV1(Fraction(1, 2), Fraction(3, 2)), false},
		{"v2", DefaultConfig(), true},
		{"v2 fast path equal", NewV2(Fraction(1, 2), Fraction(2, 3), Fraction(1, 2)), false},
		{"v2 fast path above one", NewV2(Fraction(1, 2), Fraction(2, 3), Fraction(5, 4)), false},
		{"unknown variant", &Config{Variant: 7}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfigVariant)
			}
		})
	}
}

func TestInitialize(t *testing.T) {
	r := newConfig(t)
	assert.ErrorIs(t, r.Initialize(thor.GenesisAddress, Off()), ErrAlreadyInitialized)

	enabled, err := r.Enabled()
	require.NoError(t, err)
	assert.True(t, enabled)

	_, ok, err := r.Pending()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRotation(t *testing.T) {
	r := newConfig(t)

	assert.ErrorIs(t, r.SetForNextEpoch(thor.SystemCallerAddress, Off()), acl.ErrOnlyGovernance)
	require.NoError(t, r.SetForNextEpoch(thor.GovHubAddress, Off()))

	pending, ok, err := r.Pending()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, VariantOff, pending.Variant)

	current, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, VariantV2, current.Variant)

	assert.ErrorIs(t, r.OnNewEpoch(thor.EpochManagerAddress, 1), acl.ErrOnlyReconfiguration)
	require.NoError(t, r.OnNewEpoch(thor.ReconfigurationWithDKGAddress, 1))

	enabled, err := r.Enabled()
	require.NoError(t, err)
	assert.False(t, enabled)
	_, ok, err = r.Pending()
	require.NoError(t, err)
	assert.False(t, ok)

	// nothing staged leaves the current config alone
	require.NoError(t, r.OnNewEpoch(thor.ReconfigurationWithDKGAddress, 2))
	current, err = r.Current()
	require.NoError(t, err)
	assert.Equal(t, VariantOff, current.Variant)
}

// Scenario E: a V2 config whose fast path threshold does not exceed the secrecy threshold is
// rejected and leaves the current config unchanged.
func TestRejectInvalidV2(t *testing.T) {
	r := newConfig(t)
	before, err := r.Current()
	require.NoError(t, err)

	bad := NewV2(Fraction(1, 2), Fraction(2, 3), Fraction(1, 3))
	assert.ErrorIs(t, r.SetForNextEpoch(thor.GovHubAddress, bad), ErrInvalidConfigVariant)

	_, ok, err := r.Pending()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.OnNewEpoch(thor.ReconfigurationWithDKGAddress, 1))
	after, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
