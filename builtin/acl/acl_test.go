// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package acl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

func TestRequire(t *testing.T) {
	stranger := thor.BytesToAddress([]byte("stranger"))

	tests := []struct {
		name    string
		cap     Capability
		allowed thor.Address
		err     error
	}{
		{"system", SystemCaller, thor.SystemCallerAddress, ErrOnlySystemCaller},
		{"genesis", Genesis, thor.GenesisAddress, ErrOnlyGenesis},
		{"epoch", EpochManager, thor.EpochManagerAddress, ErrOnlyEpochManager},
		{"reconfig", Reconfiguration, thor.ReconfigurationWithDKGAddress, ErrOnlyReconfiguration},
		{"governance", Governance, thor.GovHubAddress, ErrOnlyGovernance},
		{"timelock", Governance, thor.TimelockAddress, ErrOnlyGovernance},
		{"consensus client", ConsensusClient, thor.SystemCallerAddress, ErrOnlySystemCaller},
		{"administrator", Administrator, thor.SystemCallerAddress, ErrOnlyGovernance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, Require(tt.allowed, tt.cap))

			err := Require(stranger, tt.cap)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, reverts.Authorization, reverts.KindOf(err))
		})
	}
}

func TestRequireOperator(t *testing.T) {
	op := thor.BytesToAddress([]byte("op"))
	assert.NoError(t, RequireOperator(op, op))
	assert.ErrorIs(t, RequireOperator(thor.Address{}, op), ErrNotValidatorOperator)
}
