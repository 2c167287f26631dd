// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package acl guards privileged built-in operations.
package acl

import (
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin/reverts"
	"github.com/scalarorg/gravity-genesis-contract-sub001/thor"
)

var (
	ErrOnlySystemCaller     = reverts.New(reverts.Authorization, "OnlySystemCaller", "caller is not the system caller")
	ErrOnlyGenesis          = reverts.New(reverts.Authorization, "OnlyGenesis", "caller is not the genesis contract")
	ErrOnlyEpochManager     = reverts.New(reverts.Authorization, "OnlyEpochManager", "caller is not the epoch manager")
	ErrOnlyReconfiguration  = reverts.New(reverts.Authorization, "OnlyReconfiguration", "caller is not the reconfiguration contract")
	ErrOnlyGovernance       = reverts.New(reverts.Authorization, "OnlyGovernance", "caller is not governance")
	ErrNotValidatorOperator = reverts.New(reverts.Authorization, "NotValidatorOperator", "caller is not the validator operator")
	ErrNotStakeHolder       = reverts.New(reverts.Authorization, "NotStakeHolder", "caller does not own the stake request")
)

// Capability names a set of callers that may invoke an operation.
type Capability struct {
	err     error
	callers []thor.Address
}

var (
	SystemCaller    = Capability{ErrOnlySystemCaller, []thor.Address{thor.SystemCallerAddress}}
	Genesis         = Capability{ErrOnlyGenesis, []thor.Address{thor.GenesisAddress, thor.SystemCallerAddress}}
	EpochManager    = Capability{ErrOnlyEpochManager, []thor.Address{thor.EpochManagerAddress}}
	Reconfiguration = Capability{ErrOnlyReconfiguration, []thor.Address{thor.ReconfigurationWithDKGAddress}}
	Governance      = Capability{ErrOnlyGovernance, []thor.Address{thor.GovHubAddress, thor.GovernorAddress, thor.TimelockAddress}}
	// BlockDriver may drive the per-block prologue.
	BlockDriver = Capability{ErrOnlySystemCaller, []thor.Address{thor.SystemCallerAddress}}
	// ConsensusClient may submit DKG results.
	ConsensusClient = Capability{ErrOnlySystemCaller, []thor.Address{thor.SystemCallerAddress}}
	// Administrator may force a reconfiguration.
	Administrator = Capability{ErrOnlyGovernance, []thor.Address{
		thor.SystemCallerAddress, thor.GovHubAddress, thor.GovernorAddress, thor.TimelockAddress,
	}}
)

// Allows reports whether caller holds the capability.
func (c Capability) Allows(caller thor.Address) bool {
	for _, allowed := range c.callers {
		if caller == allowed {
			return true
		}
	}
	return false
}

// Require returns the capability's typed authorization error unless caller holds it.
func Require(caller thor.Address, c Capability) error {
	if c.Allows(caller) {
		return nil
	}
	return errors.Wrapf(c.err, "caller %v", caller)
}

// RequireOperator checks caller against the recorded operator of a validator.
func RequireOperator(caller, operator thor.Address) error {
	if caller == operator {
		return nil
	}
	return errors.Wrapf(ErrNotValidatorOperator, "caller %v", caller)
}
