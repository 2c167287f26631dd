// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

// Addresses of the built-in system contracts.
var (
	SystemCallerAddress           = MustParseAddress("0x0000000000000000000000000000000000002000")
	GenesisAddress                = MustParseAddress("0x0000000000000000000000000000000000002008")
	PerformanceTrackerAddress     = MustParseAddress("0x000000000000000000000000000000000000200f")
	EpochManagerAddress           = MustParseAddress("0x0000000000000000000000000000000000002010")
	StakeConfigAddress            = MustParseAddress("0x0000000000000000000000000000000000002011")
	ValidatorManagerAddress       = MustParseAddress("0x0000000000000000000000000000000000002013")
	TimestampAddress              = MustParseAddress("0x0000000000000000000000000000000000002017")
	GovHubAddress                 = MustParseAddress("0x000000000000000000000000000000000000201b")
	GovernorAddress               = MustParseAddress("0x000000000000000000000000000000000000201e")
	TimelockAddress               = MustParseAddress("0x000000000000000000000000000000000000201f")
	RandomnessConfigAddress       = MustParseAddress("0x0000000000000000000000000000000000002020")
	DKGAddress                    = MustParseAddress("0x0000000000000000000000000000000000002021")
	ReconfigurationWithDKGAddress = MustParseAddress("0x0000000000000000000000000000000000002022")
)

// StakeCreditAddress derives the address holding the stake ledger of a validator.
func StakeCreditAddress(validator Address) Address {
	return BytesToAddress(Blake2b([]byte("stake-credit"), validator[:]).Bytes()[12:])
}
