// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const AddressLength = common.AddressLength

// Address identifies a validator, a stake holder or a built-in contract.
type Address common.Address

var (
	_ json.Marshaler   = Address{}
	_ json.Unmarshaler = (*Address)(nil)
)

func (a Address) String() string {
	return hexutil.Encode(a[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	return unmarshalFixedHex(data, a[:])
}

// ParseAddress accepts 40 hex digits with or without the 0x prefix.
func ParseAddress(s string) (addr Address, err error) {
	err = decodeFixedHex(s, addr[:])
	return
}

func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// BytesToAddress keeps the trailing 20 bytes of b, left padding shorter input.
func BytesToAddress(b []byte) Address {
	return Address(common.BytesToAddress(b))
}
