// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x0000000000000000000000000000000000002000")
	assert.NoError(t, err)
	assert.Equal(t, SystemCallerAddress, addr)

	_, err = ParseAddress("0x1234")
	assert.Error(t, err)

	_, err = ParseAddress("1x0000000000000000000000000000000000002000")
	assert.Error(t, err)

	addr, err = ParseAddress("0000000000000000000000000000000000002008")
	assert.NoError(t, err)
	assert.Equal(t, GenesisAddress, addr)
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("validator"))
	data, err := json.Marshal(addr)
	assert.NoError(t, err)
	assert.Equal(t, `"`+addr.String()+`"`, string(data))

	var decoded Address
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}

func TestBytes32JSON(t *testing.T) {
	originalHex := `"0x00000000000000000000000000000000000000000000000000006d6173746572"`

	var b Bytes32
	assert.NoError(t, json.Unmarshal([]byte(originalHex), &b))
	assert.Equal(t, BytesToBytes32([]byte("master")), b)

	out, err := json.Marshal(b)
	assert.NoError(t, err)
	assert.Equal(t, originalHex, string(out))
}

func TestStakeCreditAddress(t *testing.T) {
	v1 := BytesToAddress([]byte("v1"))
	v2 := BytesToAddress([]byte("v2"))

	assert.Equal(t, StakeCreditAddress(v1), StakeCreditAddress(v1))
	assert.NotEqual(t, StakeCreditAddress(v1), StakeCreditAddress(v2))
	assert.NotEqual(t, v1, StakeCreditAddress(v1))
}

func TestBlake2b(t *testing.T) {
	assert.Equal(t, Blake2b([]byte("ab")), Blake2b([]byte("a"), []byte("b")))
}

func TestParseBytes32(t *testing.T) {
	b, err := ParseBytes32("0X" + "00000000000000000000000000000000000000000000000000000000000000ff")
	assert.NoError(t, err)
	assert.Equal(t, BytesToBytes32([]byte{0xff}), b)

	_, err = ParseBytes32("0xff")
	assert.Error(t, err)
	_, err = ParseBytes32("0x" + strings.Repeat("zz", 32))
	assert.Error(t, err)
}

func TestAddressString(t *testing.T) {
	addr := MustParseAddress("0x000000000000000000000000000000000000ABCD")
	assert.Equal(t, "0x000000000000000000000000000000000000abcd", addr.String())
	assert.Panics(t, func() { MustParseAddress("nope") })
}
