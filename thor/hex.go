// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// decodeFixedHex fills out from s, which must carry exactly len(out) bytes with an optional
// 0x prefix.
func decodeFixedHex(s string, out []byte) error {
	if len(s) == 2*len(out)+2 {
		if !strings.EqualFold(s[:2], "0x") {
			return fmt.Errorf("invalid prefix %q", s[:2])
		}
		s = s[2:]
	}
	if len(s) != 2*len(out) {
		return fmt.Errorf("invalid length %d, want %d bytes", len(s), len(out))
	}
	_, err := hex.Decode(out, []byte(s))
	return err
}

func unmarshalFixedHex(data []byte, out []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return decodeFixedHex(s, out)
}

// Blake2b is the blake2b-256 digest of the concatenated data.
func Blake2b(data ...[]byte) Bytes32 {
	h, _ := blake2b.New256(nil)
	for _, b := range data {
		h.Write(b)
	}
	var out Bytes32
	h.Sum(out[:0])
	return out
}
