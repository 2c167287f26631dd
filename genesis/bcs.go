// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// EncodeBCSString encodes s the way BCS encodes a string: a ULEB128 length followed by the
// UTF-8 bytes.
func EncodeBCSString(s string) []byte {
	out := binary.AppendUvarint(make([]byte, 0, len(s)+binary.MaxVarintLen32), uint64(len(s)))
	return append(out, s...)
}

// DecodeBCSString decodes a BCS string that spans the whole of b.
func DecodeBCSString(b []byte) (string, error) {
	n, size := binary.Uvarint(b)
	if size <= 0 {
		return "", errors.New("bcs: malformed length prefix")
	}
	// canonical ULEB128 carries no trailing zero groups
	if size > 1 && b[size-1] == 0 {
		return "", errors.New("bcs: non-canonical length prefix")
	}
	if n > uint64(len(b)-size) {
		return "", fmt.Errorf("bcs: length %d exceeds %d remaining bytes", n, len(b)-size)
	}
	if uint64(len(b)-size) != n {
		return "", fmt.Errorf("bcs: %d trailing bytes", uint64(len(b)-size)-n)
	}
	s := b[size:]
	if !utf8.Valid(s) {
		return "", errors.New("bcs: invalid utf-8")
	}
	return string(s), nil
}

// BCSAddressCodec accepts network address blobs that are empty or hold exactly one BCS encoded,
// non-empty string of at most MaxLen bytes. MaxLen 0 means unbounded.
type BCSAddressCodec struct {
	MaxLen int
}

// Validate implements validator.AddressCodec.
func (c BCSAddressCodec) Validate(blob []byte) error {
	if len(blob) == 0 {
		return nil
	}
	s, err := DecodeBCSString(blob)
	if err != nil {
		return err
	}
	if s == "" {
		return errors.New("bcs: empty address")
	}
	if c.MaxLen > 0 && len(s) > c.MaxLen {
		return fmt.Errorf("bcs: address of %d bytes exceeds %d", len(s), c.MaxLen)
	}
	return nil
}
