// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"strings"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBCSString(t *testing.T) {
	assert.Equal(t, []byte{0}, EncodeBCSString(""))
	assert.Equal(t, append([]byte{3}, "abc"...), EncodeBCSString("abc"))

	long := strings.Repeat("x", 200)
	enc := EncodeBCSString(long)
	assert.Equal(t, []byte{0xc8, 0x01}, enc[:2])
	assert.Len(t, enc, 202)
}

func TestDecodeBCSString(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    string
		wantErr bool
	}{
		{"empty string", []byte{0}, "", false},
		{"ascii", append([]byte{5}, "hello"...), "hello", false},
		{"no prefix", nil, "", true},
		{"truncated", append([]byte{6}, "hello"...), "", true},
		{"trailing", append([]byte{4}, "hello"...), "", true},
		{"non canonical", append([]byte{0x85, 0x00}, "hello"...), "", true},
		{"bad utf8", []byte{2, 0xff, 0xfe}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBCSString(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBCSRoundTripFuzz(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for i := 0; i < 200; i++ {
		var s string
		f.Fuzz(&s)
		got, err := DecodeBCSString(EncodeBCSString(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestBCSAddressCodec(t *testing.T) {
	codec := BCSAddressCodec{MaxLen: 8}

	assert.NoError(t, codec.Validate(nil))
	assert.NoError(t, codec.Validate(EncodeBCSString("/ip4/1")))
	assert.Error(t, codec.Validate(EncodeBCSString("")))
	assert.Error(t, codec.Validate(EncodeBCSString("/ip4/127.0.0.1")))
	assert.Error(t, codec.Validate([]byte("raw")))
	assert.NoError(t, BCSAddressCodec{}.Validate(EncodeBCSString(strings.Repeat("a", 1000))))
}
