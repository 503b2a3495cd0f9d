// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accrete

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.NoError(t, err)
	assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())

	_, err = ParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed00")
	assert.Error(t, err)

	_, err = ParseAddress("7x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.Error(t, err)
}

func TestAddressJSON(t *testing.T) {
	raw := `"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"`

	var addr Address
	assert.NoError(t, json.Unmarshal([]byte(raw), &addr))

	data, err := json.Marshal(&addr)
	assert.NoError(t, err)
	assert.Equal(t, raw, string(data))
}

func TestBytes32JSON(t *testing.T) {
	raw := `"0x00000000000000000000000000000000000000000000000000006d6173746572"`

	var b32 Bytes32
	assert.NoError(t, json.Unmarshal([]byte(raw), &b32))

	data, err := json.Marshal(b32)
	assert.NoError(t, err)
	assert.Equal(t, raw, string(data))
}

func TestBytesToBytes32(t *testing.T) {
	assert.Equal(t, Bytes32{}, BytesToBytes32(nil))
	assert.Equal(t, Bytes32{31: 1}, BytesToBytes32([]byte{1}))
	// cropped from the left
	assert.Equal(t, BytesToBytes32(make([]byte, 33)), Bytes32{})
}

func TestBlake2b(t *testing.T) {
	// multi-part hashing equals hashing the concatenation
	assert.Equal(t, Blake2b([]byte("hello"), []byte("world")), Blake2b([]byte("helloworld")))
	assert.False(t, Blake2b([]byte("hello")).IsZero())
}

func TestCreateVaultAddress(t *testing.T) {
	factory := BytesToAddress([]byte("factory"))
	principal := BytesToAddress([]byte("principal"))

	a0 := CreateVaultAddress(factory, principal, 0)
	a1 := CreateVaultAddress(factory, principal, 1)
	assert.NotEqual(t, a0, a1)
	// deterministic
	assert.Equal(t, a0, CreateVaultAddress(factory, principal, 0))
}
