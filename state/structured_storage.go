// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/accretefi/accrete/accrete"
)

// StorageEncoder the interface of custom storage encoding.
// An empty value should encode to nil, which clears the slot.
type StorageEncoder interface {
	Encode() ([]byte, error)
}

// StorageDecoder the interface of custom storage decoding.
// The decoder must accept an empty byte slice as the zero value.
type StorageDecoder interface {
	Decode([]byte) error
}

// GetStructuredStorage loads the storage value for the given key into val.
// val may implement StorageDecoder; otherwise a set of common types is
// handled, with an absent slot decoding to the zero value.
func (s *State) GetStructuredStorage(addr accrete.Address, key accrete.Bytes32, val any) error {
	return s.DecodeStorage(addr, key, func(raw []byte) error {
		if dec, ok := val.(StorageDecoder); ok {
			return dec.Decode(raw)
		}
		switch v := val.(type) {
		case *big.Int:
			if len(raw) == 0 {
				v.SetInt64(0)
				return nil
			}
			return rlp.DecodeBytes(raw, v)
		case *uint64:
			if len(raw) == 0 {
				*v = 0
				return nil
			}
			return rlp.DecodeBytes(raw, v)
		case *bool:
			if len(raw) == 0 {
				*v = false
				return nil
			}
			return rlp.DecodeBytes(raw, v)
		case *accrete.Address:
			if len(raw) == 0 {
				*v = accrete.Address{}
				return nil
			}
			_, content, _, err := rlp.Split(raw)
			if err != nil {
				return err
			}
			*v = accrete.BytesToAddress(content)
			return nil
		case *accrete.Bytes32:
			if len(raw) == 0 {
				*v = accrete.Bytes32{}
				return nil
			}
			_, content, _, err := rlp.Split(raw)
			if err != nil {
				return err
			}
			*v = accrete.BytesToBytes32(content)
			return nil
		default:
			if len(raw) == 0 {
				return nil
			}
			return rlp.DecodeBytes(raw, val)
		}
	})
}

// SetStructuredStorage stores val under the given key.
// val may implement StorageEncoder; otherwise a set of common types is
// handled, with the zero value clearing the slot.
func (s *State) SetStructuredStorage(addr accrete.Address, key accrete.Bytes32, val any) error {
	return s.EncodeStorage(addr, key, func() ([]byte, error) {
		if enc, ok := val.(StorageEncoder); ok {
			return enc.Encode()
		}
		switch v := val.(type) {
		case *big.Int:
			if v.Sign() == 0 {
				return nil, nil
			}
			return rlp.EncodeToBytes(v)
		case uint64:
			if v == 0 {
				return nil, nil
			}
			return rlp.EncodeToBytes(v)
		case bool:
			if !v {
				return nil, nil
			}
			return rlp.EncodeToBytes(v)
		case accrete.Address:
			if v.IsZero() {
				return nil, nil
			}
			return rlp.EncodeToBytes(bytes.TrimLeft(v.Bytes(), "\x00"))
		case accrete.Bytes32:
			if v.IsZero() {
				return nil, nil
			}
			return rlp.EncodeToBytes(bytes.TrimLeft(v.Bytes(), "\x00"))
		default:
			return rlp.EncodeToBytes(val)
		}
	})
}
