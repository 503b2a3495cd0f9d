// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/kv"
	"github.com/accretefi/accrete/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// State manages the world state: per-account native balance and keyed storage,
// layered over a kv store with save-restore checkpoints.
type State struct {
	db    kv.GetPutter
	cache *readCache
	sm    *stackedmap.StackedMap // keeps revisions of state
}

// New creates a state over the given kv store.
func New(db kv.GetPutter) *State {
	return newState(db, newReadCache())
}

func newState(db kv.GetPutter, cache *readCache) *State {
	state := State{
		db:    db,
		cache: cache,
	}
	state.sm = stackedmap.New(func(key any) (any, bool, error) {
		return state.cacheGetter(key)
	})

	// initially has one stack depth
	state.sm.Push()
	return &state
}

// keys of stacked map entries.
type (
	balanceKey accrete.Address
	storageKey struct {
		addr accrete.Address
		key  accrete.Bytes32
	}
)

func (s *State) cacheGetter(key any) (value any, exist bool, err error) {
	switch k := key.(type) {
	case balanceKey:
		raw, err := s.loadRaw(balanceDBKey(accrete.Address(k)))
		if err != nil {
			return nil, false, err
		}
		if len(raw) == 0 {
			return &big.Int{}, true, nil
		}
		var balance big.Int
		if err := rlp.DecodeBytes(raw, &balance); err != nil {
			return nil, false, err
		}
		return &balance, true, nil
	case storageKey:
		raw, err := s.loadRaw(storageDBKey(k.addr, k.key))
		if err != nil {
			return nil, false, err
		}
		return rlp.RawValue(raw), true, nil
	}
	return nil, false, nil
}

// loadRaw reads a raw value from the backing store, going through the shared
// read cache. A missing key yields a nil value.
func (s *State) loadRaw(dbKey []byte) ([]byte, error) {
	if raw, ok := s.cache.Get(dbKey); ok {
		return raw, nil
	}
	raw, err := s.db.Get(dbKey)
	if err != nil {
		if s.db.IsNotFound(err) {
			s.cache.Add(dbKey, nil)
			return nil, nil
		}
		return nil, &Error{err}
	}
	s.cache.Add(dbKey, raw)
	return raw, nil
}

// GetBalance returns native balance of the account.
func (s *State) GetBalance(addr accrete.Address) (*big.Int, error) {
	v, _, err := s.sm.Get(balanceKey(addr))
	if err != nil {
		return nil, err
	}
	return v.(*big.Int), nil
}

// SetBalance sets native balance of the account.
func (s *State) SetBalance(addr accrete.Address, balance *big.Int) {
	s.sm.Put(balanceKey(addr), balance)
}

// GetRawStorage returns storage value in rlp raw for given key.
func (s *State) GetRawStorage(addr accrete.Address, key accrete.Bytes32) (rlp.RawValue, error) {
	v, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, err
	}
	return v.(rlp.RawValue), nil
}

// SetRawStorage sets storage value in rlp raw.
// An empty value clears the storage slot.
func (s *State) SetRawStorage(addr accrete.Address, key accrete.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// GetStorage returns storage value for the given key.
func (s *State) GetStorage(addr accrete.Address, key accrete.Bytes32) (accrete.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return accrete.Bytes32{}, err
	}
	if len(raw) == 0 {
		return accrete.Bytes32{}, nil
	}
	_, content, _, err := rlp.Split(raw)
	if err != nil {
		return accrete.Bytes32{}, &Error{err}
	}
	return accrete.BytesToBytes32(content), nil
}

// SetStorage sets storage value for the given key.
// Zero value clears the slot.
func (s *State) SetStorage(addr accrete.Address, key, value accrete.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(trimLeadingZeros(value.Bytes()))
	s.SetRawStorage(addr, key, v)
}

// DecodeStorage decodes the storage value for the given key with the decoder fn.
// An absent slot is passed to the decoder as an empty byte slice.
func (s *State) DecodeStorage(addr accrete.Address, key accrete.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// EncodeStorage encodes the storage value for the given key with the encoder fn.
// A nil encoding clears the slot.
func (s *State) EncodeStorage(addr accrete.Address, key accrete.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// NewCheckpoint makes a checkpoint of the current state.
// It returns a checkpoint revision.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts the state to the given checkpoint revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage collects all changes into a stage that can be committed to the
// backing store in one batch.
func (s *State) Stage() *Stage {
	changes := make(map[string][]byte)
	s.sm.Journal(func(key, value any) bool {
		switch k := key.(type) {
		case balanceKey:
			balance := value.(*big.Int)
			if balance.Sign() == 0 {
				changes[string(balanceDBKey(accrete.Address(k)))] = nil
			} else {
				enc, _ := rlp.EncodeToBytes(balance)
				changes[string(balanceDBKey(accrete.Address(k)))] = enc
			}
		case storageKey:
			changes[string(storageDBKey(k.addr, k.key))] = value.(rlp.RawValue)
		}
		return true
	})
	return &Stage{db: s.db, cache: s.cache, changes: changes}
}

func trimLeadingZeros(b []byte) []byte {
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	return b
}
