// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/kv"
)

const readCacheSize = 4096

// Stater is the factory of state instances sharing one read cache.
type Stater struct {
	db    kv.GetPutter
	cache *readCache
}

// NewStater creates a stater over the given kv store.
func NewStater(db kv.GetPutter) *Stater {
	return &Stater{db, newReadCache()}
}

// NewState creates a fresh state instance.
func (s *Stater) NewState() *State {
	return newState(s.db, s.cache)
}

// readCache caches raw reads of the backing store, keyed by the raw db key.
type readCache struct {
	cache *lru.Cache
}

func newReadCache() *readCache {
	c, _ := lru.New(readCacheSize)
	return &readCache{c}
}

func (rc *readCache) Get(key []byte) ([]byte, bool) {
	if v, ok := rc.cache.Get(string(key)); ok {
		if v == nil {
			return nil, true
		}
		return v.([]byte), true
	}
	return nil, false
}

func (rc *readCache) Add(key, value []byte) {
	if len(value) == 0 {
		rc.cache.Add(string(key), nil)
		return
	}
	rc.cache.Add(string(key), value)
}

// db key layout.
func balanceDBKey(addr accrete.Address) []byte {
	return append([]byte("a"), addr.Bytes()...)
}

func storageDBKey(addr accrete.Address, key accrete.Bytes32) []byte {
	k := make([]byte, 0, 1+accrete.AddressLength+32)
	k = append(k, 's')
	k = append(k, addr.Bytes()...)
	return append(k, key.Bytes()...)
}
