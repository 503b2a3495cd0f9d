// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"io"
	"sort"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/kv"
)

// Stage abstracts pending changes to the backing kv store.
type Stage struct {
	db      kv.GetPutter
	cache   *readCache
	changes map[string][]byte
}

// Hash returns the digest of the pending changes, computed over key/value
// pairs in key order. Identical change sets hash identically regardless of
// the order they were produced in.
func (stage *Stage) Hash() accrete.Bytes32 {
	keys := make([]string, 0, len(stage.changes))
	for key := range stage.changes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return accrete.Blake2bFn(func(w io.Writer) {
		for _, key := range keys {
			w.Write([]byte(key))
			w.Write(stage.changes[key])
		}
	})
}

// Commit commits the changes in one batch.
func (stage *Stage) Commit() error {
	batch := stage.db.NewBatch()
	for key, value := range stage.changes {
		if len(value) == 0 {
			if err := batch.Delete([]byte(key)); err != nil {
				return &Error{err}
			}
		} else {
			if err := batch.Put([]byte(key), value); err != nil {
				return &Error{err}
			}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	// keep the shared read cache in sync with the store
	for key, value := range stage.changes {
		stage.cache.Add([]byte(key), value)
	}
	return nil
}
