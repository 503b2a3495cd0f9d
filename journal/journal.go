// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package journal persists the events of applied operations to the kv store,
// indexed by operation sequence number. The journal is the source of truth
// the queryable event store is derived from.
package journal

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/accretefi/accrete/kv"
	"github.com/accretefi/accrete/runtime"
)

var bucket = kv.Bucket("j")

// Journal is the seq-indexed event journal over a kv store.
type Journal struct {
	store kv.GetPutter
}

// New creates a journal over the given kv store.
func New(src kv.GetPutter) *Journal {
	return &Journal{bucket.NewStore(src)}
}

func seqKey(seq uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)
	return key[:]
}

// Append records the events of the operation with the given sequence number.
// Appending an empty event set still writes a record, so NewestSeq tracks
// every applied operation.
func (j *Journal) Append(seq uint64, events []*runtime.Event) error {
	data, err := rlp.EncodeToBytes(events)
	if err != nil {
		return errors.Wrap(err, "encode journal record")
	}
	return j.store.Put(seqKey(seq), data)
}

// Get returns the events recorded for the given sequence number.
func (j *Journal) Get(seq uint64) ([]*runtime.Event, error) {
	data, err := j.store.Get(seqKey(seq))
	if err != nil {
		if j.store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var events []*runtime.Event
	if err := rlp.DecodeBytes(data, &events); err != nil {
		return nil, errors.Wrap(err, "decode journal record")
	}
	return events, nil
}

// NewestSeq returns the highest recorded sequence number and whether any
// record exists.
func (j *Journal) NewestSeq() (uint64, bool, error) {
	iter := j.store.NewIterator(kv.Range{})
	defer iter.Release()

	var (
		newest uint64
		found  bool
	)
	for iter.Next() {
		newest = binary.BigEndian.Uint64(iter.Key())
		found = true
	}
	if err := iter.Error(); err != nil {
		return 0, false, err
	}
	return newest, found, nil
}

// Walk iterates records in sequence order starting at from, invoking cb for
// each. Returning false from cb stops the walk.
func (j *Journal) Walk(from uint64, cb func(seq uint64, events []*runtime.Event) bool) error {
	iter := j.store.NewIterator(kv.Range{From: seqKey(from)})
	defer iter.Release()

	for iter.Next() {
		var events []*runtime.Event
		if err := rlp.DecodeBytes(iter.Value(), &events); err != nil {
			return errors.Wrap(err, "decode journal record")
		}
		if !cb(binary.BigEndian.Uint64(iter.Key()), events) {
			break
		}
	}
	return iter.Error()
}
