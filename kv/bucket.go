// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Bucket provides a logical key-prefixed view over a kv store.
type Bucket string

type bucketStore struct {
	prefix string
	src    GetPutter
}

// NewStore creates a bucket store over the source store.
func (b Bucket) NewStore(src GetPutter) GetPutter {
	return &bucketStore{string(b), src}
}

func (s *bucketStore) makeKey(key []byte) []byte {
	return append(append(make([]byte, 0, len(s.prefix)+len(key)), s.prefix...), key...)
}

func (s *bucketStore) Get(key []byte) ([]byte, error) {
	return s.src.Get(s.makeKey(key))
}

func (s *bucketStore) Has(key []byte) (bool, error) {
	return s.src.Has(s.makeKey(key))
}

func (s *bucketStore) IsNotFound(err error) bool {
	return s.src.IsNotFound(err)
}

func (s *bucketStore) Put(key, value []byte) error {
	return s.src.Put(s.makeKey(key), value)
}

func (s *bucketStore) Delete(key []byte) error {
	return s.src.Delete(s.makeKey(key))
}

func (s *bucketStore) NewBatch() Batch {
	return &bucketBatch{s, s.src.NewBatch()}
}

func (s *bucketStore) NewIterator(r Range) Iterator {
	from := s.makeKey(r.From)
	var to []byte
	if len(r.To) == 0 {
		to = util.BytesPrefix([]byte(s.prefix)).Limit
	} else {
		to = s.makeKey(r.To)
	}
	return &bucketIterator{len(s.prefix), s.src.NewIterator(Range{From: from, To: to})}
}

type bucketBatch struct {
	store *bucketStore
	batch Batch
}

func (b *bucketBatch) Put(key, value []byte) error {
	return b.batch.Put(b.store.makeKey(key), value)
}

func (b *bucketBatch) Delete(key []byte) error {
	return b.batch.Delete(b.store.makeKey(key))
}

func (b *bucketBatch) NewBatch() Batch { return b.store.NewBatch() }
func (b *bucketBatch) Len() int        { return b.batch.Len() }
func (b *bucketBatch) Write() error    { return b.batch.Write() }

type bucketIterator struct {
	prefixLen int
	iter      Iterator
}

func (i *bucketIterator) Next() bool    { return i.iter.Next() }
func (i *bucketIterator) Release()      { i.iter.Release() }
func (i *bucketIterator) Error() error  { return i.iter.Error() }
func (i *bucketIterator) Key() []byte   { return i.iter.Key()[i.prefixLen:] }
func (i *bucketIterator) Value() []byte { return i.iter.Value() }
