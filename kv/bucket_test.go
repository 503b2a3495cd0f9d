// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/accretefi/accrete/kv"
	"github.com/accretefi/accrete/lvldb"
)

func TestBucket(t *testing.T) {
	db, err := lvldb.NewMem()
	assert.NoError(t, err)
	defer db.Close()

	b1 := kv.Bucket("b1-").NewStore(db)
	b2 := kv.Bucket("b2-").NewStore(db)

	assert.NoError(t, b1.Put([]byte("key"), []byte("v1")))
	assert.NoError(t, b2.Put([]byte("key"), []byte("v2")))

	v, err := b1.Get([]byte("key"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	v, err = b2.Get([]byte("key"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	// raw keys carry the prefix
	v, err = db.Get([]byte("b1-key"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	// iteration is scoped to the bucket and strips the prefix
	assert.NoError(t, b1.Put([]byte("key2"), []byte("v3")))
	iter := b1.NewIterator(kv.Range{})
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	assert.NoError(t, iter.Error())
	assert.Equal(t, []string{"key", "key2"}, keys)

	_, err = b1.Get([]byte("absent"))
	assert.True(t, b1.IsNotFound(err))
}
