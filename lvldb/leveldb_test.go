// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/accretefi/accrete/kv"
)

func TestGetPut(t *testing.T) {
	db, err := NewMem()
	assert.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("absent"))
	assert.True(t, db.IsNotFound(err))

	assert.NoError(t, db.Put([]byte("key"), []byte("value")))

	v, err := db.Get([]byte("key"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	has, err := db.Has([]byte("key"))
	assert.NoError(t, err)
	assert.True(t, has)

	assert.NoError(t, db.Delete([]byte("key")))
	has, err = db.Has([]byte("key"))
	assert.NoError(t, err)
	assert.False(t, has)
}

func TestBatch(t *testing.T) {
	db, err := NewMem()
	assert.NoError(t, err)
	defer db.Close()

	batch := db.NewBatch()
	assert.NoError(t, batch.Put([]byte("k1"), []byte("v1")))
	assert.NoError(t, batch.Put([]byte("k2"), []byte("v2")))
	assert.Equal(t, 2, batch.Len())

	// nothing visible until written
	has, _ := db.Has([]byte("k1"))
	assert.False(t, has)

	assert.NoError(t, batch.Write())

	v, err := db.Get([]byte("k2"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)
}

func TestIterator(t *testing.T) {
	db, err := NewMem()
	assert.NoError(t, err)
	defer db.Close()

	for _, k := range []string{"a1", "a2", "b1"} {
		assert.NoError(t, db.Put([]byte(k), []byte(k)))
	}

	iter := db.NewIterator(kv.Range{From: []byte("a"), To: []byte("b")})
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	assert.NoError(t, iter.Error())
	assert.Equal(t, []string{"a1", "a2"}, keys)
}
