// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/journal"
	"github.com/accretefi/accrete/logdb"
	"github.com/accretefi/accrete/lvldb"
	"github.com/accretefi/accrete/runtime"
)

var (
	stakingAddr = accrete.BytesToAddress([]byte("Staking"))
	vaultsAddr  = accrete.BytesToAddress([]byte("Vaults"))
)

func makeEvent(seq uint64, address accrete.Address, name string, topic []byte) *runtime.Event {
	ev := &runtime.Event{
		Seq:     seq,
		Time:    seq * 10,
		Address: address,
		Name:    name,
		Data:    []byte("data"),
	}
	if topic != nil {
		ev.Topics = []accrete.Bytes32{accrete.BytesToHash(topic)}
	}
	return ev
}

func TestInsertAndFilter(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	var events []*runtime.Event
	for seq := uint64(0); seq < 100; seq++ {
		name := "Staked"
		addr := stakingAddr
		if seq%2 == 1 {
			name = "Unstaked"
		}
		if seq%10 == 0 {
			addr = vaultsAddr
		}
		events = append(events, makeEvent(seq, addr, name, []byte("alice")))
	}
	require.NoError(t, db.Insert(events))

	newest, found, err := db.NewestSeq()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(99), newest)

	// unfiltered
	got, err := db.Filter(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, got, 100)

	// by name within a seq range, limited
	got, err = db.Filter(context.Background(), &logdb.Filter{
		CriteriaSet: []*logdb.Criteria{{Name: "Staked"}},
		Range:       &logdb.Range{From: 0, To: 19},
		Options:     &logdb.Options{Offset: 0, Limit: 5},
	})
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, ev := range got {
		assert.Equal(t, "Staked", ev.Name)
	}

	// by address, descending
	got, err = db.Filter(context.Background(), &logdb.Filter{
		CriteriaSet: []*logdb.Criteria{{Address: &vaultsAddr}},
		Order:       logdb.DESC,
	})
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.Equal(t, uint64(90), got[0].Seq)

	// by topic
	topic := accrete.BytesToBytes32([]byte("alice"))
	got, err = db.Filter(context.Background(), &logdb.Filter{
		CriteriaSet: []*logdb.Criteria{{Topic: &topic}},
	})
	require.NoError(t, err)
	assert.Len(t, got, 100)
}

func TestInsertReplace(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	ev := makeEvent(3, stakingAddr, "Staked", nil)
	require.NoError(t, db.Insert([]*runtime.Event{ev}))
	require.NoError(t, db.Insert([]*runtime.Event{ev}))

	got, err := db.Filter(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSyncFromJournal(t *testing.T) {
	kvdb, err := lvldb.NewMem()
	require.NoError(t, err)
	j := journal.New(kvdb)

	for seq := uint64(0); seq < 20; seq++ {
		require.NoError(t, j.Append(seq, []*runtime.Event{
			makeEvent(seq, stakingAddr, "Staked", []byte("alice")),
		}))
	}

	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	replayed, err := db.Sync(j, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, replayed)

	got, err := db.Filter(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, got, 20)

	// second sync replays nothing new
	replayed, err = db.Sync(j, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, replayed)

	// fresh journal records get picked up incrementally
	require.NoError(t, j.Append(20, []*runtime.Event{
		makeEvent(20, stakingAddr, "Unstaked", nil),
	}))
	replayed, err = db.Sync(j, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, replayed)
}
