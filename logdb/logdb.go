// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb keeps a queryable sqlite index of ledger events. The index
// is derived from the kv journal and can be rebuilt from it at any time.
package logdb

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/runtime"
)

const eventTableSchema = `
create table if not exists event (
	seq integer not null,
	eventIndex integer not null,
	ts integer not null,
	address blob(20) not null,
	name text not null,
	topic0 blob(32),
	data blob,
	primary key (seq, eventIndex)
);

create index if not exists eventAddressIndex on event(address);
create index if not exists eventNameIndex on event(name);
create index if not exists eventTopicIndex on event(topic0);
`

// LogDB is the sqlite-backed event store.
type LogDB struct {
	path string
	db   *sql.DB
}

// New creates or opens the event store at the given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	return &LogDB{path, db}, nil
}

// NewMem creates an event store in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close closes the event store.
func (db *LogDB) Close() {
	db.db.Close()
}

// Path returns the store's file path.
func (db *LogDB) Path() string {
	return db.path
}

// Insert writes a batch of events in one transaction. Re-inserting the same
// (seq, index) pair replaces the row, so rebuilds are idempotent.
func (db *LogDB) Insert(events []*runtime.Event) (err error) {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	index := 0
	lastSeq := uint64(0)
	for _, event := range events {
		if event.Seq != lastSeq {
			index = 0
			lastSeq = event.Seq
		}
		if _, err = tx.Exec(
			"insert or replace into event(seq, eventIndex, ts, address, name, topic0, data) values(?, ?, ?, ?, ?, ?, ?);",
			event.Seq,
			index,
			event.Time,
			event.Address.Bytes(),
			event.Name,
			topicValue(event.Topics),
			event.Data,
		); err != nil {
			return err
		}
		index++
	}
	return tx.Commit()
}

// NewestSeq returns the highest indexed sequence number, or false if the
// store is empty.
func (db *LogDB) NewestSeq() (uint64, bool, error) {
	row := db.db.QueryRow("select max(seq) from event")
	var seq sql.NullInt64
	if err := row.Scan(&seq); err != nil {
		return 0, false, err
	}
	if !seq.Valid {
		return 0, false, nil
	}
	return uint64(seq.Int64), true, nil
}

// Order of filter results.
type Order string

// Orders.
const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range bounds filter results by sequence number, inclusive on both sides.
type Range struct {
	From uint64
	To   uint64
}

// Options paginates filter results.
type Options struct {
	Offset uint64
	Limit  uint64
}

// Criteria matches events by emitting address, name and/or topic. Nil or
// empty fields match everything.
type Criteria struct {
	Address *accrete.Address
	Name    string
	Topic   *accrete.Bytes32
}

// Filter selects events. Criteria within the set are OR-ed.
type Filter struct {
	CriteriaSet []*Criteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}

// Filter queries events matching the filter.
func (db *LogDB) Filter(ctx context.Context, filter *Filter) ([]*runtime.Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "select seq, ts, address, name, topic0, data from event")
	}
	var args []any
	stmt := "select seq, ts, address, name, topic0, data from event where 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " and seq >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " and seq <= ?"
		}
	}
	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " and (( 1"
		} else {
			stmt += " or ( 1"
		}
		if criteria.Address != nil {
			args = append(args, criteria.Address.Bytes())
			stmt += " and address = ?"
		}
		if criteria.Name != "" {
			args = append(args, criteria.Name)
			stmt += " and name = ?"
		}
		if criteria.Topic != nil {
			args = append(args, criteria.Topic.Bytes())
			stmt += " and topic0 = ?"
		}
		if i == len(filter.CriteriaSet)-1 {
			stmt += " ))"
		} else {
			stmt += " )"
		}
	}

	if filter.Order == DESC {
		stmt += " order by seq desc, eventIndex desc"
	} else {
		stmt += " order by seq asc, eventIndex asc"
	}

	if filter.Options != nil {
		stmt += " limit ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*runtime.Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*runtime.Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq     uint64
			ts      uint64
			address []byte
			name    string
			topic   []byte
			data    []byte
		)
		if err := rows.Scan(&seq, &ts, &address, &name, &topic, &data); err != nil {
			return nil, err
		}
		event := &runtime.Event{
			Seq:     seq,
			Time:    ts,
			Address: accrete.BytesToAddress(address),
			Name:    name,
			Data:    data,
		}
		if len(topic) > 0 {
			event.Topics = []accrete.Bytes32{accrete.BytesToBytes32(topic)}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func topicValue(topics []accrete.Bytes32) []byte {
	if len(topics) == 0 {
		return nil
	}
	return topics[0].Bytes()
}
