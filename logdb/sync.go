// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/accretefi/accrete/journal"
	"github.com/accretefi/accrete/runtime"
)

// Sync brings the event index up to date with the journal, replaying every
// record past the newest indexed sequence number. onRecord, when given, is
// invoked once per replayed record for progress reporting. It returns the
// number of records replayed.
func (db *LogDB) Sync(j *journal.Journal, onRecord func(seq uint64)) (int, error) {
	from := uint64(0)
	if newest, found, err := db.NewestSeq(); err != nil {
		return 0, err
	} else if found {
		from = newest + 1
	}

	var (
		batch    []*runtime.Event
		replayed int
	)
	var walkErr error
	if err := j.Walk(from, func(seq uint64, events []*runtime.Event) bool {
		batch = append(batch, events...)
		replayed++
		if onRecord != nil {
			onRecord(seq)
		}
		if len(batch) >= 512 {
			if walkErr = db.Insert(batch); walkErr != nil {
				return false
			}
			batch = batch[:0]
		}
		return true
	}); err != nil {
		return replayed, err
	}
	if walkErr != nil {
		return replayed, walkErr
	}
	return replayed, db.Insert(batch)
}
