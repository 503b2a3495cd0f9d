// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/logdb"
	"github.com/accretefi/accrete/runtime"
)

// Criteria matches events by emitting address, name and/or topic.
type Criteria struct {
	Address *accrete.Address `json:"address"`
	Name    string           `json:"name"`
	Topic   *accrete.Bytes32 `json:"topic"`
}

// Range bounds results by sequence number, inclusive on both sides.
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// Options paginates results.
type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// EventFilter is the JSON form of a logdb filter.
type EventFilter struct {
	CriteriaSet []*Criteria `json:"criteriaSet"`
	Range       *Range      `json:"range"`
	Options     *Options    `json:"options"`
	Order       logdb.Order `json:"order"`
}

func (f *EventFilter) toLogDBFilter() *logdb.Filter {
	out := &logdb.Filter{Order: f.Order}
	for _, c := range f.CriteriaSet {
		out.CriteriaSet = append(out.CriteriaSet, &logdb.Criteria{
			Address: c.Address,
			Name:    c.Name,
			Topic:   c.Topic,
		})
	}
	if f.Range != nil {
		out.Range = &logdb.Range{From: f.Range.From, To: f.Range.To}
	}
	if f.Options != nil {
		out.Options = &logdb.Options{Offset: f.Options.Offset, Limit: f.Options.Limit}
	}
	return out
}

// FilteredEvent is one matched event.
type FilteredEvent struct {
	Seq     uint64            `json:"seq"`
	Time    uint64            `json:"time"`
	Address accrete.Address   `json:"address"`
	Name    string            `json:"name"`
	Topics  []accrete.Bytes32 `json:"topics"`
	Data    hexutil.Bytes     `json:"data"`
}

func convertEvents(events []*runtime.Event) []*FilteredEvent {
	out := make([]*FilteredEvent, len(events))
	for i, ev := range events {
		out[i] = &FilteredEvent{
			Seq:     ev.Seq,
			Time:    ev.Time,
			Address: ev.Address,
			Name:    ev.Name,
			Topics:  ev.Topics,
			Data:    ev.Data,
		}
	}
	return out
}

func formatLimit(limit uint64) string {
	return strconv.FormatUint(limit, 10)
}
