// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package meter wraps a kv store with read/write accounting. It carries no
// fee semantics; the numbers feed metrics and debug logs so operation cost
// stays observable.
package meter

import (
	"sync/atomic"

	"github.com/accretefi/accrete/kv"
	"github.com/accretefi/accrete/metrics"
)

var (
	metricReads  = metrics.LazyLoadCounter("meter_read_count")
	metricWrites = metrics.LazyLoadCounter("meter_write_count")
	metricBytes  = metrics.LazyLoadCounterVec("meter_byte_count", []string{"dir"})
)

// Counters is a snapshot of accumulated operation counts.
type Counters struct {
	Reads      uint64
	Writes     uint64
	ReadBytes  uint64
	WriteBytes uint64
}

// Meter is a kv store wrapper counting every read and write going through.
type Meter struct {
	src        kv.GetPutter
	reads      atomic.Uint64
	writes     atomic.Uint64
	readBytes  atomic.Uint64
	writeBytes atomic.Uint64
}

// New wraps the source store with accounting.
func New(src kv.GetPutter) *Meter {
	return &Meter{src: src}
}

// Snapshot returns the counts accumulated so far.
func (m *Meter) Snapshot() Counters {
	return Counters{
		Reads:      m.reads.Load(),
		Writes:     m.writes.Load(),
		ReadBytes:  m.readBytes.Load(),
		WriteBytes: m.writeBytes.Load(),
	}
}

func (m *Meter) countRead(n int) {
	m.reads.Add(1)
	m.readBytes.Add(uint64(n))
	metricReads().Add(1)
	metricBytes().AddWithLabel(int64(n), map[string]string{"dir": "read"})
}

func (m *Meter) countWrite(n int) {
	m.writes.Add(1)
	m.writeBytes.Add(uint64(n))
	metricWrites().Add(1)
	metricBytes().AddWithLabel(int64(n), map[string]string{"dir": "write"})
}

func (m *Meter) Get(key []byte) ([]byte, error) {
	value, err := m.src.Get(key)
	if err == nil {
		m.countRead(len(value))
	}
	return value, err
}

func (m *Meter) Has(key []byte) (bool, error) {
	has, err := m.src.Has(key)
	if err == nil {
		m.countRead(0)
	}
	return has, err
}

func (m *Meter) IsNotFound(err error) bool {
	return m.src.IsNotFound(err)
}

func (m *Meter) Put(key, value []byte) error {
	if err := m.src.Put(key, value); err != nil {
		return err
	}
	m.countWrite(len(value))
	return nil
}

func (m *Meter) Delete(key []byte) error {
	if err := m.src.Delete(key); err != nil {
		return err
	}
	m.countWrite(0)
	return nil
}

func (m *Meter) NewBatch() kv.Batch {
	return &meterBatch{m, m.src.NewBatch()}
}

func (m *Meter) NewIterator(r kv.Range) kv.Iterator {
	return m.src.NewIterator(r)
}

type meterBatch struct {
	meter *Meter
	batch kv.Batch
}

func (b *meterBatch) Put(key, value []byte) error {
	if err := b.batch.Put(key, value); err != nil {
		return err
	}
	b.meter.countWrite(len(value))
	return nil
}

func (b *meterBatch) Delete(key []byte) error {
	if err := b.batch.Delete(key); err != nil {
		return err
	}
	b.meter.countWrite(0)
	return nil
}

func (b *meterBatch) NewBatch() kv.Batch { return b.meter.NewBatch() }
func (b *meterBatch) Len() int           { return b.batch.Len() }
func (b *meterBatch) Write() error       { return b.batch.Write() }
