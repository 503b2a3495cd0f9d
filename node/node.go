// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node runs the staking ledger as a single serialized execution
// node: operations are applied one at a time against the persisted world
// state, journaled, indexed and broadcast to subscribers.
package node

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/co"
	"github.com/accretefi/accrete/journal"
	"github.com/accretefi/accrete/kv"
	"github.com/accretefi/accrete/ledger"
	"github.com/accretefi/accrete/log"
	"github.com/accretefi/accrete/logdb"
	"github.com/accretefi/accrete/metrics"
	"github.com/accretefi/accrete/runtime"
	"github.com/accretefi/accrete/state"
)

var (
	logger = log.WithContext("pkg", "node")

	metricSubscriberCount = metrics.LazyLoadGauge("node_subscriber_count")
)

// Node is the serialized execution node over one kv store.
type Node struct {
	mu       sync.Mutex
	stater   *state.Stater
	journal  *journal.Journal
	logDB    *logdb.LogDB
	seq      uint64
	time     uint64
	handlers map[accrete.Address]runtime.Handler

	subMu  sync.Mutex
	subs   map[chan []*runtime.Event]struct{}
	signal co.Signal
}

// New creates a node over the given kv store and event index. The sequence
// number resumes from the journal.
func New(db kv.GetPutter, logDB *logdb.LogDB, genesisTime uint64) (*Node, error) {
	j := journal.New(db)
	seq := uint64(0)
	if newest, found, err := j.NewestSeq(); err != nil {
		return nil, errors.Wrap(err, "resume sequence")
	} else if found {
		seq = newest + 1
	}

	return &Node{
		stater:   state.NewStater(db),
		journal:  j,
		logDB:    logDB,
		seq:      seq,
		time:     genesisTime,
		handlers: make(map[accrete.Address]runtime.Handler),
		subs:     make(map[chan []*runtime.Event]struct{}),
	}, nil
}

// RegisterHandler makes the target invokable through vault invocations on
// every subsequent operation. It panics on duplicate registration.
func (n *Node) RegisterHandler(target accrete.Address, h runtime.Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.handlers[target]; ok {
		panic("node: duplicate handler registration")
	}
	n.handlers[target] = h
}

// Journal returns the node's event journal.
func (n *Node) Journal() *journal.Journal {
	return n.journal
}

// now returns the ledger clock: wall time, never going backwards.
func (n *Node) now() uint64 {
	if t := uint64(time.Now().Unix()); t > n.time {
		n.time = t
	}
	return n.time
}

// Now returns the current ledger time.
func (n *Node) Now() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.now()
}

// Seq returns the next operation sequence number.
func (n *Node) Seq() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.seq
}

// Read runs fn against a read-only view of the current state. The execution
// lock is held for the duration of fn, so every slot it reads belongs to the
// same committed operation.
func (n *Node) Read(fn func(led *ledger.Ledger, now uint64) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn(ledger.New(n.stater.NewState()), n.now())
}

// Execute applies one operation: fn runs inside an atomic frame against the
// assembled ledger; on success the state changes are committed, the events
// journaled, indexed and broadcast. The returned seq identifies the
// committed operation.
func (n *Node) Execute(caller accrete.Address, fn func(led *ledger.Ledger, env *runtime.Env) error) (uint64, []*runtime.Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	st := n.stater.NewState()
	led := ledger.New(st)
	rt := runtime.New(st, runtime.Context{Time: n.now(), Seq: n.seq})
	for target, h := range n.handlers {
		rt.RegisterHandler(target, h)
	}

	events, err := rt.Transact(caller, func(env *runtime.Env) error {
		return fn(led, env)
	})
	if err != nil {
		return 0, nil, err
	}

	if err := st.Stage().Commit(); err != nil {
		return 0, nil, errors.Wrap(err, "commit operation")
	}
	if err := n.journal.Append(n.seq, events); err != nil {
		return 0, nil, errors.Wrap(err, "journal operation")
	}
	if n.logDB != nil {
		if err := n.logDB.Insert(events); err != nil {
			// the index can be rebuilt from the journal; the operation stands
			logger.Warn("event index write failed", "seq", n.seq, "err", err)
		}
	}
	seq := n.seq
	n.seq++

	if len(events) > 0 {
		n.publish(events)
	}
	return seq, events, nil
}

func (n *Node) publish(events []*runtime.Event) {
	n.subMu.Lock()
	for ch := range n.subs {
		select {
		case ch <- events:
		default:
			// slow subscriber, drop rather than stall execution
		}
	}
	n.subMu.Unlock()
	n.signal.Broadcast()
}

// Subscribe registers an event subscription channel. The returned cancel
// func must be called to release it.
func (n *Node) Subscribe() (<-chan []*runtime.Event, func()) {
	ch := make(chan []*runtime.Event, 64)
	n.subMu.Lock()
	n.subs[ch] = struct{}{}
	metricSubscriberCount().Set(int64(len(n.subs)))
	n.subMu.Unlock()

	return ch, func() {
		n.subMu.Lock()
		delete(n.subs, ch)
		metricSubscriberCount().Set(int64(len(n.subs)))
		n.subMu.Unlock()
	}
}

// Waiter returns a waiter signaled whenever events are published.
func (n *Node) Waiter() co.Waiter {
	return n.signal.NewWaiter()
}
