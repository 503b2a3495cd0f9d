// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger/reverts"
	"github.com/accretefi/accrete/log"
	"github.com/accretefi/accrete/metrics"
	"github.com/accretefi/accrete/state"
)

var logger = log.WithContext("pkg", "runtime")

var metricFrames = metrics.LazyLoadCounterVec("frame_count", []string{"status"})

// ErrReentrancy rejects nested re-entry into a guarded operation.
var ErrReentrancy = reverts.New("reentrant call")

// Context is the environment of the operations executed by a runtime:
// the ledger clock and the next operation sequence number.
type Context struct {
	Time uint64
	Seq  uint64
}

// Handler executes a native call against a registered target.
type Handler func(env *Env, value *big.Int, payload []byte) ([]byte, error)

// Runtime executes ledger operations as atomic call frames over the world
// state. The execution model is fully serialized: a frame runs to completion
// or is reverted as a whole, and no two frames overlap.
type Runtime struct {
	state    *state.State
	ctx      Context
	handlers map[accrete.Address]Handler
	busy     bool
}

// New creates a runtime over the given state.
func New(st *state.State, ctx Context) *Runtime {
	return &Runtime{
		state:    st,
		ctx:      ctx,
		handlers: make(map[accrete.Address]Handler),
	}
}

// State returns the world state the runtime operates on.
func (rt *Runtime) State() *state.State { return rt.state }

// Context returns the current execution context.
func (rt *Runtime) Context() Context { return rt.ctx }

// SetTime advances the ledger clock.
// Time never goes backwards; a smaller value is ignored.
func (rt *Runtime) SetTime(t uint64) {
	if t > rt.ctx.Time {
		rt.ctx.Time = t
	}
}

// RegisterHandler registers a native call handler for the target address,
// making the target invokable through Env.Call. It panics on duplicate
// registration.
func (rt *Runtime) RegisterHandler(target accrete.Address, h Handler) {
	if _, ok := rt.handlers[target]; ok {
		panic("runtime: duplicate handler registration")
	}
	rt.handlers[target] = h
}

// Transact executes fn inside a new call frame. On error the whole frame is
// reverted: state changes are rolled back and emitted events discarded.
// On success it returns the emitted events and bumps the sequence number.
func (rt *Runtime) Transact(caller accrete.Address, fn func(env *Env) error) ([]*Event, error) {
	rev := rt.state.NewCheckpoint()
	env := &Env{rt: rt, caller: caller, seq: rt.ctx.Seq}

	if err := fn(env); err != nil {
		rt.state.RevertTo(rev)
		metricFrames().AddWithLabel(1, map[string]string{"status": "reverted"})
		logger.Debug("frame reverted", "caller", caller, "seq", rt.ctx.Seq, "err", err)
		return nil, err
	}

	rt.ctx.Seq++
	metricFrames().AddWithLabel(1, map[string]string{"status": "committed"})
	return env.events, nil
}
