// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger/reverts"
	"github.com/accretefi/accrete/state"
)

// ErrValueTransfer rejects a native call carrying more value than the
// calling account holds.
var ErrValueTransfer = reverts.New("insufficient balance for value transfer")

// Env is the execution environment of one call frame. It carries the
// originating caller, gives access to the world state and the ledger clock,
// collects emitted events, and performs native calls.
type Env struct {
	rt     *Runtime
	caller accrete.Address
	seq    uint64
	events []*Event
}

// State returns the world state.
func (env *Env) State() *state.State { return env.rt.state }

// Caller returns the identity that originated the frame.
func (env *Env) Caller() accrete.Address { return env.caller }

// Now returns the ledger clock in unix seconds.
func (env *Env) Now() uint64 { return env.rt.ctx.Time }

// Seq returns the sequence number of the executing operation.
func (env *Env) Seq() uint64 { return env.seq }

// Log collects an emitted event. Events are discarded if the frame or the
// enclosing sub-call reverts.
func (env *Env) Log(ev *Event) {
	ev.Seq = env.seq
	ev.Time = env.rt.ctx.Time
	env.events = append(env.events, ev)
}

// NonReentrant runs fn under the core-wide mutual-exclusion guard. A nested
// attempt to enter any guarded operation while one is executing fails fast
// with ErrReentrancy.
func (env *Env) NonReentrant(fn func() error) error {
	if env.rt.busy {
		return ErrReentrancy
	}
	env.rt.busy = true
	defer func() { env.rt.busy = false }()
	return fn()
}

// Call performs a native call from sender to target carrying value and
// payload. A registered handler of the target is dispatched with the payload;
// an unknown target accepts a plain value transfer and returns empty output.
// The sub-call is atomic: on error its state changes and events are rolled
// back, leaving the enclosing frame intact. The handler's raw output is
// returned even then, so callers can surface the failure reason.
func (env *Env) Call(sender, target accrete.Address, value *big.Int, payload []byte) (output []byte, err error) {
	rev := env.rt.state.NewCheckpoint()
	mark := len(env.events)
	defer func() {
		if err != nil {
			env.rt.state.RevertTo(rev)
			env.events = env.events[:mark]
		}
	}()

	if value != nil && value.Sign() > 0 {
		if err := env.transferValue(sender, target, value); err != nil {
			return nil, err
		}
	}

	handler, ok := env.rt.handlers[target]
	if !ok {
		// call to a plain account: value transfer only
		return nil, nil
	}

	sub := &Env{rt: env.rt, caller: sender, seq: env.seq}
	output, err = handler(sub, value, payload)
	if err != nil {
		return output, err
	}
	env.events = append(env.events, sub.events...)
	return output, nil
}

func (env *Env) transferValue(sender, target accrete.Address, value *big.Int) error {
	senderBal, err := env.rt.state.GetBalance(sender)
	if err != nil {
		return err
	}
	if senderBal.Cmp(value) < 0 {
		return ErrValueTransfer
	}
	targetBal, err := env.rt.state.GetBalance(target)
	if err != nil {
		return err
	}
	env.rt.state.SetBalance(sender, new(big.Int).Sub(senderBal, value))
	env.rt.state.SetBalance(target, new(big.Int).Add(targetBal, value))
	return nil
}
