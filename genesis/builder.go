// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger"
	"github.com/accretefi/accrete/lvldb"
	"github.com/accretefi/accrete/runtime"
	"github.com/accretefi/accrete/state"
)

// Proc is a genesis state process, run against the assembled ledger inside
// the genesis frame.
type Proc func(led *ledger.Ledger, env *runtime.Env) error

// Builder helper to build the genesis state.
type Builder struct {
	timestamp uint64
	procs     []Proc
}

// Timestamp sets the genesis timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// State adds a state process.
func (b *Builder) State(proc Proc) *Builder {
	b.procs = append(b.procs, proc)
	return b
}

// Build runs all state processes against the given state inside one atomic
// frame.
func (b *Builder) Build(st *state.State) error {
	led := ledger.New(st)
	rt := runtime.New(st, runtime.Context{Time: b.timestamp})
	if _, err := rt.Transact(accrete.Address{}, func(env *runtime.Env) error {
		for _, proc := range b.procs {
			if err := proc(led, env); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return errors.Wrap(err, "build genesis state")
	}
	return nil
}

// ComputeID computes the genesis state digest by building into a throwaway
// in-memory state.
func (b *Builder) ComputeID() (accrete.Bytes32, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return accrete.Bytes32{}, err
	}
	defer db.Close()

	st := state.New(db)
	if err := b.Build(st); err != nil {
		return accrete.Bytes32{}, err
	}
	return st.Stage().Hash(), nil
}
