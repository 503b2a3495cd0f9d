// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis builds the initial world state of a staking program
// deployment: token allocations, role bootstrap, protocol params and
// orchestrator presets.
package genesis

import (
	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/state"
)

// Genesis is a buildable genesis preset with a precomputed identity.
type Genesis struct {
	builder *Builder
	id      accrete.Bytes32
	name    string
}

func newGenesis(builder *Builder, name string) (*Genesis, error) {
	id, err := builder.ComputeID()
	if err != nil {
		return nil, err
	}
	return &Genesis{builder, id, name}, nil
}

// Build builds the genesis state. The caller commits the stage.
func (g *Genesis) Build(st *state.State) error {
	return g.builder.Build(st)
}

// ID returns the digest identifying the genesis state.
func (g *Genesis) ID() accrete.Bytes32 {
	return g.id
}

// Name returns the network name.
func (g *Genesis) Name() string {
	return g.name
}

// Timestamp returns the genesis timestamp.
func (g *Genesis) Timestamp() uint64 {
	return g.builder.timestamp
}
