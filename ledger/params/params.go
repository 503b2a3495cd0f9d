// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/state"
)

// Params is the key/value ledger of protocol parameters.
type Params struct {
	addr  accrete.Address
	state *state.State
}

// New creates a params instance.
func New(addr accrete.Address, st *state.State) *Params {
	return &Params{addr, st}
}

// Get returns the value of the given param key. Absent keys are zero.
func (p *Params) Get(key accrete.Bytes32) (*big.Int, error) {
	var v big.Int
	if err := p.state.GetStructuredStorage(p.addr, key, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Set sets the value of the given param key.
func (p *Params) Set(key accrete.Bytes32, value *big.Int) error {
	return p.state.SetStructuredStorage(p.addr, key, value)
}
