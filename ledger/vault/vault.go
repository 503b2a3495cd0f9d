// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vault implements the per-principal custody account. A vault holds
// staked assets on behalf of exactly one owner and refuses every operation
// not originated by that owner.
package vault

import (
	"math/big"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger/pool"
	"github.com/accretefi/accrete/ledger/reverts"
	"github.com/accretefi/accrete/runtime"
	"github.com/accretefi/accrete/state"
)

// Typed failure reasons.
var (
	ErrAlreadyInitialized = reverts.New("vault: already initialized")
	ErrEmptyOwner         = reverts.New("vault: empty owner")
	ErrNotOwner           = reverts.New("vault: caller is not the owner")
)

var ownerKey = accrete.Blake2b([]byte("owner"))

// Vault is a custody account bound to (address, state).
type Vault struct {
	addr  accrete.Address
	state *state.State
}

// New creates a vault instance at the given address.
func New(addr accrete.Address, st *state.State) *Vault {
	return &Vault{addr, st}
}

// Address returns the vault's own address.
func (v *Vault) Address() accrete.Address { return v.addr }

// Owner returns the vault's owner. A zero address means uninitialized.
func (v *Vault) Owner() (accrete.Address, error) {
	var owner accrete.Address
	if err := v.state.GetStructuredStorage(v.addr, ownerKey, &owner); err != nil {
		return accrete.Address{}, err
	}
	return owner, nil
}

// Initialize binds the vault to its owner. It may run exactly once.
func (v *Vault) Initialize(owner accrete.Address) error {
	if owner.IsZero() {
		return ErrEmptyOwner
	}
	current, err := v.Owner()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return ErrAlreadyInitialized
	}
	return v.state.SetStructuredStorage(v.addr, ownerKey, owner)
}

func (v *Vault) checkOwner(caller accrete.Address) error {
	owner, err := v.Owner()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotOwner
	}
	return nil
}

// Unstake withdraws amount of the vault's pool position to recipient. Only
// the owner may call.
func (v *Vault) Unstake(caller accrete.Address, p *pool.Pool, recipient accrete.Address, amount *big.Int, now uint64) error {
	if err := v.checkOwner(caller); err != nil {
		return err
	}
	return p.Withdraw(v.addr, recipient, amount, now)
}

// Invoke performs an arbitrary native call from the vault's address. Only the
// owner may call. The sub-call inherits the frame's atomicity: a failed call
// leaves the vault's state untouched.
func (v *Vault) Invoke(env *runtime.Env, caller, target accrete.Address, value *big.Int, payload []byte) ([]byte, error) {
	if err := v.checkOwner(caller); err != nil {
		return nil, err
	}
	return env.Call(v.addr, target, value, payload)
}
