// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vaults implements the vault factory and the capability registry.
// The factory instantiates per-principal custody vaults from a template and
// owns every vault it creates. The capability registry keeps the
// (vault, invoker, target) allowance table that gates invocation through a
// vault.
package vaults

import (
	"fmt"
	"math/big"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger/pool"
	"github.com/accretefi/accrete/ledger/reverts"
	"github.com/accretefi/accrete/ledger/roles"
	"github.com/accretefi/accrete/ledger/vault"
	"github.com/accretefi/accrete/log"
	"github.com/accretefi/accrete/runtime"
	"github.com/accretefi/accrete/state"
)

var logger = log.WithContext("pkg", "vaults")

// Typed failure reasons.
var (
	ErrNotOrchestrator          = reverts.New("vaults: caller is not the orchestrator")
	ErrNotAdmin                 = reverts.New("vaults: caller is not an admin")
	ErrNotInvoker               = reverts.New("vaults: caller lacks the invoker role")
	ErrMissingVaultForPrincipal = reverts.New("vaults: principal has no vault")
	ErrInvocationNotAllowed     = reverts.New("vaults: invocation not allowed")
	ErrSameValue                = reverts.New("vaults: value unchanged")
	ErrEmptyTemplate            = reverts.New("vaults: empty template")
)

// InvocationFailedError wraps the failure of a gated vault invocation,
// carrying the raw output of the failed call.
type InvocationFailedError struct {
	Output []byte
	Cause  error
}

func (e *InvocationFailedError) Error() string {
	return fmt.Sprintf("vaults: invocation failed: %v", e.Cause)
}

func (e *InvocationFailedError) Unwrap() error { return e.Cause }

var (
	templateKey = accrete.Blake2b([]byte("template"))
	countKey    = accrete.Blake2b([]byte("vault-count"))
)

func vaultKey(principal accrete.Address) accrete.Bytes32 {
	return accrete.Blake2b(principal.Bytes(), []byte("vault"))
}

func allowanceKey(vaultAddr, invoker, target accrete.Address) accrete.Bytes32 {
	return accrete.Blake2b(vaultAddr.Bytes(), invoker.Bytes(), target.Bytes(), []byte("allowance"))
}

// Registry is the vault factory and capability registry bound to
// (address, state).
type Registry struct {
	addr  accrete.Address
	state *state.State
	roles *roles.Roles
}

// New creates a registry instance.
func New(addr accrete.Address, st *state.State, rr *roles.Roles) *Registry {
	return &Registry{addr, st, rr}
}

// Address returns the registry's own address.
func (r *Registry) Address() accrete.Address { return r.addr }

func (r *Registry) requireRole(role accrete.Bytes32, member accrete.Address, errRole error) error {
	has, err := r.roles.Has(role, member)
	if err != nil {
		return err
	}
	if !has {
		return errRole
	}
	return nil
}

// Template returns the current vault template reference.
func (r *Registry) Template() (accrete.Address, error) {
	var template accrete.Address
	if err := r.state.GetStructuredStorage(r.addr, templateKey, &template); err != nil {
		return accrete.Address{}, err
	}
	return template, nil
}

// SetTemplate updates the vault template reference. Admin only; the new
// value must differ from the current one.
func (r *Registry) SetTemplate(caller, template accrete.Address) error {
	if err := r.requireRole(accrete.RoleAdmin, caller, ErrNotAdmin); err != nil {
		return err
	}
	if template.IsZero() {
		return ErrEmptyTemplate
	}
	current, err := r.Template()
	if err != nil {
		return err
	}
	if current == template {
		return ErrSameValue
	}
	return r.state.SetStructuredStorage(r.addr, templateKey, template)
}

// VaultCount returns the number of vaults ever created.
func (r *Registry) VaultCount() (uint64, error) {
	var count uint64
	if err := r.state.GetStructuredStorage(r.addr, countKey, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// VaultOf returns the vault recorded for the principal. A zero address means
// no vault exists.
func (r *Registry) VaultOf(principal accrete.Address) (accrete.Address, error) {
	var addr accrete.Address
	if err := r.state.GetStructuredStorage(r.addr, vaultKey(principal), &addr); err != nil {
		return accrete.Address{}, err
	}
	return addr, nil
}

// Create instantiates a new vault for the principal and records the mapping,
// overwriting any previous one. The registry owns the new vault. Checking
// for an existing vault is the caller's responsibility. Orchestrator only.
func (r *Registry) Create(caller, principal accrete.Address) (accrete.Address, error) {
	if err := r.requireRole(accrete.RoleOrchestrator, caller, ErrNotOrchestrator); err != nil {
		return accrete.Address{}, err
	}
	template, err := r.Template()
	if err != nil {
		return accrete.Address{}, err
	}
	count, err := r.VaultCount()
	if err != nil {
		return accrete.Address{}, err
	}

	vaultAddr := accrete.CreateVaultAddress(template, principal, count)
	if err := r.state.SetStructuredStorage(r.addr, countKey, count+1); err != nil {
		return accrete.Address{}, err
	}
	if err := vault.New(vaultAddr, r.state).Initialize(r.addr); err != nil {
		return accrete.Address{}, err
	}
	if err := r.state.SetStructuredStorage(r.addr, vaultKey(principal), vaultAddr); err != nil {
		return accrete.Address{}, err
	}
	logger.Debug("vault created", "principal", principal, "vault", vaultAddr)
	return vaultAddr, nil
}

// Allowance returns the remaining invocation count of the
// (vault, invoker, target) triple. Absent entries are zero.
func (r *Registry) Allowance(vaultAddr, invoker, target accrete.Address) (uint64, error) {
	var count uint64
	if err := r.state.GetStructuredStorage(r.addr, allowanceKey(vaultAddr, invoker, target), &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Registry) setAllowance(vaultAddr, invoker, target accrete.Address, count uint64) error {
	return r.state.SetStructuredStorage(r.addr, allowanceKey(vaultAddr, invoker, target), count)
}

// SetInvocationAllowance sets the allowance of (principal's vault, invoker,
// target) to count. Absolute set, not increment. The principal must already
// have a vault and the invoker must hold the invoker role.
func (r *Registry) SetInvocationAllowance(principal, invoker, target accrete.Address, count uint64) error {
	vaultAddr, err := r.VaultOf(principal)
	if err != nil {
		return err
	}
	if vaultAddr.IsZero() {
		return ErrMissingVaultForPrincipal
	}
	if err := r.requireRole(accrete.RoleInvoker, invoker, ErrNotInvoker); err != nil {
		return err
	}
	return r.setAllowance(vaultAddr, invoker, target, count)
}

// WithdrawFor commands the vault to withdraw amount of its pool position to
// recipient. Orchestrator only; the registry exercises its vault ownership
// on the orchestrator's behalf.
func (r *Registry) WithdrawFor(caller, vaultAddr accrete.Address, p *pool.Pool, recipient accrete.Address, amount *big.Int, now uint64) error {
	if err := r.requireRole(accrete.RoleOrchestrator, caller, ErrNotOrchestrator); err != nil {
		return err
	}
	return vault.New(vaultAddr, r.state).Unstake(r.addr, p, recipient, amount, now)
}

// InvokeVault performs a gated call from the vault to target. The caller
// must hold the invoker role and the (vault, caller, target) allowance must
// be nonzero. The allowance is decremented before the call closes a
// reentrancy window; the whole operation is atomic, so a failed call rolls
// the decrement back together with everything else.
func (r *Registry) InvokeVault(env *runtime.Env, caller, vaultAddr, target accrete.Address, value *big.Int, payload []byte) (output []byte, err error) {
	err = env.NonReentrant(func() error {
		if err := r.requireRole(accrete.RoleInvoker, caller, ErrNotInvoker); err != nil {
			return err
		}
		count, err := r.Allowance(vaultAddr, caller, target)
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrInvocationNotAllowed
		}

		rev := r.state.NewCheckpoint()
		if err := r.setAllowance(vaultAddr, caller, target, count-1); err != nil {
			return err
		}
		output, err = vault.New(vaultAddr, r.state).Invoke(env, r.addr, target, value, payload)
		if err != nil {
			r.state.RevertTo(rev)
			return &InvocationFailedError{Output: output, Cause: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return output, nil
}
