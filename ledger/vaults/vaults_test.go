// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vaults

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger/reverts"
	"github.com/accretefi/accrete/ledger/roles"
	"github.com/accretefi/accrete/ledger/vault"
	"github.com/accretefi/accrete/lvldb"
	"github.com/accretefi/accrete/runtime"
	"github.com/accretefi/accrete/state"
)

var (
	admin        = accrete.BytesToAddress([]byte("admin"))
	orchestrator = accrete.BytesToAddress([]byte("orchestrator"))
	invoker      = accrete.BytesToAddress([]byte("invoker"))
	principal    = accrete.BytesToAddress([]byte("principal"))
	target       = accrete.BytesToAddress([]byte("target"))
)

type testEnv struct {
	registry *Registry
	rt       *runtime.Runtime
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)

	rr := roles.New(accrete.BytesToAddress([]byte("Roles")), st)
	for _, grant := range []struct {
		role   accrete.Bytes32
		member accrete.Address
	}{
		{accrete.RoleAdmin, admin},
		{accrete.RoleOrchestrator, orchestrator},
		{accrete.RoleInvoker, invoker},
	} {
		ok, err := rr.Grant(grant.role, grant.member)
		require.NoError(t, err)
		require.True(t, ok)
	}

	registry := New(accrete.BytesToAddress([]byte("Vaults")), st, rr)
	require.NoError(t, registry.SetTemplate(admin, accrete.BytesToAddress([]byte("template"))))

	return &testEnv{registry, runtime.New(st, runtime.Context{})}
}

func TestSetTemplate(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	assert.Equal(t, ErrNotAdmin, r.SetTemplate(principal, accrete.BytesToAddress([]byte("other"))))
	assert.Equal(t, ErrSameValue, r.SetTemplate(admin, accrete.BytesToAddress([]byte("template"))))
	assert.Equal(t, ErrEmptyTemplate, r.SetTemplate(admin, accrete.Address{}))
	assert.NoError(t, r.SetTemplate(admin, accrete.BytesToAddress([]byte("other"))))

	template, err := r.Template()
	require.NoError(t, err)
	assert.Equal(t, accrete.BytesToAddress([]byte("other")), template)
}

func TestCreate(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	_, err := r.Create(principal, principal)
	assert.Equal(t, ErrNotOrchestrator, err)

	vaultAddr, err := r.Create(orchestrator, principal)
	require.NoError(t, err)
	assert.False(t, vaultAddr.IsZero())

	recorded, err := r.VaultOf(principal)
	require.NoError(t, err)
	assert.Equal(t, vaultAddr, recorded)

	count, err := r.VaultCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	// the registry owns the vault
	owner, err := vault.New(vaultAddr, env.rt.State()).Owner()
	require.NoError(t, err)
	assert.Equal(t, r.Address(), owner)

	// creating again yields a distinct vault and overwrites the mapping
	second, err := r.Create(orchestrator, principal)
	require.NoError(t, err)
	assert.NotEqual(t, vaultAddr, second)

	recorded, err = r.VaultOf(principal)
	require.NoError(t, err)
	assert.Equal(t, second, recorded)
}

func TestSetInvocationAllowance(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	assert.Equal(t, ErrMissingVaultForPrincipal, r.SetInvocationAllowance(principal, invoker, target, 3))

	vaultAddr, err := r.Create(orchestrator, principal)
	require.NoError(t, err)

	assert.Equal(t, ErrNotInvoker, r.SetInvocationAllowance(principal, principal, target, 3))
	assert.NoError(t, r.SetInvocationAllowance(principal, invoker, target, 3))

	count, err := r.Allowance(vaultAddr, invoker, target)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	// absolute set, not increment
	assert.NoError(t, r.SetInvocationAllowance(principal, invoker, target, 1))
	count, err = r.Allowance(vaultAddr, invoker, target)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

// after N successful invocations with initial allowance A the remaining
// allowance is exactly A-N.
func TestInvokeVaultDecrementsAllowance(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	vaultAddr, err := r.Create(orchestrator, principal)
	require.NoError(t, err)
	require.NoError(t, r.SetInvocationAllowance(principal, invoker, target, 3))

	calls := 0
	env.rt.RegisterHandler(target, func(_ *runtime.Env, _ *big.Int, _ []byte) ([]byte, error) {
		calls++
		return []byte("ok"), nil
	})

	_, err = env.rt.Transact(invoker, func(e *runtime.Env) error {
		for i := 0; i < 2; i++ {
			output, err := r.InvokeVault(e, invoker, vaultAddr, target, nil, nil)
			if err != nil {
				return err
			}
			assert.Equal(t, []byte("ok"), output)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	count, err := r.Allowance(vaultAddr, invoker, target)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestInvokeVaultGuards(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	vaultAddr, err := r.Create(orchestrator, principal)
	require.NoError(t, err)

	_, err = env.rt.Transact(invoker, func(e *runtime.Env) error {
		_, err := r.InvokeVault(e, principal, vaultAddr, target, nil, nil)
		assert.Equal(t, ErrNotInvoker, err)

		// zero allowance means not permitted
		_, err = r.InvokeVault(e, invoker, vaultAddr, target, nil, nil)
		assert.Equal(t, ErrInvocationNotAllowed, err)
		return nil
	})
	require.NoError(t, err)
}

// a failed invocation leaves the allowance unchanged.
func TestInvokeVaultFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	r := env.registry

	vaultAddr, err := r.Create(orchestrator, principal)
	require.NoError(t, err)
	require.NoError(t, r.SetInvocationAllowance(principal, invoker, target, 3))

	boom := reverts.New("boom")
	env.rt.RegisterHandler(target, func(_ *runtime.Env, _ *big.Int, _ []byte) ([]byte, error) {
		return []byte("denied"), boom
	})

	_, err = env.rt.Transact(invoker, func(e *runtime.Env) error {
		_, err := r.InvokeVault(e, invoker, vaultAddr, target, nil, nil)

		var failed *InvocationFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, boom, failed.Cause)
		assert.Equal(t, []byte("denied"), failed.Output)

		count, err := r.Allowance(vaultAddr, invoker, target)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), count)
		return nil
	})
	require.NoError(t, err)
}
