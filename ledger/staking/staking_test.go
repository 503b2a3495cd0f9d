// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger/params"
	"github.com/accretefi/accrete/ledger/pool"
	"github.com/accretefi/accrete/ledger/rewards"
	"github.com/accretefi/accrete/ledger/roles"
	"github.com/accretefi/accrete/ledger/token"
	"github.com/accretefi/accrete/ledger/vaults"
	"github.com/accretefi/accrete/lvldb"
	"github.com/accretefi/accrete/runtime"
	"github.com/accretefi/accrete/state"
)

var (
	admin       = accrete.BytesToAddress([]byte("admin"))
	distributor = accrete.BytesToAddress([]byte("distributor"))
	alice       = accrete.BytesToAddress([]byte("alice"))
	bob         = accrete.BytesToAddress([]byte("bob"))
)

type testLedger struct {
	staking    *Staking
	underlying *token.Token
	reward     *token.Token
	rt         *runtime.Runtime
}

func newTestLedger(t *testing.T) *testLedger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)

	underlying := token.New(accrete.BytesToAddress([]byte("Underlying")), st)
	reward := token.New(accrete.BytesToAddress([]byte("Reward")), st)
	pp := params.New(accrete.BytesToAddress([]byte("Params")), st)
	rr := roles.New(accrete.BytesToAddress([]byte("Roles")), st)
	p := pool.New(accrete.BytesToAddress([]byte("Pool")), st, underlying, pp)
	engine := rewards.New(accrete.BytesToAddress([]byte("Rewards")), st, reward, pp)
	registry := vaults.New(accrete.BytesToAddress([]byte("Vaults")), st, rr)

	stakingAddr := accrete.BytesToAddress([]byte("Staking"))
	s := New(stakingAddr, st, underlying, engine, p, registry, rr)

	for _, grant := range []struct {
		role   accrete.Bytes32
		member accrete.Address
	}{
		{accrete.RoleAdmin, admin},
		{accrete.RoleDistributor, distributor},
		{accrete.RoleOrchestrator, stakingAddr},
	} {
		ok, err := rr.Grant(grant.role, grant.member)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, registry.SetTemplate(admin, accrete.BytesToAddress([]byte("template"))))

	// fund the engine and start a reward epoch
	require.NoError(t, reward.Mint(engine.Address(), big.NewInt(1000)))

	rt := runtime.New(st, runtime.Context{})
	_, err = rt.Transact(admin, func(env *runtime.Env) error {
		return s.SetRewardsDuration(env, admin, 100)
	})
	require.NoError(t, err)
	_, err = rt.Transact(distributor, func(env *runtime.Env) error {
		return s.AddRewards(env, distributor, big.NewInt(1000))
	})
	require.NoError(t, err)

	return &testLedger{s, underlying, reward, rt}
}

func (l *testLedger) stake(t *testing.T, principal accrete.Address, amount int64) error {
	require.NoError(t, l.underlying.Mint(principal, big.NewInt(amount)))
	require.NoError(t, l.underlying.Approve(principal, l.staking.Address(), big.NewInt(amount)))
	_, err := l.rt.Transact(principal, func(env *runtime.Env) error {
		return l.staking.Stake(env, principal, big.NewInt(amount), nil)
	})
	return err
}

func TestStakeCreatesVault(t *testing.T) {
	l := newTestLedger(t)

	vaultAddr, err := l.staking.VaultOf(alice)
	require.NoError(t, err)
	assert.True(t, vaultAddr.IsZero())

	require.NoError(t, l.stake(t, alice, 100))

	vaultAddr, err = l.staking.VaultOf(alice)
	require.NoError(t, err)
	assert.False(t, vaultAddr.IsZero())

	// second stake reuses the vault
	require.NoError(t, l.stake(t, alice, 50))
	again, err := l.staking.VaultOf(alice)
	require.NoError(t, err)
	assert.Equal(t, vaultAddr, again)

	balance, err := l.staking.StakedBalance(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(150), balance)

	// custody moved out of the principal's hands
	principalBalance, err := l.underlying.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), principalBalance)
}

func TestStakeEmitsEvent(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.underlying.Mint(alice, big.NewInt(100)))
	require.NoError(t, l.underlying.Approve(alice, l.staking.Address(), big.NewInt(100)))
	events, err := l.rt.Transact(alice, func(env *runtime.Env) error {
		return l.staking.Stake(env, alice, big.NewInt(100), nil)
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EvStaked, events[0].Name)
	assert.Equal(t, l.staking.Address(), events[0].Address)
}

func TestPauseSwitch(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.rt.Transact(alice, func(env *runtime.Env) error {
		return l.staking.SetPaused(env, alice, true)
	})
	assert.Equal(t, ErrNotAdmin, err)

	_, err = l.rt.Transact(admin, func(env *runtime.Env) error {
		return l.staking.SetPaused(env, admin, true)
	})
	require.NoError(t, err)

	assert.Equal(t, ErrPaused, l.stake(t, alice, 100))

	_, err = l.rt.Transact(admin, func(env *runtime.Env) error {
		assert.Equal(t, ErrSameValue, l.staking.SetPaused(env, admin, true))
		return l.staking.SetPaused(env, admin, false)
	})
	require.NoError(t, err)

	assert.NoError(t, l.stake(t, alice, 100))
}

// unstaking fails for all timestamps strictly before the deadline and
// succeeds at or after it.
func TestLockupBoundary(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.stake(t, alice, 100))

	_, err := l.rt.Transact(admin, func(env *runtime.Env) error {
		return l.staking.SetLockupDeadline(env, admin, 50)
	})
	require.NoError(t, err)

	unstake := func() error {
		_, err := l.rt.Transact(alice, func(env *runtime.Env) error {
			return l.staking.Unstake(env, alice, alice)
		})
		return err
	}

	l.rt.SetTime(49)
	assert.Equal(t, ErrLockupNotExpired, unstake())

	l.rt.SetTime(50)
	assert.NoError(t, unstake())

	balance, err := l.underlying.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), balance)
}

func TestUnstakeNothingToWithdraw(t *testing.T) {
	l := newTestLedger(t)

	// no vault at all
	_, err := l.rt.Transact(alice, func(env *runtime.Env) error {
		return l.staking.Unstake(env, alice, alice)
	})
	assert.Equal(t, ErrNothingToWithdraw, err)

	// vault exists but the position is already empty
	require.NoError(t, l.stake(t, alice, 100))
	_, err = l.rt.Transact(alice, func(env *runtime.Env) error {
		return l.staking.Unstake(env, alice, alice)
	})
	require.NoError(t, err)

	_, err = l.rt.Transact(alice, func(env *runtime.Env) error {
		return l.staking.Unstake(env, alice, alice)
	})
	assert.Equal(t, ErrNothingToWithdraw, err)
}

func TestUnstakePaysRewards(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.stake(t, alice, 100))

	// alone in the program for 50 seconds at rate 10
	l.rt.SetTime(50)
	_, err := l.rt.Transact(alice, func(env *runtime.Env) error {
		return l.staking.Unstake(env, alice, bob)
	})
	require.NoError(t, err)

	underlying, err := l.underlying.BalanceOf(bob)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), underlying)

	reward, err := l.reward.BalanceOf(bob)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), reward)
}

func TestClaim(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.rt.Transact(alice, func(env *runtime.Env) error {
		return l.staking.Claim(env, alice, alice)
	})
	assert.Equal(t, rewards.ErrNothingToClaim, err)

	require.NoError(t, l.stake(t, alice, 100))
	l.rt.SetTime(30)

	earned, err := l.staking.Earned(alice, 30)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), earned)

	_, err = l.rt.Transact(alice, func(env *runtime.Env) error {
		return l.staking.Claim(env, alice, alice)
	})
	require.NoError(t, err)

	balance, err := l.reward.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), balance)

	// stake stays put
	staked, err := l.staking.StakedBalance(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), staked)
}

func TestAddRewardsRoleGate(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.rt.Transact(alice, func(env *runtime.Env) error {
		return l.staking.AddRewards(env, alice, big.NewInt(100))
	})
	assert.Equal(t, ErrNotDistributor, err)

	_, err = l.rt.Transact(alice, func(env *runtime.Env) error {
		return l.staking.SetRewardsDuration(env, alice, 10)
	})
	assert.Equal(t, ErrNotAdmin, err)
}
