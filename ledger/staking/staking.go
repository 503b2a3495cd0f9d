// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking implements the orchestrator binding vault custody, the
// external yield pool and the reward distribution engine behind a single
// stake/unstake surface. It carries no accrual logic of its own; it wires
// the parts together and enforces the lockup deadline and the pause switch.
package staking

import (
	"math/big"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger/pool"
	"github.com/accretefi/accrete/ledger/reverts"
	"github.com/accretefi/accrete/ledger/rewards"
	"github.com/accretefi/accrete/ledger/roles"
	"github.com/accretefi/accrete/ledger/token"
	"github.com/accretefi/accrete/ledger/vaults"
	"github.com/accretefi/accrete/log"
	"github.com/accretefi/accrete/metrics"
	"github.com/accretefi/accrete/runtime"
	"github.com/accretefi/accrete/state"
)

var logger = log.WithContext("pkg", "staking")

var metricOps = metrics.LazyLoadCounterVec("staking_op_count", []string{"op"})

// Typed failure reasons.
var (
	ErrPaused            = reverts.New("staking: paused")
	ErrNotAdmin          = reverts.New("staking: caller is not an admin")
	ErrNotDistributor    = reverts.New("staking: caller is not a distributor")
	ErrSameValue         = reverts.New("staking: value unchanged")
	ErrLockupNotExpired  = reverts.New("staking: lockup not expired")
	ErrNothingToWithdraw = reverts.New("staking: nothing to withdraw")
)

// Event names emitted by the orchestrator.
const (
	EvStaked             = "Staked"
	EvUnstaked           = "Unstaked"
	EvClaimed            = "Claimed"
	EvPaused             = "PauseChanged"
	EvLockupDeadlineSet  = "LockupDeadlineSet"
	EvRewardsAdded       = "RewardsAdded"
	EvRewardsDurationSet = "RewardsDurationSet"
)

var (
	pausedKey = accrete.Blake2b([]byte("paused"))
	lockupKey = accrete.Blake2b([]byte("lockup-deadline"))
)

// Staking is the orchestrator bound to (address, state) and the contracts it
// composes.
type Staking struct {
	addr       accrete.Address
	state      *state.State
	underlying *token.Token
	engine     *rewards.Engine
	pool       *pool.Pool
	registry   *vaults.Registry
	roles      *roles.Roles
}

// New creates an orchestrator instance.
func New(
	addr accrete.Address,
	st *state.State,
	underlying *token.Token,
	engine *rewards.Engine,
	p *pool.Pool,
	registry *vaults.Registry,
	rr *roles.Roles,
) *Staking {
	return &Staking{addr, st, underlying, engine, p, registry, rr}
}

// Address returns the orchestrator's own address.
func (s *Staking) Address() accrete.Address { return s.addr }

func (s *Staking) requireRole(role accrete.Bytes32, member accrete.Address, errRole error) error {
	has, err := s.roles.Has(role, member)
	if err != nil {
		return err
	}
	if !has {
		return errRole
	}
	return nil
}

// Paused returns whether the pause switch is on.
func (s *Staking) Paused() (bool, error) {
	var paused bool
	if err := s.state.GetStructuredStorage(s.addr, pausedKey, &paused); err != nil {
		return false, err
	}
	return paused, nil
}

// LockupDeadline returns the timestamp before which unstaking is rejected.
func (s *Staking) LockupDeadline() (uint64, error) {
	var deadline uint64
	if err := s.state.GetStructuredStorage(s.addr, lockupKey, &deadline); err != nil {
		return 0, err
	}
	return deadline, nil
}

func (s *Staking) checkNotPaused() error {
	paused, err := s.Paused()
	if err != nil {
		return err
	}
	if paused {
		return ErrPaused
	}
	return nil
}

// VaultOf returns the caller's vault, zero if none exists yet.
func (s *Staking) VaultOf(principal accrete.Address) (accrete.Address, error) {
	return s.registry.VaultOf(principal)
}

// Stake locks amount of the underlying for the principal: the principal's
// vault is looked up or lazily created, the tokens move into the vault, the
// vault's position is supplied to the yield pool, and the deposit is
// recorded in the reward engine. The principal must have approved the
// orchestrator for at least amount.
func (s *Staking) Stake(env *runtime.Env, principal accrete.Address, amount *big.Int, proof []byte) error {
	return env.NonReentrant(func() error {
		if err := s.checkNotPaused(); err != nil {
			return err
		}

		vaultAddr, err := s.registry.VaultOf(principal)
		if err != nil {
			return err
		}
		if vaultAddr.IsZero() {
			if vaultAddr, err = s.registry.Create(s.addr, principal); err != nil {
				return err
			}
		}

		if err := s.underlying.TransferFrom(s.addr, principal, vaultAddr, amount); err != nil {
			return err
		}
		if err := s.pool.Supply(vaultAddr, vaultAddr, amount, proof, env.Now()); err != nil {
			return err
		}
		if err := s.engine.Deposit(vaultAddr, amount, env.Now()); err != nil {
			return err
		}

		metricOps().AddWithLabel(1, map[string]string{"op": "stake"})
		logger.Debug("staked", "principal", principal, "vault", vaultAddr, "amount", amount)
		env.Log(runtime.NewEvent(s.addr, EvStaked,
			[]accrete.Bytes32{accrete.BytesToHash(principal.Bytes())}, vaultAddr, amount))
		return nil
	})
}

// Unstake withdraws the principal's entire pool position to recipient and
// exits the reward engine for the same vault/recipient pair. Rejected while
// the lockup deadline has not passed.
func (s *Staking) Unstake(env *runtime.Env, principal, recipient accrete.Address) error {
	return env.NonReentrant(func() error {
		if err := s.checkNotPaused(); err != nil {
			return err
		}
		deadline, err := s.LockupDeadline()
		if err != nil {
			return err
		}
		if env.Now() < deadline {
			return ErrLockupNotExpired
		}

		vaultAddr, err := s.registry.VaultOf(principal)
		if err != nil {
			return err
		}
		if vaultAddr.IsZero() {
			return ErrNothingToWithdraw
		}
		balance, err := s.pool.BalanceOf(vaultAddr, env.Now())
		if err != nil {
			return err
		}
		if balance.Sign() == 0 {
			return ErrNothingToWithdraw
		}

		if err := s.registry.WithdrawFor(s.addr, vaultAddr, s.pool, recipient, balance, env.Now()); err != nil {
			return err
		}
		if err := s.engine.Exit(vaultAddr, recipient, env.Now()); err != nil {
			return err
		}

		metricOps().AddWithLabel(1, map[string]string{"op": "unstake"})
		logger.Debug("unstaked", "principal", principal, "vault", vaultAddr, "amount", balance)
		env.Log(runtime.NewEvent(s.addr, EvUnstaked,
			[]accrete.Bytes32{accrete.BytesToHash(principal.Bytes())}, vaultAddr, recipient, balance))
		return nil
	})
}

// Claim pays the principal's settled reward out to recipient without
// touching the staked position.
func (s *Staking) Claim(env *runtime.Env, principal, recipient accrete.Address) error {
	return env.NonReentrant(func() error {
		vaultAddr, err := s.registry.VaultOf(principal)
		if err != nil {
			return err
		}
		if vaultAddr.IsZero() {
			return rewards.ErrNothingToClaim
		}
		if err := s.engine.Claim(vaultAddr, recipient, env.Now()); err != nil {
			return err
		}

		metricOps().AddWithLabel(1, map[string]string{"op": "claim"})
		env.Log(runtime.NewEvent(s.addr, EvClaimed,
			[]accrete.Bytes32{accrete.BytesToHash(principal.Bytes())}, recipient))
		return nil
	})
}

// Earned returns the principal's accrued reward at the given time.
func (s *Staking) Earned(principal accrete.Address, now uint64) (*big.Int, error) {
	vaultAddr, err := s.registry.VaultOf(principal)
	if err != nil {
		return nil, err
	}
	if vaultAddr.IsZero() {
		return &big.Int{}, nil
	}
	return s.engine.Earned(vaultAddr, now)
}

// StakedBalance returns the principal's balance recorded in the reward
// engine.
func (s *Staking) StakedBalance(principal accrete.Address) (*big.Int, error) {
	vaultAddr, err := s.registry.VaultOf(principal)
	if err != nil {
		return nil, err
	}
	if vaultAddr.IsZero() {
		return &big.Int{}, nil
	}
	return s.engine.BalanceOf(vaultAddr)
}

// SetPaused flips the pause switch. Admin only; the value must change.
func (s *Staking) SetPaused(env *runtime.Env, caller accrete.Address, paused bool) error {
	if err := s.requireRole(accrete.RoleAdmin, caller, ErrNotAdmin); err != nil {
		return err
	}
	current, err := s.Paused()
	if err != nil {
		return err
	}
	if current == paused {
		return ErrSameValue
	}
	if err := s.state.SetStructuredStorage(s.addr, pausedKey, paused); err != nil {
		return err
	}
	logger.Info("pause switch changed", "paused", paused)
	env.Log(runtime.NewEvent(s.addr, EvPaused, nil, paused))
	return nil
}

// SetLockupDeadline updates the lockup deadline. Admin only.
func (s *Staking) SetLockupDeadline(env *runtime.Env, caller accrete.Address, deadline uint64) error {
	if err := s.requireRole(accrete.RoleAdmin, caller, ErrNotAdmin); err != nil {
		return err
	}
	if err := s.state.SetStructuredStorage(s.addr, lockupKey, deadline); err != nil {
		return err
	}
	logger.Info("lockup deadline set", "deadline", deadline)
	env.Log(runtime.NewEvent(s.addr, EvLockupDeadlineSet, nil, deadline))
	return nil
}

// AddRewards starts or tops up the reward epoch. Distributor only. The
// reward tokens must already sit in the engine.
func (s *Staking) AddRewards(env *runtime.Env, caller accrete.Address, amount *big.Int) error {
	if err := s.requireRole(accrete.RoleDistributor, caller, ErrNotDistributor); err != nil {
		return err
	}
	if err := s.engine.AddRewards(amount, env.Now()); err != nil {
		return err
	}
	env.Log(runtime.NewEvent(s.addr, EvRewardsAdded, nil, amount))
	return nil
}

// SetRewardsDuration updates the reward epoch length. Admin only.
func (s *Staking) SetRewardsDuration(env *runtime.Env, caller accrete.Address, duration uint64) error {
	if err := s.requireRole(accrete.RoleAdmin, caller, ErrNotAdmin); err != nil {
		return err
	}
	if err := s.engine.SetRewardsDuration(duration, env.Now()); err != nil {
		return err
	}
	env.Log(runtime.NewEvent(s.addr, EvRewardsDurationSet, nil, duration))
	return nil
}
