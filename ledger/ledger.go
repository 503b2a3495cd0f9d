// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger assembles the native contracts of the staking program over
// a single world state, each bound to its well-known address.
package ledger

import (
	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger/params"
	"github.com/accretefi/accrete/ledger/pool"
	"github.com/accretefi/accrete/ledger/rewards"
	"github.com/accretefi/accrete/ledger/roles"
	"github.com/accretefi/accrete/ledger/staking"
	"github.com/accretefi/accrete/ledger/token"
	"github.com/accretefi/accrete/ledger/vaults"
	"github.com/accretefi/accrete/state"
)

// Well-known addresses of the native contracts.
var (
	UnderlyingAddress = accrete.BytesToAddress([]byte("Underlying"))
	RewardAddress     = accrete.BytesToAddress([]byte("Reward"))
	ParamsAddress     = accrete.BytesToAddress([]byte("Params"))
	RolesAddress      = accrete.BytesToAddress([]byte("Roles"))
	PoolAddress       = accrete.BytesToAddress([]byte("Pool"))
	RewardsAddress    = accrete.BytesToAddress([]byte("Rewards"))
	VaultsAddress     = accrete.BytesToAddress([]byte("Vaults"))
	StakingAddress    = accrete.BytesToAddress([]byte("Staking"))
)

// Ledger is the set of native contracts sharing one state.
type Ledger struct {
	Underlying *token.Token
	Reward     *token.Token
	Params     *params.Params
	Roles      *roles.Roles
	Pool       *pool.Pool
	Engine     *rewards.Engine
	Registry   *vaults.Registry
	Staking    *staking.Staking
}

// New assembles the contracts over the given state.
func New(st *state.State) *Ledger {
	underlying := token.New(UnderlyingAddress, st)
	reward := token.New(RewardAddress, st)
	pp := params.New(ParamsAddress, st)
	rr := roles.New(RolesAddress, st)
	p := pool.New(PoolAddress, st, underlying, pp)
	engine := rewards.New(RewardsAddress, st, reward, pp)
	registry := vaults.New(VaultsAddress, st, rr)
	orchestrator := staking.New(StakingAddress, st, underlying, engine, p, registry, rr)

	return &Ledger{
		Underlying: underlying,
		Reward:     reward,
		Params:     pp,
		Roles:      rr,
		Pool:       p,
		Engine:     engine,
		Registry:   registry,
		Staking:    orchestrator,
	}
}
