// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accrete

import "math/big"

var (
	// RewardScale fixed scale factor carried by the reward-per-token accumulator.
	RewardScale = big.NewInt(1e18)

	// MaxStakingSupply the hard ceiling of total staked supply (2^96 - 1).
	MaxStakingSupply = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1))

	// Well-known protocol parameter keys, resolved through the params ledger.
	KeySupplyCeiling = Blake2b([]byte("supply-ceiling"))
	KeyPoolYieldRate = Blake2b([]byte("pool-yield-rate"))

	// Role identifiers checked by the role registry.
	RoleAdmin        = Blake2b([]byte("role-admin"))
	RoleInvoker      = Blake2b([]byte("role-invoker"))
	RoleDistributor  = Blake2b([]byte("role-distributor"))
	RoleOrchestrator = Blake2b([]byte("role-orchestrator"))
)
