// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger"
	"github.com/accretefi/accrete/runtime"
)

// DevAccounts returns the pre-funded accounts of the devnet. The first one
// holds the admin and distributor roles.
func DevAccounts() []accrete.Address {
	return []accrete.Address{
		accrete.MustParseAddress("0xf077b491b355e64048ce21e3a6fc4751eeea77fa"),
		accrete.MustParseAddress("0x435933c8064b4ae76be665428e0307ef2ccfbd68"),
		accrete.MustParseAddress("0x0f872421dc479f3c11edd89512731814d0598db5"),
		accrete.MustParseAddress("0xf370940abdbd2583bc80bfc19d19bc216c88ccf0"),
		accrete.MustParseAddress("0x99602e4bbc0503b8ff4432bb1857f916c3653b85"),
		accrete.MustParseAddress("0x61e7d0c2b25706be3485980f39a3a994a8207acf"),
		accrete.MustParseAddress("0x361277d1b27504f36a3b33d3a52d1f8270331b8c"),
		accrete.MustParseAddress("0xd7f75a0a1287ab2916848909c8531a0ea9412800"),
		accrete.MustParseAddress("0xabef6032b9176c186f6bf984f548bda53349f70a"),
		accrete.MustParseAddress("0x865306084235bf804c8bba8a8d56890940ca8f0b"),
	}
}

// Devnet presets.
var (
	devLaunchTime      = uint64(1735689600) // 2025-01-01 00:00:00 UTC
	devAllocation, _   = new(big.Int).SetString("1000000000000000000000000", 10)
	devEngineFunding   = new(big.Int).Mul(big.NewInt(1_000_000), accrete.RewardScale)
	devRewardsDuration = uint64(7 * 24 * 3600)
)

// NewDevnet creates the genesis preset for solo mode.
func NewDevnet() *Genesis {
	builder := new(Builder).
		Timestamp(devLaunchTime).
		State(func(led *ledger.Ledger, _ *runtime.Env) error {
			for _, addr := range DevAccounts() {
				if err := led.Underlying.Mint(addr, devAllocation); err != nil {
					return err
				}
			}
			return led.Reward.Mint(led.Engine.Address(), devEngineFunding)
		}).
		State(func(led *ledger.Ledger, _ *runtime.Env) error {
			admin := DevAccounts()[0]
			for _, grant := range []struct {
				role   accrete.Bytes32
				member accrete.Address
			}{
				{accrete.RoleAdmin, admin},
				{accrete.RoleDistributor, admin},
				{accrete.RoleInvoker, admin},
				{accrete.RoleOrchestrator, led.Staking.Address()},
			} {
				if _, err := led.Roles.Grant(grant.role, grant.member); err != nil {
					return err
				}
			}
			return nil
		}).
		State(func(led *ledger.Ledger, env *runtime.Env) error {
			if err := led.Params.Set(accrete.KeySupplyCeiling, accrete.MaxStakingSupply); err != nil {
				return err
			}
			admin := DevAccounts()[0]
			if err := led.Registry.SetTemplate(admin, led.Registry.Address()); err != nil {
				return err
			}
			return led.Staking.SetRewardsDuration(env, admin, devRewardsDuration)
		})

	// devnet id computation cannot fail on an in-memory db
	gene, err := newGenesis(builder, "devnet")
	if err != nil {
		panic(err)
	}
	return gene
}
