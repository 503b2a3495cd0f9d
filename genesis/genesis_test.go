// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/genesis"
	"github.com/accretefi/accrete/ledger"
	"github.com/accretefi/accrete/lvldb"
	"github.com/accretefi/accrete/state"
)

func TestDevnet(t *testing.T) {
	gene := genesis.NewDevnet()
	assert.Equal(t, "devnet", gene.Name())
	assert.False(t, gene.ID().IsZero())

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	require.NoError(t, gene.Build(st))

	led := ledger.New(st)

	admin := genesis.DevAccounts()[0]
	balance, err := led.Underlying.BalanceOf(admin)
	require.NoError(t, err)
	assert.True(t, balance.Sign() > 0)

	has, err := led.Roles.Has(accrete.RoleAdmin, admin)
	require.NoError(t, err)
	assert.True(t, has)
	has, err = led.Roles.Has(accrete.RoleOrchestrator, led.Staking.Address())
	require.NoError(t, err)
	assert.True(t, has)

	engineBalance, err := led.Reward.BalanceOf(led.Engine.Address())
	require.NoError(t, err)
	assert.True(t, engineBalance.Sign() > 0)

	duration, err := led.Engine.RewardsDuration()
	require.NoError(t, err)
	assert.NotZero(t, duration)

	template, err := led.Registry.Template()
	require.NoError(t, err)
	assert.False(t, template.IsZero())
}

// the same preset always produces the same identity.
func TestDevnetDeterministicID(t *testing.T) {
	assert.Equal(t, genesis.NewDevnet().ID(), genesis.NewDevnet().ID())
}

const customYAML = `
name: testnet
launchTime: 1735689600
accounts:
  - address: "0xf077b491b355e64048ce21e3a6fc4751eeea77fa"
    underlying: "1000000"
    reward: "500"
roles:
  admins:
    - "0xf077b491b355e64048ce21e3a6fc4751eeea77fa"
  distributors:
    - "0x435933c8064b4ae76be665428e0307ef2ccfbd68"
params:
  supplyCeiling: "79228162514264337593543950335"
staking:
  rewardsDuration: 3600
  lockupDeadline: 1767225600
  engineFunding: "100000"
`

func TestCustomNet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customYAML), 0o600))

	gen, err := genesis.LoadCustomGenesis(path)
	require.NoError(t, err)
	assert.Equal(t, "testnet", gen.Name)

	gene, err := genesis.NewCustomNet(gen)
	require.NoError(t, err)
	assert.Equal(t, "testnet", gene.Name())

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)
	require.NoError(t, gene.Build(st))

	led := ledger.New(st)

	holder := accrete.MustParseAddress("0xf077b491b355e64048ce21e3a6fc4751eeea77fa")
	balance, err := led.Underlying.BalanceOf(holder)
	require.NoError(t, err)
	assert.Equal(t, "1000000", balance.String())

	deadline, err := led.Staking.LockupDeadline()
	require.NoError(t, err)
	assert.Equal(t, uint64(1767225600), deadline)

	duration, err := led.Engine.RewardsDuration()
	require.NoError(t, err)
	assert.Equal(t, uint64(3600), duration)
}

func TestCustomNetValidation(t *testing.T) {
	_, err := genesis.NewCustomNet(&genesis.CustomGenesis{})
	assert.Error(t, err)

	_, err = genesis.NewCustomNet(&genesis.CustomGenesis{
		Name:       "x",
		LaunchTime: 1,
		Roles:      genesis.RoleSet{Admins: []string{"0xf077b491b355e64048ce21e3a6fc4751eeea77fa"}},
	})
	// missing rewards duration
	assert.Error(t, err)
}
