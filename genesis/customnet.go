// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger"
	"github.com/accretefi/accrete/runtime"
)

// CustomGenesis is a user-customized network definition, loaded from YAML.
type CustomGenesis struct {
	Name       string    `yaml:"name"`
	LaunchTime uint64    `yaml:"launchTime"`
	Accounts   []Account `yaml:"accounts"`
	Roles      RoleSet   `yaml:"roles"`
	Params     Params    `yaml:"params"`
	Staking    Staking   `yaml:"staking"`
}

// Account is an initial token allocation. Amounts are decimal strings.
type Account struct {
	Address    string `yaml:"address"`
	Underlying string `yaml:"underlying"`
	Reward     string `yaml:"reward"`
}

// RoleSet is the initial role bootstrap.
type RoleSet struct {
	Admins       []string `yaml:"admins"`
	Distributors []string `yaml:"distributors"`
	Invokers     []string `yaml:"invokers"`
}

// Params are the initial protocol parameters. Empty strings keep defaults.
type Params struct {
	SupplyCeiling string `yaml:"supplyCeiling"`
	PoolYieldRate string `yaml:"poolYieldRate"`
}

// Staking holds the orchestrator presets. EngineFunding is the reward-token
// amount minted into the engine at launch.
type Staking struct {
	RewardsDuration uint64 `yaml:"rewardsDuration"`
	LockupDeadline  uint64 `yaml:"lockupDeadline"`
	EngineFunding   string `yaml:"engineFunding"`
}

// LoadCustomGenesis reads a custom network definition from the YAML file at
// the given path.
func LoadCustomGenesis(path string) (*CustomGenesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	var gen CustomGenesis
	if err := yaml.Unmarshal(data, &gen); err != nil {
		return nil, errors.Wrap(err, "parse genesis file")
	}
	return &gen, nil
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return &big.Int{}, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return v, nil
}

func parseAddresses(strs []string) ([]accrete.Address, error) {
	addrs := make([]accrete.Address, 0, len(strs))
	for _, s := range strs {
		addr, err := accrete.ParseAddress(s)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid address %q", s)
		}
		addrs = append(addrs, *addr)
	}
	return addrs, nil
}

// NewCustomNet creates a custom network genesis.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	if gen.Name == "" {
		return nil, errors.New("network name must be set")
	}
	if gen.LaunchTime == 0 {
		return nil, errors.New("launchTime must be set")
	}
	if len(gen.Roles.Admins) == 0 {
		return nil, errors.New("at least one admin required")
	}
	if gen.Staking.RewardsDuration == 0 {
		return nil, errors.New("rewardsDuration must be nonzero")
	}

	admins, err := parseAddresses(gen.Roles.Admins)
	if err != nil {
		return nil, err
	}
	distributors, err := parseAddresses(gen.Roles.Distributors)
	if err != nil {
		return nil, err
	}
	invokers, err := parseAddresses(gen.Roles.Invokers)
	if err != nil {
		return nil, err
	}

	builder := new(Builder).
		Timestamp(gen.LaunchTime).
		State(func(led *ledger.Ledger, _ *runtime.Env) error {
			for _, a := range gen.Accounts {
				addr, err := accrete.ParseAddress(a.Address)
				if err != nil {
					return errors.Wrapf(err, "invalid address %q", a.Address)
				}
				underlying, err := parseAmount(a.Underlying)
				if err != nil {
					return err
				}
				if underlying.Sign() > 0 {
					if err := led.Underlying.Mint(*addr, underlying); err != nil {
						return err
					}
				}
				reward, err := parseAmount(a.Reward)
				if err != nil {
					return err
				}
				if reward.Sign() > 0 {
					if err := led.Reward.Mint(*addr, reward); err != nil {
						return err
					}
				}
			}

			funding, err := parseAmount(gen.Staking.EngineFunding)
			if err != nil {
				return err
			}
			if funding.Sign() > 0 {
				return led.Reward.Mint(led.Engine.Address(), funding)
			}
			return nil
		}).
		State(func(led *ledger.Ledger, _ *runtime.Env) error {
			grant := func(role accrete.Bytes32, members []accrete.Address) error {
				for _, member := range members {
					if _, err := led.Roles.Grant(role, member); err != nil {
						return err
					}
				}
				return nil
			}
			if err := grant(accrete.RoleAdmin, admins); err != nil {
				return err
			}
			if err := grant(accrete.RoleDistributor, distributors); err != nil {
				return err
			}
			if err := grant(accrete.RoleInvoker, invokers); err != nil {
				return err
			}
			_, err := led.Roles.Grant(accrete.RoleOrchestrator, led.Staking.Address())
			return err
		}).
		State(func(led *ledger.Ledger, env *runtime.Env) error {
			ceiling, err := parseAmount(gen.Params.SupplyCeiling)
			if err != nil {
				return err
			}
			if ceiling.Sign() > 0 {
				if err := led.Params.Set(accrete.KeySupplyCeiling, ceiling); err != nil {
					return err
				}
			}
			yieldRate, err := parseAmount(gen.Params.PoolYieldRate)
			if err != nil {
				return err
			}
			if yieldRate.Sign() > 0 {
				if err := led.Params.Set(accrete.KeyPoolYieldRate, yieldRate); err != nil {
					return err
				}
			}

			admin := admins[0]
			if err := led.Registry.SetTemplate(admin, led.Registry.Address()); err != nil {
				return err
			}
			if err := led.Staking.SetRewardsDuration(env, admin, gen.Staking.RewardsDuration); err != nil {
				return err
			}
			if gen.Staking.LockupDeadline > 0 {
				return led.Staking.SetLockupDeadline(env, admin, gen.Staking.LockupDeadline)
			}
			return nil
		})

	return newGenesis(builder, gen.Name)
}
