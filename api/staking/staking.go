// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking exposes the staking ledger over REST: read endpoints for
// positions and reward state, and operation endpoints that execute through
// the node.
package staking

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/api/restutil"
	"github.com/accretefi/accrete/ledger"
	"github.com/accretefi/accrete/node"
	"github.com/accretefi/accrete/runtime"
)

type Staking struct {
	node *node.Node
}

func New(node *node.Node) *Staking {
	return &Staking{node}
}

func parseAddressVar(req *http.Request, name string) (accrete.Address, error) {
	addr, err := accrete.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return accrete.Address{}, restutil.BadRequest(errors.WithMessage(err, name))
	}
	return *addr, nil
}

func (s *Staking) handleGetStatus(w http.ResponseWriter, req *http.Request) error {
	var status Status
	if err := s.node.Read(func(led *ledger.Ledger, now uint64) error {
		var err error
		if status.Paused, err = led.Staking.Paused(); err != nil {
			return err
		}
		if status.LockupDeadline, err = led.Staking.LockupDeadline(); err != nil {
			return err
		}
		totalStaked, err := led.Engine.TotalSupply()
		if err != nil {
			return err
		}
		rewardRate, err := led.Engine.RewardRate()
		if err != nil {
			return err
		}
		rewardPerToken, err := led.Engine.RewardPerToken(now)
		if err != nil {
			return err
		}
		if status.PeriodFinish, err = led.Engine.PeriodFinish(); err != nil {
			return err
		}
		if status.RewardsDuration, err = led.Engine.RewardsDuration(); err != nil {
			return err
		}
		status.TotalStaked = toDecimal(totalStaked)
		status.RewardRate = toDecimal(rewardRate)
		status.RewardPerToken = toDecimal(rewardPerToken)
		status.Now = now
		return nil
	}); err != nil {
		return err
	}
	status.Seq = s.node.Seq()
	return restutil.WriteJSON(w, &status)
}

func (s *Staking) handleGetPosition(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddressVar(req, "address")
	if err != nil {
		return err
	}

	var pos Position
	if err := s.node.Read(func(led *ledger.Ledger, now uint64) error {
		vault, err := led.Staking.VaultOf(addr)
		if err != nil {
			return err
		}
		if !vault.IsZero() {
			pos.Vault = &vault
		}
		balance, err := led.Staking.StakedBalance(addr)
		if err != nil {
			return err
		}
		earned, err := led.Staking.Earned(addr, now)
		if err != nil {
			return err
		}
		pos.StakedBalance = toDecimal(balance)
		pos.Earned = toDecimal(earned)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &pos)
}

func (s *Staking) handleGetAllowance(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddressVar(req, "address")
	if err != nil {
		return err
	}
	invoker, err := accrete.ParseAddress(req.URL.Query().Get("invoker"))
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "invoker"))
	}
	target, err := accrete.ParseAddress(req.URL.Query().Get("target"))
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "target"))
	}

	var allowance Allowance
	if err := s.node.Read(func(led *ledger.Ledger, _ uint64) error {
		vault, err := led.Staking.VaultOf(addr)
		if err != nil {
			return err
		}
		count, err := led.Registry.Allowance(vault, *invoker, *target)
		if err != nil {
			return err
		}
		allowance = Allowance{
			Vault:   vault,
			Invoker: *invoker,
			Target:  *target,
			Count:   count,
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &allowance)
}

func (s *Staking) handleStake(w http.ResponseWriter, req *http.Request) error {
	var sr StakeRequest
	if err := restutil.ParseJSON(req.Body, &sr); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	seq, events, err := s.node.Execute(sr.Caller, func(led *ledger.Ledger, env *runtime.Env) error {
		return led.Staking.Stake(env, sr.Caller, bigOrZero(sr.Amount), sr.Proof)
	})
	if err != nil {
		return err
	}
	receipt := NewReceipt(events, seq)
	return restutil.WriteJSON(w, &receipt)
}

func (s *Staking) handleUnstake(w http.ResponseWriter, req *http.Request) error {
	var ur UnstakeRequest
	if err := restutil.ParseJSON(req.Body, &ur); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	seq, events, err := s.node.Execute(ur.Caller, func(led *ledger.Ledger, env *runtime.Env) error {
		return led.Staking.Unstake(env, ur.Caller, ur.Recipient)
	})
	if err != nil {
		return err
	}
	receipt := NewReceipt(events, seq)
	return restutil.WriteJSON(w, &receipt)
}

func (s *Staking) handleClaim(w http.ResponseWriter, req *http.Request) error {
	var cr ClaimRequest
	if err := restutil.ParseJSON(req.Body, &cr); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	seq, events, err := s.node.Execute(cr.Caller, func(led *ledger.Ledger, env *runtime.Env) error {
		return led.Staking.Claim(env, cr.Caller, cr.Recipient)
	})
	if err != nil {
		return err
	}
	receipt := NewReceipt(events, seq)
	return restutil.WriteJSON(w, &receipt)
}

func (s *Staking) handleSetAllowance(w http.ResponseWriter, req *http.Request) error {
	var ar AllowanceRequest
	if err := restutil.ParseJSON(req.Body, &ar); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	seq, events, err := s.node.Execute(ar.Caller, func(led *ledger.Ledger, _ *runtime.Env) error {
		return led.Registry.SetInvocationAllowance(ar.Caller, ar.Invoker, ar.Target, ar.Count)
	})
	if err != nil {
		return err
	}
	receipt := NewReceipt(events, seq)
	return restutil.WriteJSON(w, &receipt)
}

func (s *Staking) handleInvoke(w http.ResponseWriter, req *http.Request) error {
	var ir InvokeRequest
	if err := restutil.ParseJSON(req.Body, &ir); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	var output []byte
	seq, events, err := s.node.Execute(ir.Caller, func(led *ledger.Ledger, env *runtime.Env) error {
		var err error
		output, err = led.Registry.InvokeVault(env, ir.Caller, ir.Vault, ir.Target, bigOrZero(ir.Value), ir.Payload)
		return err
	})
	if err != nil {
		return err
	}
	result := InvokeResult{
		Receipt: NewReceipt(events, seq),
		Output:  output,
	}
	return restutil.WriteJSON(w, &result)
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/status").
		Methods(http.MethodGet).
		Name("GET /staking/status").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetStatus))
	sub.Path("/accounts/{address}").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetPosition))
	sub.Path("/accounts/{address}/allowance").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{address}/allowance").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetAllowance))
	sub.Path("/stake").
		Methods(http.MethodPost).
		Name("POST /staking/stake").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleStake))
	sub.Path("/unstake").
		Methods(http.MethodPost).
		Name("POST /staking/unstake").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleUnstake))
	sub.Path("/claim").
		Methods(http.MethodPost).
		Name("POST /staking/claim").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleClaim))
	sub.Path("/allowance").
		Methods(http.MethodPost).
		Name("POST /staking/allowance").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleSetAllowance))
	sub.Path("/invoke").
		Methods(http.MethodPost).
		Name("POST /staking/invoke").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleInvoke))
}
