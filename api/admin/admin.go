// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin exposes governance operations and runtime controls. Role
// checks happen in the ledger; this layer only routes and decodes.
package admin

import (
	"log/slog"
	"math/big"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/accretefi/accrete/api/restutil"
	"github.com/accretefi/accrete/api/staking"
	"github.com/accretefi/accrete/ledger"
	"github.com/accretefi/accrete/log"
	"github.com/accretefi/accrete/node"
	"github.com/accretefi/accrete/runtime"
)

type Admin struct {
	node     *node.Node
	logLevel *slog.LevelVar
}

func New(node *node.Node, logLevel *slog.LevelVar) *Admin {
	return &Admin{node, logLevel}
}

func (a *Admin) handleSetPaused(w http.ResponseWriter, req *http.Request) error {
	var pr PauseRequest
	if err := restutil.ParseJSON(req.Body, &pr); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	seq, events, err := a.node.Execute(pr.Caller, func(led *ledger.Ledger, env *runtime.Env) error {
		return led.Staking.SetPaused(env, pr.Caller, pr.Paused)
	})
	if err != nil {
		return err
	}
	receipt := staking.NewReceipt(events, seq)
	return restutil.WriteJSON(w, &receipt)
}

func (a *Admin) handleSetLockup(w http.ResponseWriter, req *http.Request) error {
	var lr LockupRequest
	if err := restutil.ParseJSON(req.Body, &lr); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	seq, events, err := a.node.Execute(lr.Caller, func(led *ledger.Ledger, env *runtime.Env) error {
		return led.Staking.SetLockupDeadline(env, lr.Caller, lr.Deadline)
	})
	if err != nil {
		return err
	}
	receipt := staking.NewReceipt(events, seq)
	return restutil.WriteJSON(w, &receipt)
}

func (a *Admin) handleSetTemplate(w http.ResponseWriter, req *http.Request) error {
	var tr TemplateRequest
	if err := restutil.ParseJSON(req.Body, &tr); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	seq, events, err := a.node.Execute(tr.Caller, func(led *ledger.Ledger, _ *runtime.Env) error {
		return led.Registry.SetTemplate(tr.Caller, tr.Template)
	})
	if err != nil {
		return err
	}
	receipt := staking.NewReceipt(events, seq)
	return restutil.WriteJSON(w, &receipt)
}

func (a *Admin) handleAddRewards(w http.ResponseWriter, req *http.Request) error {
	var rr RewardsRequest
	if err := restutil.ParseJSON(req.Body, &rr); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	amount := new(big.Int)
	if rr.Amount != nil {
		amount = (*big.Int)(rr.Amount)
	}

	seq, events, err := a.node.Execute(rr.Caller, func(led *ledger.Ledger, env *runtime.Env) error {
		return led.Staking.AddRewards(env, rr.Caller, amount)
	})
	if err != nil {
		return err
	}
	receipt := staking.NewReceipt(events, seq)
	return restutil.WriteJSON(w, &receipt)
}

func (a *Admin) handleSetRewardsDuration(w http.ResponseWriter, req *http.Request) error {
	var dr RewardsDurationRequest
	if err := restutil.ParseJSON(req.Body, &dr); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	seq, events, err := a.node.Execute(dr.Caller, func(led *ledger.Ledger, env *runtime.Env) error {
		return led.Staking.SetRewardsDuration(env, dr.Caller, dr.Duration)
	})
	if err != nil {
		return err
	}
	receipt := staking.NewReceipt(events, seq)
	return restutil.WriteJSON(w, &receipt)
}

func (a *Admin) handleGetLogLevel(w http.ResponseWriter, _ *http.Request) error {
	return restutil.WriteJSON(w, &LogLevelResponse{
		CurrentLevel: a.logLevel.Level().String(),
	})
}

func (a *Admin) handleSetLogLevel(w http.ResponseWriter, req *http.Request) error {
	var lr LogLevelRequest
	if err := restutil.ParseJSON(req.Body, &lr); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	switch lr.Level {
	case "debug":
		a.logLevel.Set(log.LevelDebug)
	case "info":
		a.logLevel.Set(log.LevelInfo)
	case "warn":
		a.logLevel.Set(log.LevelWarn)
	case "error":
		a.logLevel.Set(log.LevelError)
	case "trace":
		a.logLevel.Set(log.LevelTrace)
	case "crit":
		a.logLevel.Set(log.LevelCrit)
	default:
		return restutil.BadRequest(errors.New("invalid verbosity level"))
	}

	return restutil.WriteJSON(w, &LogLevelResponse{
		CurrentLevel: a.logLevel.Level().String(),
	})
}

func (a *Admin) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/pause").
		Methods(http.MethodPost).
		Name("POST /admin/pause").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleSetPaused))
	sub.Path("/lockup").
		Methods(http.MethodPost).
		Name("POST /admin/lockup").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleSetLockup))
	sub.Path("/template").
		Methods(http.MethodPost).
		Name("POST /admin/template").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleSetTemplate))
	sub.Path("/rewards").
		Methods(http.MethodPost).
		Name("POST /admin/rewards").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleAddRewards))
	sub.Path("/rewards-duration").
		Methods(http.MethodPost).
		Name("POST /admin/rewards-duration").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleSetRewardsDuration))
	sub.Path("/loglevel").
		Methods(http.MethodGet).
		Name("GET /admin/loglevel").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleGetLogLevel))
	sub.Path("/loglevel").
		Methods(http.MethodPost).
		Name("POST /admin/loglevel").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleSetLogLevel))
}
