// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tokens exposes the underlying and reward token contracts over REST.
package tokens

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/api/restutil"
	"github.com/accretefi/accrete/ledger"
	"github.com/accretefi/accrete/ledger/token"
	"github.com/accretefi/accrete/node"
	"github.com/accretefi/accrete/runtime"
)

// token symbols routable in the url
const (
	SymbolUnderlying = "underlying"
	SymbolReward     = "reward"
)

type Tokens struct {
	node *node.Node
}

func New(node *node.Node) *Tokens {
	return &Tokens{node}
}

func tokenBySymbol(led *ledger.Ledger, symbol string) (*token.Token, error) {
	switch symbol {
	case SymbolUnderlying:
		return led.Underlying, nil
	case SymbolReward:
		return led.Reward, nil
	default:
		return nil, restutil.BadRequest(errors.New("unknown token symbol: " + symbol))
	}
}

func (ts *Tokens) handleGetSupply(w http.ResponseWriter, req *http.Request) error {
	symbol := mux.Vars(req)["symbol"]

	var supply Supply
	if err := ts.node.Read(func(led *ledger.Ledger, _ uint64) error {
		tok, err := tokenBySymbol(led, symbol)
		if err != nil {
			return err
		}
		total, err := tok.TotalSupply()
		if err != nil {
			return err
		}
		supply.TotalSupply = (*math.HexOrDecimal256)(total)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &supply)
}

func (ts *Tokens) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	symbol := mux.Vars(req)["symbol"]
	addr, err := accrete.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	var spender *accrete.Address
	if raw := req.URL.Query().Get("spender"); raw != "" {
		if spender, err = accrete.ParseAddress(raw); err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "spender"))
		}
	}

	var acc Account
	if err := ts.node.Read(func(led *ledger.Ledger, _ uint64) error {
		tok, err := tokenBySymbol(led, symbol)
		if err != nil {
			return err
		}
		balance, err := tok.BalanceOf(*addr)
		if err != nil {
			return err
		}
		acc.Balance = (*math.HexOrDecimal256)(balance)
		if spender != nil {
			allowance, err := tok.Allowance(*addr, *spender)
			if err != nil {
				return err
			}
			acc.Allowance = (*math.HexOrDecimal256)(allowance)
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &acc)
}

func (ts *Tokens) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	symbol := mux.Vars(req)["symbol"]
	var tr TransferRequest
	if err := restutil.ParseJSON(req.Body, &tr); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	_, _, err := ts.node.Execute(tr.Caller, func(led *ledger.Ledger, _ *runtime.Env) error {
		tok, err := tokenBySymbol(led, symbol)
		if err != nil {
			return err
		}
		return tok.Transfer(tr.Caller, tr.Recipient, amountOrZero(tr.Amount))
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{"ok": true})
}

func (ts *Tokens) handleApprove(w http.ResponseWriter, req *http.Request) error {
	symbol := mux.Vars(req)["symbol"]
	var ar ApproveRequest
	if err := restutil.ParseJSON(req.Body, &ar); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}

	_, _, err := ts.node.Execute(ar.Caller, func(led *ledger.Ledger, _ *runtime.Env) error {
		tok, err := tokenBySymbol(led, symbol)
		if err != nil {
			return err
		}
		return tok.Approve(ar.Caller, ar.Spender, amountOrZero(ar.Amount))
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{"ok": true})
}

func amountOrZero(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return (*big.Int)(v)
}

func (ts *Tokens) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/{symbol}").
		Methods(http.MethodGet).
		Name("GET /tokens/{symbol}").
		HandlerFunc(restutil.WrapHandlerFunc(ts.handleGetSupply))
	sub.Path("/{symbol}/accounts/{address}").
		Methods(http.MethodGet).
		Name("GET /tokens/{symbol}/accounts/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(ts.handleGetAccount))
	sub.Path("/{symbol}/transfer").
		Methods(http.MethodPost).
		Name("POST /tokens/{symbol}/transfer").
		HandlerFunc(restutil.WrapHandlerFunc(ts.handleTransfer))
	sub.Path("/{symbol}/approve").
		Methods(http.MethodPost).
		Name("POST /tokens/{symbol}/approve").
		HandlerFunc(restutil.WrapHandlerFunc(ts.handleApprove))
}
