// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger/params"
	"github.com/accretefi/accrete/ledger/reverts"
	"github.com/accretefi/accrete/ledger/token"
	"github.com/accretefi/accrete/state"
)

// Typed failure reasons.
var (
	ErrZeroAmount           = reverts.New("pool: zero amount")
	ErrInsufficientPosition = reverts.New("pool: insufficient position")
)

func positionKey(account accrete.Address) accrete.Bytes32 {
	return accrete.Blake2b(account.Bytes(), []byte("position"))
}

// Pool is the yield pool: it custodies supplied underlying tokens and grows
// positions linearly at the configured yield rate. The growth is realized by
// minting underlying on withdrawal.
type Pool struct {
	addr       accrete.Address
	state      *state.State
	underlying *token.Token
	params     *params.Params
}

// New creates a pool instance.
func New(addr accrete.Address, st *state.State, underlying *token.Token, pp *params.Params) *Pool {
	return &Pool{addr, st, underlying, pp}
}

// Address returns the pool's own address.
func (p *Pool) Address() accrete.Address { return p.addr }

func (p *Pool) yieldRate() (*big.Int, error) {
	return p.params.Get(accrete.KeyPoolYieldRate)
}

func (p *Pool) getPosition(account accrete.Address) (*position, error) {
	var pos position
	if err := p.state.GetStructuredStorage(p.addr, positionKey(account), &pos); err != nil {
		return nil, err
	}
	return &pos, nil
}

func (p *Pool) setPosition(account accrete.Address, pos *position) error {
	return p.state.SetStructuredStorage(p.addr, positionKey(account), pos)
}

// BalanceOf returns the position balance of the account at the given time.
func (p *Pool) BalanceOf(account accrete.Address, now uint64) (*big.Int, error) {
	pos, err := p.getPosition(account)
	if err != nil {
		return nil, err
	}
	rate, err := p.yieldRate()
	if err != nil {
		return nil, err
	}
	return pos.CalcBalance(now, rate), nil
}

// Supply deposits amount of underlying from `from` on behalf of onBehalfOf.
// The proof parameter is an optional inclusion proof; the reference pool
// accepts any supplier and ignores it.
func (p *Pool) Supply(from, onBehalfOf accrete.Address, amount *big.Int, _ []byte, now uint64) error {
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if err := p.underlying.Transfer(from, p.addr, amount); err != nil {
		return err
	}

	pos, err := p.getPosition(onBehalfOf)
	if err != nil {
		return err
	}
	rate, err := p.yieldRate()
	if err != nil {
		return err
	}
	balance := pos.CalcBalance(now, rate)
	return p.setPosition(onBehalfOf, &position{
		Balance:   new(big.Int).Add(balance, amount),
		Timestamp: now,
	})
}

// Withdraw moves amount of the account's position to recipient. Accrued
// yield in excess of what the pool custodies is minted on the way out.
func (p *Pool) Withdraw(account, recipient accrete.Address, amount *big.Int, now uint64) error {
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	pos, err := p.getPosition(account)
	if err != nil {
		return err
	}
	rate, err := p.yieldRate()
	if err != nil {
		return err
	}
	balance := pos.CalcBalance(now, rate)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientPosition
	}

	// realize growth so the pool holds enough underlying
	if grown := new(big.Int).Sub(balance, pos.Balance); grown.Sign() > 0 {
		if err := p.underlying.Mint(p.addr, grown); err != nil {
			return err
		}
	}

	if err := p.setPosition(account, &position{
		Balance:   new(big.Int).Sub(balance, amount),
		Timestamp: now,
	}); err != nil {
		return err
	}
	return p.underlying.Transfer(p.addr, recipient, amount)
}
