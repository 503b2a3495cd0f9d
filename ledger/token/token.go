// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger/reverts"
	"github.com/accretefi/accrete/state"
)

// Typed failure reasons.
var (
	ErrZeroAmount            = reverts.New("token: zero amount")
	ErrInsufficientBalance   = reverts.New("token: insufficient balance")
	ErrInsufficientAllowance = reverts.New("token: insufficient allowance")
)

var totalSupplyKey = accrete.Blake2b([]byte("total-supply"))

func balanceKey(holder accrete.Address) accrete.Bytes32 {
	return accrete.Blake2b(holder.Bytes(), []byte("balance"))
}

func allowanceKey(owner, spender accrete.Address) accrete.Bytes32 {
	return accrete.Blake2b(owner.Bytes(), spender.Bytes(), []byte("allowance"))
}

// Token is a fungible token ledger bound to (address, state).
// Callers are authenticated by the layer above; methods take explicit
// holder/spender identities.
type Token struct {
	addr  accrete.Address
	state *state.State
}

// New creates a token ledger instance.
func New(addr accrete.Address, st *state.State) *Token {
	return &Token{addr, st}
}

// Address returns the ledger's own address.
func (t *Token) Address() accrete.Address { return t.addr }

func (t *Token) getAmount(key accrete.Bytes32) (*big.Int, error) {
	var amount big.Int
	if err := t.state.GetStructuredStorage(t.addr, key, &amount); err != nil {
		return nil, err
	}
	return &amount, nil
}

func (t *Token) setAmount(key accrete.Bytes32, amount *big.Int) error {
	return t.state.SetStructuredStorage(t.addr, key, amount)
}

// TotalSupply returns the total minted supply.
func (t *Token) TotalSupply() (*big.Int, error) {
	return t.getAmount(totalSupplyKey)
}

// BalanceOf returns the balance of the holder.
func (t *Token) BalanceOf(holder accrete.Address) (*big.Int, error) {
	return t.getAmount(balanceKey(holder))
}

// Allowance returns the remaining amount spender may transfer from owner.
func (t *Token) Allowance(owner, spender accrete.Address) (*big.Int, error) {
	return t.getAmount(allowanceKey(owner, spender))
}

// Mint creates amount new tokens for the holder.
func (t *Token) Mint(holder accrete.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	balance, err := t.getAmount(balanceKey(holder))
	if err != nil {
		return err
	}
	if err := t.setAmount(balanceKey(holder), new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	supply, err := t.getAmount(totalSupplyKey)
	if err != nil {
		return err
	}
	return t.setAmount(totalSupplyKey, new(big.Int).Add(supply, amount))
}

// Transfer moves amount from one holder to another.
func (t *Token) Transfer(from, to accrete.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	fromBalance, err := t.getAmount(balanceKey(from))
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := t.setAmount(balanceKey(from), new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	toBalance, err := t.getAmount(balanceKey(to))
	if err != nil {
		return err
	}
	return t.setAmount(balanceKey(to), new(big.Int).Add(toBalance, amount))
}

// Approve sets the allowance of spender over owner's balance (absolute set).
func (t *Token) Approve(owner, spender accrete.Address, amount *big.Int) error {
	return t.setAmount(allowanceKey(owner, spender), amount)
}

// TransferFrom moves amount from `from` to `to`, consuming spender's
// allowance.
func (t *Token) TransferFrom(spender, from, to accrete.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	allowance, err := t.getAmount(allowanceKey(from, spender))
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := t.setAmount(allowanceKey(from, spender), new(big.Int).Sub(allowance, amount)); err != nil {
		return err
	}
	return t.Transfer(from, to, amount)
}
