// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/lvldb"
	"github.com/accretefi/accrete/state"
)

var (
	alice = accrete.BytesToAddress([]byte("alice"))
	bob   = accrete.BytesToAddress([]byte("bob"))
	carol = accrete.BytesToAddress([]byte("carol"))
)

func newTestToken(t *testing.T) *Token {
	db, err := lvldb.NewMem()
	assert.NoError(t, err)
	return New(accrete.BytesToAddress([]byte("Token")), state.New(db))
}

func M(a ...any) []any {
	return a
}

func TestMintAndTransfer(t *testing.T) {
	tok := newTestToken(t)

	assert.NoError(t, tok.Mint(alice, big.NewInt(1000)))
	assert.Equal(t, M(big.NewInt(1000), nil), M(tok.BalanceOf(alice)))
	assert.Equal(t, M(big.NewInt(1000), nil), M(tok.TotalSupply()))

	assert.NoError(t, tok.Transfer(alice, bob, big.NewInt(400)))
	assert.Equal(t, M(big.NewInt(600), nil), M(tok.BalanceOf(alice)))
	assert.Equal(t, M(big.NewInt(400), nil), M(tok.BalanceOf(bob)))
	// total supply untouched by transfers
	assert.Equal(t, M(big.NewInt(1000), nil), M(tok.TotalSupply()))

	assert.Equal(t, ErrInsufficientBalance, tok.Transfer(bob, alice, big.NewInt(401)))
	assert.Equal(t, ErrZeroAmount, tok.Transfer(alice, bob, big.NewInt(0)))
}

func TestApproveAndTransferFrom(t *testing.T) {
	tok := newTestToken(t)

	assert.NoError(t, tok.Mint(alice, big.NewInt(100)))
	assert.NoError(t, tok.Approve(alice, bob, big.NewInt(60)))
	assert.Equal(t, M(big.NewInt(60), nil), M(tok.Allowance(alice, bob)))

	assert.NoError(t, tok.TransferFrom(bob, alice, carol, big.NewInt(40)))
	assert.Equal(t, M(big.NewInt(40), nil), M(tok.BalanceOf(carol)))
	assert.Equal(t, M(big.NewInt(20), nil), M(tok.Allowance(alice, bob)))

	assert.Equal(t, ErrInsufficientAllowance, tok.TransferFrom(bob, alice, carol, big.NewInt(21)))
	// allowance left unchanged by the failed transfer
	assert.Equal(t, M(big.NewInt(20), nil), M(tok.Allowance(alice, bob)))
}

func TestEmptySlotsAreZero(t *testing.T) {
	tok := newTestToken(t)

	assert.Equal(t, M(big.NewInt(0), nil), M(tok.BalanceOf(alice)))
	assert.Equal(t, M(big.NewInt(0), nil), M(tok.TotalSupply()))
	assert.Equal(t, M(big.NewInt(0), nil), M(tok.Allowance(alice, bob)))
}
