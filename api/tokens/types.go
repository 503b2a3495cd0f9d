// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/accretefi/accrete/accrete"
)

// Account is one holder's view of a token.
type Account struct {
	Balance   *math.HexOrDecimal256 `json:"balance"`
	Allowance *math.HexOrDecimal256 `json:"allowance,omitempty"`
}

// Supply is a token's aggregate state.
type Supply struct {
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
}

// TransferRequest moves tokens from the caller to the recipient.
type TransferRequest struct {
	Caller    accrete.Address       `json:"caller"`
	Recipient accrete.Address       `json:"recipient"`
	Amount    *math.HexOrDecimal256 `json:"amount"`
}

// ApproveRequest sets the caller's allowance for the spender.
type ApproveRequest struct {
	Caller  accrete.Address       `json:"caller"`
	Spender accrete.Address       `json:"spender"`
	Amount  *math.HexOrDecimal256 `json:"amount"`
}
