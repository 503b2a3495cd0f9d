// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/accretefi/accrete/state"
)

var bigE18 = big.NewInt(1e18)

// position is a supplier's pool position snapshot.
type position struct {
	Balance *big.Int

	// snapshot
	Timestamp uint64
}

var (
	_ state.StorageEncoder = (*position)(nil)
	_ state.StorageDecoder = (*position)(nil)
)

func (p *position) Encode() ([]byte, error) {
	if p.Balance.Sign() == 0 && p.Timestamp == 0 {
		return nil, nil
	}
	return rlp.EncodeToBytes(p)
}

func (p *position) Decode(data []byte) error {
	if len(data) == 0 {
		*p = position{&big.Int{}, 0}
		return nil
	}
	return rlp.DecodeBytes(data, p)
}

// CalcBalance extrapolates the position balance at the given time, growing
// linearly at yieldRate (scaled by 1e18) per second since the snapshot.
func (p *position) CalcBalance(now uint64, yieldRate *big.Int) *big.Int {
	if p.Timestamp == 0 || p.Timestamp >= now || yieldRate.Sign() == 0 {
		return p.Balance
	}

	t := new(big.Int).SetUint64(now - p.Timestamp)
	x := new(big.Int).Mul(t, p.Balance)
	x.Mul(x, yieldRate)
	x.Div(x, bigE18)
	return new(big.Int).Add(p.Balance, x)
}
