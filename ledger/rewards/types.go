// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/accretefi/accrete/state"
)

// position is a staking position: the staked balance, the accumulator
// snapshot at last settlement, and the settled-but-unclaimed reward.
type position struct {
	Balance            *big.Int
	RewardPerTokenPaid *big.Int
	AccruedReward      *big.Int
}

var (
	_ state.StorageEncoder = (*position)(nil)
	_ state.StorageDecoder = (*position)(nil)
)

func (p *position) Encode() ([]byte, error) {
	if p.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(p)
}

func (p *position) Decode(data []byte) error {
	if len(data) == 0 {
		*p = position{&big.Int{}, &big.Int{}, &big.Int{}}
		return nil
	}
	return rlp.DecodeBytes(data, p)
}

func (p *position) IsEmpty() bool {
	return p.Balance.Sign() == 0 &&
		p.RewardPerTokenPaid.Sign() == 0 &&
		p.AccruedReward.Sign() == 0
}
