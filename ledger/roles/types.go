// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package roles

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/state"
)

// entry is a member record of a role's doubly-linked membership list.
type entry struct {
	Listed bool
	Prev   *accrete.Address `rlp:"nil"`
	Next   *accrete.Address `rlp:"nil"`
}

var (
	_ state.StorageEncoder = (*entry)(nil)
	_ state.StorageDecoder = (*entry)(nil)
)

func (e *entry) Encode() ([]byte, error) {
	if e.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(e)
}

func (e *entry) Decode(data []byte) error {
	if len(data) == 0 {
		*e = entry{}
		return nil
	}
	return rlp.DecodeBytes(data, e)
}

func (e *entry) IsEmpty() bool {
	return !e.Listed && e.Prev == nil && e.Next == nil
}
