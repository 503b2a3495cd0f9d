// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/accretefi/accrete/accrete"
)

// Event is a typed event emitted by a ledger operation.
type Event struct {
	Seq     uint64
	Time    uint64
	Address accrete.Address // emitting contract
	Name    string
	Topics  []accrete.Bytes32
	Data    []byte // rlp-encoded arguments
}

// NewEvent creates an event emitted by the given contract. Extra arguments
// are rlp-encoded into the data payload.
func NewEvent(address accrete.Address, name string, topics []accrete.Bytes32, args ...any) *Event {
	var data []byte
	if len(args) > 0 {
		data, _ = rlp.EncodeToBytes(args)
	}
	return &Event{
		Address: address,
		Name:    name,
		Topics:  topics,
		Data:    data,
	}
}

// EventID returns the keccak-256 identifier of the event name, usable as a
// filter topic.
func EventID(name string) accrete.Bytes32 {
	return accrete.Keccak256([]byte(name))
}
