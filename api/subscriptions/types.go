// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/runtime"
)

// EventMessage is one streamed ledger event.
type EventMessage struct {
	Seq     uint64            `json:"seq"`
	Time    uint64            `json:"time"`
	Address accrete.Address   `json:"address"`
	Name    string            `json:"name"`
	Topics  []accrete.Bytes32 `json:"topics"`
	Data    hexutil.Bytes     `json:"data"`
}

func convertEvent(ev *runtime.Event) *EventMessage {
	return &EventMessage{
		Seq:     ev.Seq,
		Time:    ev.Time,
		Address: ev.Address,
		Name:    ev.Name,
		Topics:  ev.Topics,
		Data:    ev.Data,
	}
}
