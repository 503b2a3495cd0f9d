// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/runtime"
)

// Status is the global reward and orchestrator state.
type Status struct {
	Paused          bool                  `json:"paused"`
	LockupDeadline  uint64                `json:"lockupDeadline"`
	TotalStaked     *math.HexOrDecimal256 `json:"totalStaked"`
	RewardRate      *math.HexOrDecimal256 `json:"rewardRate"`
	RewardPerToken  *math.HexOrDecimal256 `json:"rewardPerToken"`
	PeriodFinish    uint64                `json:"periodFinish"`
	RewardsDuration uint64                `json:"rewardsDuration"`
	Now             uint64                `json:"now"`
	Seq             uint64                `json:"seq"`
}

// Position is one principal's view of the ledger.
type Position struct {
	Vault         *accrete.Address      `json:"vault"`
	StakedBalance *math.HexOrDecimal256 `json:"stakedBalance"`
	Earned        *math.HexOrDecimal256 `json:"earned"`
}

// Allowance is the remaining invocation count of a (vault, invoker, target)
// triple.
type Allowance struct {
	Vault   accrete.Address `json:"vault"`
	Invoker accrete.Address `json:"invoker"`
	Target  accrete.Address `json:"target"`
	Count   uint64          `json:"count"`
}

// StakeRequest deposits underlying tokens on behalf of the caller.
type StakeRequest struct {
	Caller accrete.Address       `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
	Proof  hexutil.Bytes         `json:"proof,omitempty"`
}

// UnstakeRequest withdraws the caller's full position to the recipient.
type UnstakeRequest struct {
	Caller    accrete.Address `json:"caller"`
	Recipient accrete.Address `json:"recipient"`
}

// ClaimRequest pays out the caller's accrued rewards to the recipient.
type ClaimRequest struct {
	Caller    accrete.Address `json:"caller"`
	Recipient accrete.Address `json:"recipient"`
}

// AllowanceRequest sets the invocation allowance of the caller's vault for
// an (invoker, target) pair. The count is absolute, not additive.
type AllowanceRequest struct {
	Caller  accrete.Address `json:"caller"`
	Invoker accrete.Address `json:"invoker"`
	Target  accrete.Address `json:"target"`
	Count   uint64          `json:"count"`
}

// InvokeRequest makes a vault call an arbitrary target, consuming one unit
// of allowance.
type InvokeRequest struct {
	Caller  accrete.Address       `json:"caller"`
	Vault   accrete.Address       `json:"vault"`
	Target  accrete.Address       `json:"target"`
	Value   *math.HexOrDecimal256 `json:"value"`
	Payload hexutil.Bytes         `json:"payload,omitempty"`
}

// Event is the JSON form of a ledger event.
type Event struct {
	Seq     uint64            `json:"seq"`
	Time    uint64            `json:"time"`
	Address accrete.Address   `json:"address"`
	Name    string            `json:"name"`
	Topics  []accrete.Bytes32 `json:"topics"`
	Data    hexutil.Bytes     `json:"data"`
}

// Receipt reports the outcome of an executed operation.
type Receipt struct {
	Seq    uint64   `json:"seq"`
	Events []*Event `json:"events"`
}

// InvokeResult extends the receipt with the target's raw output.
type InvokeResult struct {
	Receipt
	Output hexutil.Bytes `json:"output"`
}

func convertEvent(ev *runtime.Event) *Event {
	return &Event{
		Seq:     ev.Seq,
		Time:    ev.Time,
		Address: ev.Address,
		Name:    ev.Name,
		Topics:  ev.Topics,
		Data:    ev.Data,
	}
}

// NewReceipt converts executed events into their JSON form.
func NewReceipt(events []*runtime.Event, seq uint64) Receipt {
	converted := make([]*Event, len(events))
	for i, ev := range events {
		converted[i] = convertEvent(ev)
	}
	return Receipt{Seq: seq, Events: converted}
}

func bigOrZero(d *math.HexOrDecimal256) *big.Int {
	if d == nil {
		return new(big.Int)
	}
	return (*big.Int)(d)
}

func toDecimal(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}
