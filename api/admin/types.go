// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/accretefi/accrete/accrete"
)

// PauseRequest flips the orchestrator pause switch.
type PauseRequest struct {
	Caller accrete.Address `json:"caller"`
	Paused bool            `json:"paused"`
}

// LockupRequest sets the timestamp before which unstaking is rejected.
type LockupRequest struct {
	Caller   accrete.Address `json:"caller"`
	Deadline uint64          `json:"deadline"`
}

// TemplateRequest sets the vault template address used for new vaults.
type TemplateRequest struct {
	Caller   accrete.Address `json:"caller"`
	Template accrete.Address `json:"template"`
}

// RewardsRequest notifies the engine of newly funded rewards.
type RewardsRequest struct {
	Caller accrete.Address       `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// RewardsDurationRequest sets the epoch length of future reward periods.
type RewardsDurationRequest struct {
	Caller   accrete.Address `json:"caller"`
	Duration uint64          `json:"duration"`
}

// LogLevelRequest sets the process log verbosity.
type LogLevelRequest struct {
	Level string `json:"level"`
}

// LogLevelResponse reports the current log verbosity.
type LogLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}
