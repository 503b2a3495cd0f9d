// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import "errors"

// ErrRevert is a typed failure reason of a ledger operation. Operations abort
// with no partial effect; the caller must correct inputs or wait for a state
// condition to change before resubmitting.
type ErrRevert struct {
	message string
}

// New creates a revert error with the given reason.
func New(message string) *ErrRevert {
	return &ErrRevert{message}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// IsRevertErr reports whether err is a typed ledger revert, as opposed to an
// infrastructure failure such as a state access error.
func IsRevertErr(err error) bool {
	if err == nil {
		return false
	}
	var re *ErrRevert
	if errors.As(err, &re) {
		return re != nil
	}
	return false
}
