// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/ledger/params"
	"github.com/accretefi/accrete/ledger/reverts"
	"github.com/accretefi/accrete/ledger/token"
	"github.com/accretefi/accrete/log"
	"github.com/accretefi/accrete/state"
)

var logger = log.WithContext("pkg", "rewards")

// Typed failure reasons.
var (
	ErrZeroAmount                = reverts.New("rewards: zero amount")
	ErrNoRewardBalance           = reverts.New("rewards: no reward balance in engine")
	ErrSupplyCeilingExceeded     = reverts.New("rewards: supply ceiling exceeded")
	ErrInsufficientBalance       = reverts.New("rewards: insufficient staked balance")
	ErrNothingToClaim            = reverts.New("rewards: nothing to claim")
	ErrZeroDuration              = reverts.New("rewards: duration not configured")
	ErrRewardAmountTooSmall      = reverts.New("rewards: reward amount too small")
	ErrRewardRateTooBig          = reverts.New("rewards: reward rate exceeds balance")
	ErrPreviousPeriodNotFinished = reverts.New("rewards: previous period not finished")
)

// global state slots.
var (
	totalSupplyKey          = accrete.Blake2b([]byte("total-supply"))
	rewardRateKey           = accrete.Blake2b([]byte("reward-rate"))
	rewardPerTokenStoredKey = accrete.Blake2b([]byte("reward-per-token-stored"))
	lastUpdateTimeKey       = accrete.Blake2b([]byte("last-update-time"))
	periodFinishKey         = accrete.Blake2b([]byte("period-finish"))
	rewardsDurationKey      = accrete.Blake2b([]byte("rewards-duration"))
)

func positionKey(account accrete.Address) accrete.Bytes32 {
	return accrete.Blake2b(account.Bytes(), []byte("position"))
}

// Engine is the reward distribution engine: a lazily-settled per-account
// reward ledger. Every mutating operation settles the global accumulator and
// at most the one touched account, so cost never depends on the number of
// participants.
type Engine struct {
	addr        accrete.Address
	state       *state.State
	rewardToken *token.Token
	params      *params.Params
}

// New creates an engine instance. The engine custodies reward tokens at its
// own address.
func New(addr accrete.Address, st *state.State, rewardToken *token.Token, pp *params.Params) *Engine {
	return &Engine{addr, st, rewardToken, pp}
}

// Address returns the engine's own address.
func (e *Engine) Address() accrete.Address { return e.addr }

func (e *Engine) getAmount(key accrete.Bytes32) (*big.Int, error) {
	var v big.Int
	if err := e.state.GetStructuredStorage(e.addr, key, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (e *Engine) setAmount(key accrete.Bytes32, v *big.Int) error {
	return e.state.SetStructuredStorage(e.addr, key, v)
}

func (e *Engine) getTime(key accrete.Bytes32) (uint64, error) {
	var v uint64
	if err := e.state.GetStructuredStorage(e.addr, key, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (e *Engine) setTime(key accrete.Bytes32, v uint64) error {
	return e.state.SetStructuredStorage(e.addr, key, v)
}

func (e *Engine) getPosition(account accrete.Address) (*position, error) {
	var pos position
	if err := e.state.GetStructuredStorage(e.addr, positionKey(account), &pos); err != nil {
		return nil, err
	}
	return &pos, nil
}

func (e *Engine) setPosition(account accrete.Address, pos *position) error {
	return e.state.SetStructuredStorage(e.addr, positionKey(account), pos)
}

// TotalSupply returns the sum of all staked balances.
func (e *Engine) TotalSupply() (*big.Int, error) {
	return e.getAmount(totalSupplyKey)
}

// BalanceOf returns the staked balance of the account.
func (e *Engine) BalanceOf(account accrete.Address) (*big.Int, error) {
	pos, err := e.getPosition(account)
	if err != nil {
		return nil, err
	}
	return pos.Balance, nil
}

// RewardRate returns the reward units distributed per second.
func (e *Engine) RewardRate() (*big.Int, error) {
	return e.getAmount(rewardRateKey)
}

// PeriodFinish returns the end of the current reward epoch.
func (e *Engine) PeriodFinish() (uint64, error) {
	return e.getTime(periodFinishKey)
}

// RewardsDuration returns the configured epoch length.
func (e *Engine) RewardsDuration() (uint64, error) {
	return e.getTime(rewardsDurationKey)
}

// LastTimeRewardApplicable returns min(now, periodFinish).
func (e *Engine) LastTimeRewardApplicable(now uint64) (uint64, error) {
	finish, err := e.getTime(periodFinishKey)
	if err != nil {
		return 0, err
	}
	if now < finish {
		return now, nil
	}
	return finish, nil
}

// RewardPerToken returns the reward accumulator extrapolated to now. With
// zero total supply the stored value is returned unchanged, so the
// accumulator never moves while nothing is staked.
func (e *Engine) RewardPerToken(now uint64) (*big.Int, error) {
	stored, err := e.getAmount(rewardPerTokenStoredKey)
	if err != nil {
		return nil, err
	}
	totalSupply, err := e.getAmount(totalSupplyKey)
	if err != nil {
		return nil, err
	}
	if totalSupply.Sign() == 0 {
		return stored, nil
	}

	applicable, err := e.LastTimeRewardApplicable(now)
	if err != nil {
		return nil, err
	}
	lastUpdate, err := e.getTime(lastUpdateTimeKey)
	if err != nil {
		return nil, err
	}
	if applicable <= lastUpdate {
		return stored, nil
	}
	rate, err := e.getAmount(rewardRateKey)
	if err != nil {
		return nil, err
	}

	x := new(big.Int).SetUint64(applicable - lastUpdate)
	x.Mul(x, rate)
	x.Mul(x, accrete.RewardScale)
	x.Div(x, totalSupply)
	return x.Add(x, stored), nil
}

// Earned returns the account's total accrued reward at the given time.
func (e *Engine) Earned(account accrete.Address, now uint64) (*big.Int, error) {
	pos, err := e.getPosition(account)
	if err != nil {
		return nil, err
	}
	rpt, err := e.RewardPerToken(now)
	if err != nil {
		return nil, err
	}

	x := new(big.Int).Sub(rpt, pos.RewardPerTokenPaid)
	x.Mul(x, pos.Balance)
	x.Div(x, accrete.RewardScale)
	return x.Add(x, pos.AccruedReward), nil
}

// settle recomputes the global accumulator and, when an account is given,
// snapshots that account's accrued reward. It must run before any balance or
// rate change takes effect.
func (e *Engine) settle(account *accrete.Address, now uint64) error {
	rpt, err := e.RewardPerToken(now)
	if err != nil {
		return err
	}
	if err := e.setAmount(rewardPerTokenStoredKey, rpt); err != nil {
		return err
	}
	applicable, err := e.LastTimeRewardApplicable(now)
	if err != nil {
		return err
	}
	if err := e.setTime(lastUpdateTimeKey, applicable); err != nil {
		return err
	}

	if account == nil {
		return nil
	}
	earned, err := e.Earned(*account, now)
	if err != nil {
		return err
	}
	pos, err := e.getPosition(*account)
	if err != nil {
		return err
	}
	pos.AccruedReward = earned
	pos.RewardPerTokenPaid = rpt
	return e.setPosition(*account, pos)
}

func (e *Engine) supplyCeiling() (*big.Int, error) {
	ceiling, err := e.params.Get(accrete.KeySupplyCeiling)
	if err != nil {
		return nil, err
	}
	if ceiling.Sign() == 0 {
		return accrete.MaxStakingSupply, nil
	}
	return ceiling, nil
}

// Deposit stakes amount for the account. The engine must already hold
// reward tokens, guarding against distributing to an empty pot.
func (e *Engine) Deposit(account accrete.Address, amount *big.Int, now uint64) error {
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	rewardBalance, err := e.rewardToken.BalanceOf(e.addr)
	if err != nil {
		return err
	}
	if rewardBalance.Sign() <= 0 {
		return ErrNoRewardBalance
	}
	totalSupply, err := e.getAmount(totalSupplyKey)
	if err != nil {
		return err
	}
	newSupply := new(big.Int).Add(totalSupply, amount)
	ceiling, err := e.supplyCeiling()
	if err != nil {
		return err
	}
	if newSupply.Cmp(ceiling) > 0 {
		return ErrSupplyCeilingExceeded
	}

	if err := e.settle(&account, now); err != nil {
		return err
	}

	pos, err := e.getPosition(account)
	if err != nil {
		return err
	}
	pos.Balance = new(big.Int).Add(pos.Balance, amount)
	if err := e.setPosition(account, pos); err != nil {
		return err
	}
	return e.setAmount(totalSupplyKey, newSupply)
}

// Withdraw unstakes amount for the account.
func (e *Engine) Withdraw(account accrete.Address, amount *big.Int, now uint64) error {
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	pos, err := e.getPosition(account)
	if err != nil {
		return err
	}
	if pos.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	if err := e.settle(&account, now); err != nil {
		return err
	}

	// reload: settlement rewrote the position
	pos, err = e.getPosition(account)
	if err != nil {
		return err
	}
	pos.Balance = new(big.Int).Sub(pos.Balance, amount)
	if err := e.setPosition(account, pos); err != nil {
		return err
	}
	totalSupply, err := e.getAmount(totalSupplyKey)
	if err != nil {
		return err
	}
	return e.setAmount(totalSupplyKey, new(big.Int).Sub(totalSupply, amount))
}

// Claim settles and pays out the account's accrued reward to recipient.
func (e *Engine) Claim(account, recipient accrete.Address, now uint64) error {
	if err := e.settle(&account, now); err != nil {
		return err
	}
	pos, err := e.getPosition(account)
	if err != nil {
		return err
	}
	if pos.AccruedReward.Sign() == 0 {
		return ErrNothingToClaim
	}

	reward := pos.AccruedReward
	pos.AccruedReward = &big.Int{}
	if err := e.setPosition(account, pos); err != nil {
		return err
	}
	return e.rewardToken.Transfer(e.addr, recipient, reward)
}

// Exit withdraws the account's full balance and claims any accrued reward.
// Unlike Claim, a zero accrued reward is skipped, not failed.
func (e *Engine) Exit(account, recipient accrete.Address, now uint64) error {
	pos, err := e.getPosition(account)
	if err != nil {
		return err
	}
	if pos.Balance.Sign() > 0 {
		if err := e.Withdraw(account, pos.Balance, now); err != nil {
			return err
		}
	} else if err := e.settle(&account, now); err != nil {
		return err
	}

	pos, err = e.getPosition(account)
	if err != nil {
		return err
	}
	if pos.AccruedReward.Sign() == 0 {
		return nil
	}
	return e.Claim(account, recipient, now)
}

// AddRewards starts or tops up the reward epoch with amount. A top-up before
// the current epoch ends folds the undistributed remainder into the new
// rate, so no reward is lost. The whole amount distributes over the
// configured duration starting now.
func (e *Engine) AddRewards(amount *big.Int, now uint64) error {
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	duration, err := e.getTime(rewardsDurationKey)
	if err != nil {
		return err
	}
	if duration == 0 {
		return ErrZeroDuration
	}

	if err := e.settle(nil, now); err != nil {
		return err
	}

	finish, err := e.getTime(periodFinishKey)
	if err != nil {
		return err
	}
	total := new(big.Int).Set(amount)
	if now < finish {
		rate, err := e.getAmount(rewardRateKey)
		if err != nil {
			return err
		}
		leftover := new(big.Int).SetUint64(finish - now)
		leftover.Mul(leftover, rate)
		total.Add(total, leftover)
	}

	rate := new(big.Int).Div(total, new(big.Int).SetUint64(duration))
	if rate.Sign() == 0 {
		return ErrRewardAmountTooSmall
	}

	// insolvency guard: the rate must be coverable by the engine's actual
	// reward balance over the full duration
	rewardBalance, err := e.rewardToken.BalanceOf(e.addr)
	if err != nil {
		return err
	}
	if rate.Cmp(new(big.Int).Div(rewardBalance, new(big.Int).SetUint64(duration))) > 0 {
		return ErrRewardRateTooBig
	}

	if err := e.setAmount(rewardRateKey, rate); err != nil {
		return err
	}
	if err := e.setTime(lastUpdateTimeKey, now); err != nil {
		return err
	}
	if err := e.setTime(periodFinishKey, now+duration); err != nil {
		return err
	}
	logger.Debug("rewards added", "amount", amount, "rate", rate, "periodFinish", now+duration)
	return nil
}

// SetRewardsDuration sets the epoch length. Only permitted once the current
// epoch has fully elapsed.
func (e *Engine) SetRewardsDuration(duration, now uint64) error {
	if duration == 0 {
		return ErrZeroDuration
	}
	finish, err := e.getTime(periodFinishKey)
	if err != nil {
		return err
	}
	if now <= finish {
		return ErrPreviousPeriodNotFinished
	}
	return e.setTime(rewardsDurationKey, duration)
}
