// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/genesis"
	"github.com/accretefi/accrete/ledger"
	"github.com/accretefi/accrete/logdb"
	"github.com/accretefi/accrete/lvldb"
	"github.com/accretefi/accrete/node"
	"github.com/accretefi/accrete/runtime"
	"github.com/accretefi/accrete/state"
)

func newTestServer(t *testing.T) (*node.Node, *httptest.Server) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)

	gene := genesis.NewDevnet()
	st := state.New(db)
	require.NoError(t, gene.Build(st))
	require.NoError(t, st.Stage().Commit())

	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(logDB.Close)

	n, err := node.New(db, logDB, gene.Timestamp())
	require.NoError(t, err)

	router := mux.NewRouter()
	New(n).Mount(router, "/staking")
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return n, srv
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())
	return body, res.StatusCode
}

func httpPost(t *testing.T, url string, obj any) ([]byte, int) {
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())
	return body, res.StatusCode
}

func approveStaking(t *testing.T, n *node.Node, holder accrete.Address, amount *big.Int) {
	_, _, err := n.Execute(holder, func(led *ledger.Ledger, _ *runtime.Env) error {
		return led.Underlying.Approve(holder, led.Staking.Address(), amount)
	})
	require.NoError(t, err)
}

func TestGetStatus(t *testing.T) {
	_, srv := newTestServer(t)

	body, code := httpGet(t, srv.URL+"/staking/status")
	require.Equal(t, http.StatusOK, code)

	var status Status
	require.NoError(t, json.Unmarshal(body, &status))
	assert.False(t, status.Paused)
	assert.Equal(t, uint64(7*24*3600), status.RewardsDuration)
	assert.Equal(t, big.NewInt(0), (*big.Int)(status.TotalStaked))
}

func TestStakeAndGetPosition(t *testing.T) {
	n, srv := newTestServer(t)
	alice := genesis.DevAccounts()[1]
	approveStaking(t, n, alice, big.NewInt(100))

	body, code := httpPost(t, srv.URL+"/staking/stake", &StakeRequest{
		Caller: alice,
		Amount: (*math.HexOrDecimal256)(big.NewInt(100)),
	})
	require.Equal(t, http.StatusOK, code)

	var receipt Receipt
	require.NoError(t, json.Unmarshal(body, &receipt))
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, "Staked", receipt.Events[0].Name)

	body, code = httpGet(t, srv.URL+"/staking/accounts/"+alice.String())
	require.Equal(t, http.StatusOK, code)

	var pos Position
	require.NoError(t, json.Unmarshal(body, &pos))
	require.NotNil(t, pos.Vault)
	assert.False(t, pos.Vault.IsZero())
	assert.Equal(t, big.NewInt(100), (*big.Int)(pos.StakedBalance))
}

func TestStakeWithoutApprovalConflicts(t *testing.T) {
	_, srv := newTestServer(t)
	alice := genesis.DevAccounts()[1]

	_, code := httpPost(t, srv.URL+"/staking/stake", &StakeRequest{
		Caller: alice,
		Amount: (*math.HexOrDecimal256)(big.NewInt(100)),
	})
	assert.Equal(t, http.StatusConflict, code)
}

func TestUnstake(t *testing.T) {
	n, srv := newTestServer(t)
	alice := genesis.DevAccounts()[1]
	bob := genesis.DevAccounts()[2]
	approveStaking(t, n, alice, big.NewInt(100))

	_, code := httpPost(t, srv.URL+"/staking/stake", &StakeRequest{
		Caller: alice,
		Amount: (*math.HexOrDecimal256)(big.NewInt(100)),
	})
	require.Equal(t, http.StatusOK, code)

	body, code := httpPost(t, srv.URL+"/staking/unstake", &UnstakeRequest{
		Caller:    alice,
		Recipient: bob,
	})
	require.Equal(t, http.StatusOK, code)

	var receipt Receipt
	require.NoError(t, json.Unmarshal(body, &receipt))
	require.NotEmpty(t, receipt.Events)
	assert.Equal(t, "Unstaked", receipt.Events[0].Name)

	body, code = httpGet(t, srv.URL+"/staking/accounts/"+alice.String())
	require.Equal(t, http.StatusOK, code)
	var pos Position
	require.NoError(t, json.Unmarshal(body, &pos))
	assert.Equal(t, big.NewInt(0), (*big.Int)(pos.StakedBalance))
}

func TestGetPositionBadAddress(t *testing.T) {
	_, srv := newTestServer(t)
	_, code := httpGet(t, srv.URL+"/staking/accounts/not-an-address")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSetAndGetAllowance(t *testing.T) {
	n, srv := newTestServer(t)
	admin := genesis.DevAccounts()[0]
	alice := genesis.DevAccounts()[1]
	target := accrete.BytesToAddress([]byte("Target"))
	approveStaking(t, n, alice, big.NewInt(10))

	_, code := httpPost(t, srv.URL+"/staking/stake", &StakeRequest{
		Caller: alice,
		Amount: (*math.HexOrDecimal256)(big.NewInt(10)),
	})
	require.Equal(t, http.StatusOK, code)

	_, code = httpPost(t, srv.URL+"/staking/allowance", &AllowanceRequest{
		Caller:  alice,
		Invoker: admin,
		Target:  target,
		Count:   3,
	})
	require.Equal(t, http.StatusOK, code)

	body, code := httpGet(t, srv.URL+"/staking/accounts/"+alice.String()+
		"/allowance?invoker="+admin.String()+"&target="+target.String())
	require.Equal(t, http.StatusOK, code)

	var allowance Allowance
	require.NoError(t, json.Unmarshal(body, &allowance))
	assert.Equal(t, uint64(3), allowance.Count)
	assert.False(t, allowance.Vault.IsZero())
}

func TestInvoke(t *testing.T) {
	n, srv := newTestServer(t)
	admin := genesis.DevAccounts()[0]
	alice := genesis.DevAccounts()[1]
	target := accrete.BytesToAddress([]byte("Callable"))

	n.RegisterHandler(target, func(_ *runtime.Env, _ *big.Int, payload []byte) ([]byte, error) {
		return append([]byte("echo:"), payload...), nil
	})

	approveStaking(t, n, alice, big.NewInt(10))
	_, code := httpPost(t, srv.URL+"/staking/stake", &StakeRequest{
		Caller: alice,
		Amount: (*math.HexOrDecimal256)(big.NewInt(10)),
	})
	require.Equal(t, http.StatusOK, code)

	var pos Position
	body, _ := httpGet(t, srv.URL+"/staking/accounts/"+alice.String())
	require.NoError(t, json.Unmarshal(body, &pos))
	require.NotNil(t, pos.Vault)

	_, code = httpPost(t, srv.URL+"/staking/allowance", &AllowanceRequest{
		Caller:  alice,
		Invoker: admin,
		Target:  target,
		Count:   1,
	})
	require.Equal(t, http.StatusOK, code)

	body, code = httpPost(t, srv.URL+"/staking/invoke", &InvokeRequest{
		Caller:  admin,
		Vault:   *pos.Vault,
		Target:  target,
		Payload: []byte("hi"),
	})
	require.Equal(t, http.StatusOK, code)

	var result InvokeResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, []byte("echo:hi"), []byte(result.Output))

	// the single allowance unit is spent
	_, code = httpPost(t, srv.URL+"/staking/invoke", &InvokeRequest{
		Caller:  admin,
		Vault:   *pos.Vault,
		Target:  target,
		Payload: []byte("hi"),
	})
	assert.Equal(t, http.StatusConflict, code)
}
