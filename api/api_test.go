// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accretefi/accrete/api/staking"
	"github.com/accretefi/accrete/genesis"
	"github.com/accretefi/accrete/logdb"
	"github.com/accretefi/accrete/lvldb"
	"github.com/accretefi/accrete/node"
	"github.com/accretefi/accrete/state"
)

func newTestServer(t *testing.T) *httptest.Server {
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

	handler, closer := New(n, logDB, new(slog.LevelVar), Options{
		AllowedOrigins: "*",
		EventsLimit:    1000,
	})
	t.Cleanup(closer)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestRouting(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/staking/status")
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())
	require.Equal(t, http.StatusOK, res.StatusCode)

	var status staking.Status
	require.NoError(t, json.Unmarshal(body, &status))
	assert.False(t, status.Paused)

	res, err = http.Get(srv.URL + "/no-such-path")
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
