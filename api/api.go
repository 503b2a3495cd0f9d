// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api assembles the REST surface of an accrete node.
package api

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/accretefi/accrete/api/admin"
	"github.com/accretefi/accrete/api/events"
	"github.com/accretefi/accrete/api/staking"
	"github.com/accretefi/accrete/api/subscriptions"
	"github.com/accretefi/accrete/api/tokens"
	"github.com/accretefi/accrete/log"
	"github.com/accretefi/accrete/logdb"
	"github.com/accretefi/accrete/node"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EventsLimit     uint64
	PprofOn         bool
	EnableReqLogger bool
	EnableMetrics   bool
}

// New builds the api router. The returned closer shuts down hijacked
// subscription connections.
func New(
	node *node.Node,
	logDB *logdb.LogDB,
	logLevel *slog.LevelVar,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	staking.New(node).
		Mount(router, "/staking")
	tokens.New(node).
		Mount(router, "/tokens")
	events.New(logDB, opts.EventsLimit).
		Mount(router, "/events")
	admin.New(node, logLevel).
		Mount(router, "/admin")
	subs := subscriptions.New(node, origins)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = requestLoggerHandler(handler)
	}

	return handler.ServeHTTP, subs.Close
}

func requestLoggerHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("incoming request",
			"uri", r.URL.String(),
			"method", r.Method,
			"remote", r.RemoteAddr,
		)
		handler.ServeHTTP(w, r)
	})
}
