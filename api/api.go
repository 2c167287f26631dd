// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/scalarorg/gravity-genesis-contract-sub001/api/consensus"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/events"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/middleware"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/subscriptions"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/utils"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/validators"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/logdb"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EnableReqLogger      *atomic.Bool
	EnableMetrics        bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	// LogDB backs the event filter; the route is not mounted without it.
	LogDB     *logdb.LogDB
	LogsLimit uint64
}

// New returns the observer api handler and a func to close hijacked websocket connections.
func New(backend utils.Backend, feed *subscriptions.Feed, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	validators.New(backend).
		Mount(router, "/validators")
	consensus.New(backend).
		Mount(router, "")
	if opts.LogDB != nil {
		events.New(opts.LogDB, opts.LogsLimit).
			Mount(router, "/logs/event")
	}
	subs := subscriptions.New(feed, origins)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	reqLogger := opts.EnableReqLogger
	if reqLogger == nil {
		reqLogger = &atomic.Bool{}
	}
	router.Use(middleware.RequestLoggerMiddleware(logger, reqLogger, opts.SlowQueriesThreshold, opts.Log5xxErrors))

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return handler.ServeHTTP, subs.Close
}
