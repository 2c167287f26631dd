// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin serves the node's operator endpoints.
package admin

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/scalarorg/gravity-genesis-contract-sub001/health"
)

func HTTPHandler(logLevel *slog.LevelVar, apiLogs *atomic.Bool, h *health.Health) http.Handler {
	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()

	sub.Path("/loglevel").Methods(http.MethodGet).HandlerFunc(getLogLevelHandler(logLevel))
	sub.Path("/loglevel").Methods(http.MethodPost).HandlerFunc(postLogLevelHandler(logLevel))
	sub.Path("/apilogs").Methods(http.MethodGet).HandlerFunc(getAPILogsHandler(apiLogs))
	sub.Path("/apilogs").Methods(http.MethodPost).HandlerFunc(postAPILogsHandler(apiLogs))
	sub.Path("/health").Methods(http.MethodGet).HandlerFunc(healthHandler(h))

	return handlers.CompressHandler(router)
}

func StartServer(addr string, logLevel *slog.LevelVar, apiLogs *atomic.Bool, h *health.Health) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	srv := &http.Server{
		Handler:           HTTPHandler(logLevel, apiLogs, h),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
	var wg sync.WaitGroup
	wg.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		wg.Wait()
	}, nil
}
