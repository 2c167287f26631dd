// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/scalarorg/gravity-genesis-contract-sub001/genesis"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/logdb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/lvldb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/metrics"
)

func initLogger(ctx *cli.Context, w io.Writer) *slog.LevelVar {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return log.Setup(w, ctx.Int(verbosityFlag.Name), ctx.Bool(jsonLogsFlag.Name), useColor)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gravity")
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	chainParams := genesis.DevChainParams()
	if path := ctx.String(chainParamsFlag.Name); path != "" {
		var err error
		if chainParams, err = genesis.LoadChainParams(path); err != nil {
			return nil, err
		}
	}

	path := ctx.String(genesisFlag.Name)
	if path == "" {
		n := ctx.Int(devnetValidatorsFlag.Name)
		if n <= 0 || n > len(genesis.DevAccounts()) {
			return nil, errors.Errorf("devnet validators must be within [1, %d]", len(genesis.DevAccounts()))
		}
		return genesis.New("devnet", genesis.DevConfig(n, "10000"), chainParams)
	}
	cfg, err := genesis.Load(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	return genesis.New(name[:len(name)-len(filepath.Ext(name))], cfg, chainParams)
}

func openDB(ctx *cli.Context, gene *genesis.Genesis) (*lvldb.LevelDB, string, error) {
	if !ctx.Bool(persistFlag.Name) {
		db, err := lvldb.NewMem()
		return db, "memory", err
	}
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return nil, "", errors.Errorf("unable to infer default data dir, use -%s to specify one", dataDirFlag.Name)
	}
	dir := filepath.Join(dataDir, gene.Name(), "state.db")
	if err := os.MkdirAll(filepath.Dir(dir), 0o700); err != nil {
		return nil, "", errors.Wrapf(err, "create data dir at '%v'", dir)
	}
	db, err := lvldb.New(dir, lvldb.Options{
		CacheMB: ctx.Int(cacheFlag.Name),
		Sync:    ctx.Bool(syncWritesFlag.Name),
	})
	if err != nil {
		return nil, "", errors.Wrapf(err, "open state database at '%v'", dir)
	}
	return db, dir, nil
}

// openLogDB opens the event index next to the state database, or in memory when state is not
// persisted.
func openLogDB(ctx *cli.Context, gene *genesis.Genesis) (*logdb.LogDB, error) {
	if !ctx.Bool(persistFlag.Name) {
		return logdb.NewMem()
	}
	path := filepath.Join(ctx.String(dataDirFlag.Name), gene.Name(), "logs.db")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir at '%v'", path)
	}
	db, err := logdb.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open log database at '%v'", path)
	}
	return db, nil
}

// startServer serves handler on addr until the returned stop func is called.
func startServer(addr string, handler http.Handler) (net.Addr, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second}

	var wg sync.WaitGroup
	wg.Go(func() {
		srv.Serve(listener)
	})
	return listener.Addr(), func() {
		srv.Close()
		wg.Wait()
	}, nil
}

func startAPIServer(addr string, handler http.Handler) (string, func(), error) {
	listenAddr, stop, err := startServer(addr, handler)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	return "http://" + listenAddr.String() + "/", stop, nil
}

func startMetricsServer(addr string) (string, func(), error) {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())

	listenAddr, stop, err := startServer(addr, handlers.CompressHandler(router))
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics API addr [%v]", addr)
	}
	return "http://" + listenAddr.String() + "/metrics", stop, nil
}

func printStartupMessage(gene *genesis.Genesis, validators int, dataDir, apiURL, metricsURL, adminURL string) {
	fmt.Printf(`Starting %v
    Network      [ %v ]
    Validators   [ %v ]
    Data dir     [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
    Admin        [ %v ]
`,
		fullVersion(),
		gene.Name(),
		validators,
		dataDir,
		apiURL,
		orDisabled(metricsURL),
		orDisabled(adminURL),
	)
}

func orDisabled(s string) string {
	if s == "" {
		return "disabled"
	}
	return s
}
