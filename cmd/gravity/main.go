// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/scalarorg/gravity-genesis-contract-sub001/admin"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api"
	"github.com/scalarorg/gravity-genesis-contract-sub001/api/subscriptions"
	"github.com/scalarorg/gravity-genesis-contract-sub001/builtin"
	"github.com/scalarorg/gravity-genesis-contract-sub001/cmd/gravity/node"
	"github.com/scalarorg/gravity-genesis-contract-sub001/genesis"
	"github.com/scalarorg/gravity-genesis-contract-sub001/health"
	"github.com/scalarorg/gravity-genesis-contract-sub001/log"
	"github.com/scalarorg/gravity-genesis-contract-sub001/logdb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/lvldb"
	"github.com/scalarorg/gravity-genesis-contract-sub001/metrics"
	"github.com/scalarorg/gravity-genesis-contract-sub001/state"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("Gravity/%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "Gravity"
	app.Usage = "Devnet driver of the validator lifecycle and epoch reconfiguration contracts"
	app.Flags = []cli.Flag{
		dataDirFlag,
		persistFlag,
		cacheFlag,
		syncWritesFlag,
		genesisFlag,
		chainParamsFlag,
		devnetValidatorsFlag,
		blockIntervalFlag,
		dkgBlocksFlag,
		apiAddrFlag,
		apiCorsFlag,
		apiBacklogFlag,
		apiLogsLimitFlag,
		skipLogsFlag,
		enableAPILogsFlag,
		apiSlowQueriesThresholdFlag,
		apiLog5xxErrorsFlag,
		verbosityFlag,
		jsonLogsFlag,
		enableMetricsFlag,
		metricsAddrFlag,
		enableAdminFlag,
		adminAddrFlag,
	}
	app.Action = action
	app.Commands = []cli.Command{
		{
			Name:  "check-genesis",
			Usage: "apply the genesis to an in-memory state and print the resulting validator set",
			Flags: []cli.Flag{
				genesisFlag,
				chainParamsFlag,
				devnetValidatorsFlag,
				verbosityFlag,
				jsonLogsFlag,
			},
			Action: checkGenesisAction,
		},
		{
			Name:  "status",
			Usage: "print the epoch, validator set and DKG state of a running node",
			Flags: []cli.Flag{
				apiURLFlag,
				followFlag,
				fromFlag,
				eventNameFlag,
				verbosityFlag,
				jsonLogsFlag,
			},
			Action: statusAction,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Fatal:", err)
		os.Exit(1)
	}
}

func action(ctx *cli.Context) error {
	logLevel := initLogger(ctx, os.Stderr)
	defer func() { logger.Info("exited") }()

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	db, dataDir, err := openDB(ctx, gene)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing state database..."); db.Close() }()

	var logDB *logdb.LogDB
	if !ctx.Bool(skipLogsFlag.Name) {
		if logDB, err = openLogDB(ctx, gene); err != nil {
			return err
		}
		defer func() { logger.Info("closing log database..."); logDB.Close() }()
	}

	blockInterval := ctx.Duration(blockIntervalFlag.Name)
	if blockInterval <= 0 {
		return fmt.Errorf("invalid block interval %v", blockInterval)
	}
	feed := subscriptions.NewFeed(ctx.Int(apiBacklogFlag.Name))
	h := health.New(3 * blockInterval)
	n, err := node.New(db, gene, feed, h, node.Options{
		BlockInterval: blockInterval,
		DKGBlocks:     ctx.Uint64(dkgBlocksFlag.Name),
		LogDB:         logDB,
	})
	if err != nil {
		return err
	}

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))
	handler, closeSubs := api.New(n, feed, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EnableReqLogger:      apiLogs,
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		SlowQueriesThreshold: ctx.Duration(apiSlowQueriesThresholdFlag.Name),
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		LogDB:                logDB,
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
	})

	apiURL, stopAPI, err := startAPIServer(ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); stopAPI() }()

	var metricsURL string
	if ctx.Bool(enableMetricsFlag.Name) {
		url, stop, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); stop() }()
		metricsURL = url
	}

	var adminURL string
	if ctx.Bool(enableAdminFlag.Name) {
		url, stop, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, apiLogs, h)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping admin server..."); stop() }()
		adminURL = url
	}

	var validators int
	if err := n.View(func(sys *builtin.System) error {
		set, err := sys.Validators.ValidatorSet()
		if err != nil {
			return err
		}
		validators = len(set.Active)
		return nil
	}); err != nil {
		return err
	}
	printStartupMessage(gene, validators, dataDir, apiURL, metricsURL, adminURL)

	exitCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(exitCtx)
	group.Go(func() error {
		return n.Run(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("closing subscriptions...")
		closeSubs()
		return nil
	})
	return group.Wait()
}

func checkGenesisAction(ctx *cli.Context) error {
	initLogger(ctx, os.Stderr)

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	return checkGenesis(gene, os.Stdout)
}

// checkGenesis applies gene to a scratch state and writes the epoch and active set read back
// from it. It fails when the active set differs from the genesis arguments.
func checkGenesis(gene *genesis.Genesis, w io.Writer) error {
	db, err := lvldb.NewMem()
	if err != nil {
		return err
	}
	defer db.Close()

	sys := builtin.New(state.New(db), builtin.Options{AddressCodec: genesis.BCSAddressCodec{MaxLen: 1024}})
	start := time.Now()
	if err := gene.Apply(sys); err != nil {
		return err
	}
	logger.Debug("genesis applied", "elapsed", time.Since(start))

	report, verr := gene.Inspect(sys)
	if report == nil {
		return verr
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if verr != nil {
		return fmt.Errorf("genesis state is inconsistent: %w", verr)
	}
	logger.Info("genesis state consistent", "validators", len(report.Validators), "epoch", report.Epoch.Epoch)
	return nil
}
