// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"time"

	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the state database",
	}
	persistFlag = cli.BoolFlag{
		Name:  "persist",
		Usage: "save state to disk under data-dir, otherwise keep it in memory",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 64,
		Usage: "megabytes of memory allocated to the state database",
	}
	syncWritesFlag = cli.BoolFlag{
		Name:  "sync-writes",
		Usage: "flush every committed block to disk",
	}
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path to the genesis validator file (JSON), if not set a devnet genesis is used",
	}
	chainParamsFlag = cli.StringFlag{
		Name:  "chain-params",
		Usage: "path to the chain parameters file (YAML), if not set the devnet parameters are used",
	}
	devnetValidatorsFlag = cli.IntFlag{
		Name:  "devnet-validators",
		Value: 4,
		Usage: "number of dev accounts acting as genesis validators when no genesis file is given",
	}
	blockIntervalFlag = cli.DurationFlag{
		Name:  "block-interval",
		Value: time.Second,
		Usage: "time between two blocks",
	}
	dkgBlocksFlag = cli.Uint64Flag{
		Name:  "dkg-blocks",
		Value: 3,
		Usage: "number of blocks a DKG session runs before it is completed",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiBacklogFlag = cli.IntFlag{
		Name:  "api-backlog",
		Value: 1000,
		Usage: "number of recent blocks whose events subscriptions can replay",
	}
	apiLogsLimitFlag = cli.Uint64Flag{
		Name:  "api-logs-limit",
		Value: 1000,
		Usage: "limit the number of logs returned by /logs API",
	}
	skipLogsFlag = cli.BoolFlag{
		Name:  "skip-logs",
		Usage: "skip writing event logs (/logs API and subscription replay beyond the backlog will be disabled)",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	apiSlowQueriesThresholdFlag = cli.DurationFlag{
		Name:  "api-slow-queries-threshold",
		Usage: "log API requests slower than this duration (0 disables)",
	}
	apiLog5xxErrorsFlag = cli.BoolFlag{
		Name:  "api-log-5xx-errors",
		Usage: "log API requests answered with a 5xx status",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	enableAdminFlag = cli.BoolFlag{
		Name:  "enable-admin",
		Usage: "enables admin server",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Value: "localhost:2113",
		Usage: "admin service listening address",
	}
)

var (
	apiURLFlag = cli.StringFlag{
		Name:  "api-url",
		Value: "http://localhost:8669",
		Usage: "URL of a running node's API",
	}
	followFlag = cli.BoolFlag{
		Name:  "follow",
		Usage: "stream block events after printing the status",
	}
	fromFlag = cli.Uint64Flag{
		Name:  "from",
		Usage: "stream from this block number instead of the next one",
	}
	eventNameFlag = cli.StringFlag{
		Name:  "event",
		Usage: "only stream events with this name",
	}
)
