// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/accretefi/accrete/api"
	"github.com/accretefi/accrete/co"
	"github.com/accretefi/accrete/genesis"
	"github.com/accretefi/accrete/journal"
	"github.com/accretefi/accrete/kv"
	"github.com/accretefi/accrete/log"
	"github.com/accretefi/accrete/meter"
	"github.com/accretefi/accrete/metrics"
	"github.com/accretefi/accrete/node"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

const banner = `
  ___                     __
 / _ | ___________ ___   / /_ ___
/ __ |/ __/ __/ __/ -_) / __// -_)
/_/ |_|\__/\__/_/  \__/  \__/ \__/
`

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Accrete",
		Usage:     "Solo node of the Accrete staking ledger",
		Copyright: "2025 The Accrete developers",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiLogsLimitFlag,
			verbosityFlag,
			jsonLogsFlag,
			persistFlag,
			pprofFlag,
			enableAPILogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAction(ctx *cli.Context) error {
	logLevel := initLogger(ctx)
	gene := selectGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)

	var goes co.Goes
	defer goes.Wait()

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closer, err := startMetricsServer(ctx.String(metricsAddrFlag.Name), &goes)
		if err != nil {
			fatal(fmt.Sprintf("start metrics server: %v", err))
		}
		defer closer()
		logger.Info("metrics server started", "url", url)
	}

	mainDB := openMainDB(ctx, instanceDir)
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	// the meter adds io counters around every state and journal access
	var db kv.GetPutter = mainDB
	if ctx.Bool(enableMetricsFlag.Name) {
		db = meter.New(mainDB)
	}

	logDB := openLogDB(ctx, instanceDir)
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	if err := initGenesisState(mainDB, gene); err != nil {
		fatal(fmt.Sprintf("init genesis state: %v", err))
	}
	if err := syncLogDB(journal.New(db), logDB); err != nil {
		fatal(fmt.Sprintf("sync event index: %v", err))
	}

	n, err := node.New(db, logDB, gene.Timestamp())
	if err != nil {
		fatal(fmt.Sprintf("start node: %v", err))
	}

	apiHandler, apiCloser := api.New(n, logDB, logLevel, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EventsLimit:     ctx.Uint64(apiLogsLimitFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})
	defer apiCloser()

	apiURL, srvCloser, err := startAPIServer(apiHandler, ctx.String(apiAddrFlag.Name), &goes)
	if err != nil {
		fatal(fmt.Sprintf("start API server: %v", err))
	}
	defer srvCloser()

	printStartupMessage(gene, instanceDir, apiURL)
	goes.Go(checkClockOffset)

	return waitForExit()
}

func printStartupMessage(gene *genesis.Genesis, instanceDir, apiURL string) {
	fmt.Print(banner)
	fmt.Printf(`Version     [ %v ]
Network     [ %v ]
Genesis     [ %v ]
Instance    [ %v ]
API portal  [ %v ]
System      [ %v/%v, %v cpus, %v mem ]
`,
		fullVersion(),
		gene.Name(),
		gene.ID(),
		instanceDir,
		apiURL,
		runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), reportMemory(),
	)
}

func waitForExit() error {
	exitSignalCh := make(chan os.Signal, 1)
	signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	sig := <-exitSignalCh
	logger.Info("exit signal received", "signal", sig)
	return nil
}
