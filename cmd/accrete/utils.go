// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	isatty "github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	pb "gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/accretefi/accrete/accrete"
	"github.com/accretefi/accrete/co"
	"github.com/accretefi/accrete/genesis"
	"github.com/accretefi/accrete/journal"
	"github.com/accretefi/accrete/log"
	"github.com/accretefi/accrete/logdb"
	"github.com/accretefi/accrete/lvldb"
	"github.com/accretefi/accrete/metrics"
	"github.com/accretefi/accrete/state"
)

func fatal(args ...any) {
	fmt.Fprint(os.Stderr, "Fatal: ")
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func defaultDataDir() string {
	// try to get HOME directory
	if u, err := user.Current(); err == nil && u.HomeDir != "" {
		return filepath.Join(u.HomeDir, ".org.accretefi.accrete")
	}
	return ""
}

func initLogger(ctx *cli.Context) *slog.LevelVar {
	logLevel := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	level := new(slog.LevelVar)
	level.Set(logLevel)

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, level)
	} else {
		useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return level
}

func selectGenesis(ctx *cli.Context) *genesis.Genesis {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return genesis.NewDevnet()
	}
	custom, err := genesis.LoadCustomGenesis(path)
	if err != nil {
		fatal(fmt.Sprintf("load genesis file at '%v': %v", path, err))
	}
	gene, err := genesis.NewCustomNet(custom)
	if err != nil {
		fatal(fmt.Sprintf("build custom genesis: %v", err))
	}
	return gene
}

func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify one", dataDirFlag.Name))
	}

	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", gene.ID().Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		fatal(fmt.Sprintf("create instance dir at '%v': %v", instanceDir, err))
	}
	return instanceDir
}

func openMainDB(ctx *cli.Context, instanceDir string) *lvldb.LevelDB {
	if !ctx.Bool(persistFlag.Name) {
		db, err := lvldb.NewMem()
		if err != nil {
			fatal(fmt.Sprintf("open in-memory main database: %v", err))
		}
		return db
	}

	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 128,
	})
	if err != nil {
		fatal(fmt.Sprintf("open main database at '%v': %v", dir, err))
	}
	return db
}

func openLogDB(ctx *cli.Context, instanceDir string) *logdb.LogDB {
	if !ctx.Bool(persistFlag.Name) {
		db, err := logdb.NewMem()
		if err != nil {
			fatal(fmt.Sprintf("open in-memory log database: %v", err))
		}
		return db
	}

	path := filepath.Join(instanceDir, "logs.db")
	db, err := logdb.New(path)
	if err != nil {
		fatal(fmt.Sprintf("open log database at '%v': %v", path, err))
	}
	return db
}

// genesisIDKey stores the genesis id of the instance, guarding against
// opening a database built from a different genesis.
var genesisIDKey = []byte("genesis-id")

func initGenesisState(db *lvldb.LevelDB, gene *genesis.Genesis) error {
	stored, err := db.Get(genesisIDKey)
	if err == nil {
		if got := accrete.BytesToBytes32(stored); got != gene.ID() {
			return errors.Errorf("genesis mismatch: database built from %v, want %v", got, gene.ID())
		}
		return nil
	}
	if !db.IsNotFound(err) {
		return errors.Wrap(err, "read genesis id")
	}

	st := state.New(db)
	if err := gene.Build(st); err != nil {
		return errors.Wrap(err, "build genesis state")
	}
	if err := st.Stage().Commit(); err != nil {
		return errors.Wrap(err, "commit genesis state")
	}
	id := gene.ID()
	return db.Put(genesisIDKey, id.Bytes())
}

func syncLogDB(j *journal.Journal, logDB *logdb.LogDB) error {
	newest, found, err := j.NewestSeq()
	if err != nil {
		return errors.Wrap(err, "read journal head")
	}
	if !found {
		return nil
	}
	indexed, haveIndexed, err := logDB.NewestSeq()
	if err != nil {
		return errors.Wrap(err, "read event index head")
	}
	if haveIndexed && indexed >= newest {
		return nil
	}

	if !haveIndexed {
		fmt.Println(">> Rebuilding event index <<")
	} else {
		fmt.Println(">> Syncing event index <<")
	}
	bar := pb.New64(int64(newest + 1)).SetMaxWidth(90)
	if haveIndexed {
		bar.Set64(int64(indexed + 1))
	}
	bar.Start()
	defer func() { bar.NotPrint = true }()

	if _, err := logDB.Sync(j, func(seq uint64) {
		bar.Set64(int64(seq + 1))
	}); err != nil {
		return errors.Wrap(err, "sync event index")
	}
	bar.Finish()
	return nil
}

func startAPIServer(handler http.HandlerFunc, addr string, goes *co.Goes) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}

	srv := &http.Server{Handler: handler}
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() { srv.Close() }, nil
}

func startMetricsServer(addr string, goes *co.Goes) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics addr [%v]", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler())
	srv := &http.Server{Handler: mux}
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/metrics", func() { srv.Close() }, nil
}

func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > time.Second || resp.ClockOffset < -time.Second {
		logger.Warn("clock offset detected, ledger timestamps may drift", "offset", resp.ClockOffset)
	}
}

func reportMemory() string {
	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Debug("failed to get total mem", "err", err)
		return "unknown"
	}
	return fmt.Sprintf("%d MB", mem.Total/1024/1024)
}
