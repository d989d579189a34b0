package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"autolend/config"
	"autolend/core/epoch"
	"autolend/core/identity"
	"autolend/core/state"
	"autolend/native/lending"
	"autolend/observability/logging"
	"autolend/rpc"
	"autolend/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("AUTOLEND_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("lendingd", env, logging.FileConfig{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	clock, err := epoch.NewSystem(
		time.Unix(cfg.EpochGenesisUnix, 0),
		time.Duration(cfg.EpochLengthSeconds)*time.Second,
	)
	if err != nil {
		logger.Error("Failed to configure epoch clock", slog.Any("error", err))
		os.Exit(1)
	}

	params := lending.DefaultParams()
	if err := params.Validate(); err != nil {
		logger.Error("Invalid protocol parameters", slog.Any("error", err))
		os.Exit(1)
	}

	engine := lending.NewEngine(params, clock, identity.NewBadgeMinter())
	engine.SetState(state.NewManager(db))
	if err := engine.InitPool(cfg.AssetDenom); err != nil {
		logger.Error("Failed to initialize pool", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("lending pool ready",
		slog.String("asset", cfg.AssetDenom),
		slog.Uint64("epoch", clock.CurrentEpoch()))

	server := rpc.NewServer(engine, logger)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
