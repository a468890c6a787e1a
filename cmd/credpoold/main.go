package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credpool/config"
	"credpool/core"
	"credpool/core/state"
	"credpool/native/credit"
	"credpool/native/policy"
	"credpool/observability/logging"
	"credpool/rpc"
	"credpool/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup("credpoold", cfg.Environment, logging.Options{
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	authority, err := cfg.AuthorityAddress()
	if err != nil {
		logger.Error("invalid authority address", slog.Any("error", err))
		os.Exit(1)
	}
	oracleAddr, err := cfg.OracleAddress()
	if err != nil {
		logger.Error("invalid oracle address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err), slog.String("dataDir", cfg.DataDir))
		os.Exit(1)
	}
	defer db.Close()

	node := core.NewNode(state.NewManager(db), authority)
	node.SetOracle(credit.NewMemoryOracle())
	if err := node.SeedPolicy(&policy.Policy{
		OracleAddress:      oracleAddr,
		MinScoreToBorrow:   cfg.Genesis.MinScoreToBorrow,
		DepositLockSeconds: cfg.Genesis.DepositLockSeconds,
	}); err != nil {
		logger.Error("failed to seed policy", slog.Any("error", err))
		os.Exit(1)
	}

	adminSecret, err := cfg.AdminSecret()
	if err != nil {
		// Admin methods fail closed when no secret is available.
		logger.Warn("admin methods disabled", slog.Any("error", err))
		adminSecret = nil
	}

	server := rpc.NewServer(node, rpc.Options{
		AdminSecret:   adminSecret,
		RatePerSecond: cfg.RateLimitPerSecond,
		RateBurst:     cfg.RateLimitBurst,
		Logger:        logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting JSON-RPC server", slog.String("addr", cfg.RPCAddress))
		errCh <- httpServer.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("RPC server terminated", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", slog.Any("error", err))
		}
	}
}
