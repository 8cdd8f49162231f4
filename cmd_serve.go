package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/gogo/agentstatus/internal/config"
	"github.com/xiaot623/gogo/agentstatus/internal/logging"
	"github.com/xiaot623/gogo/agentstatus/internal/repository"
	"github.com/xiaot623/gogo/agentstatus/internal/service"
	"github.com/xiaot623/gogo/agentstatus/internal/tools"
	statushttp "github.com/xiaot623/gogo/agentstatus/internal/transport/http"
	"github.com/xiaot623/gogo/agentstatus/internal/transport/rpc"
	"github.com/xiaot623/gogo/agentstatus/policy"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and RPC status servers",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("init policy engine: %w", err)
	}

	svc := service.New(store, policyEngine, tools.DefaultRegistry, cfg, logger)

	httpServer := statushttp.NewServer(svc)
	rpcServer, err := rpc.NewServer(svc, logger)
	if err != nil {
		return err
	}

	slog.Info("agentstatus started",
		"http_port", cfg.HTTPPort,
		"rpc_port", cfg.RPCPort,
		"store", cfg.StoreBackend,
		"session_scoped", cfg.SessionScoped,
		"status_ttl", cfg.StatusTTL,
		"policy_file", cfg.PolicyFile,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := httpServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := rpcServer.Start(fmt.Sprintf(":%d", cfg.RPCPort)); err != nil {
			return fmt.Errorf("rpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		svc.RunExpirySweeper(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to shutdown http server gracefully", "error", err)
		}
		if err := rpcServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to shutdown rpc server gracefully", "error", err)
		}
		return nil
	})

	return g.Wait()
}

// openStore builds the configured RunStore and its close function.
func openStore(cfg *config.Config) (repository.RunStore, func() error, error) {
	var (
		store     repository.RunStore
		closeFunc = func() error { return nil }
	)
	switch cfg.StoreBackend {
	case config.BackendMemory:
		store = repository.NewMemoryStore()
	case config.BackendSQLite, "":
		db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
		}
		store, closeFunc = db, db.Close
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if cfg.SessionScoped {
		store = repository.NewSessionStore(store, "status:")
	}
	return store, closeFunc, nil
}
