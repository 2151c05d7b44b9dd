package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/damon-houk/transaction-record-service/internal/application/service"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/config"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/db"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/handler"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/logger"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/metrics"
	"github.com/damon-houk/transaction-record-service/internal/infrastructure/server"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		port       string
	)

	cmd := &cobra.Command{
		Use:          "transaction-server",
		Short:        "HTTP JSON API for financial transaction records",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on (overrides PORT)")

	return cmd
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	defer log.Sync()
	logger.SetDefaultLogger(log)

	log.Info("Starting transaction record service", map[string]interface{}{
		"port":    cfg.Server.Port,
		"backend": cfg.Storage.Backend,
		"breaker": cfg.Breaker.Enabled,
	})

	// One store handle shared by every request
	store, err := db.Open(ctx, cfg.Storage, cfg.Breaker, log)
	if err != nil {
		log.Error("Failed to open store", map[string]interface{}{"error": err.Error()})
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error("Error closing store", map[string]interface{}{"error": err.Error()})
		}
	}()

	txService := service.NewTransactionService(store.Repository)
	txHandler := handler.NewTransactionHandler(txService, log)
	h := server.NewHandler(txHandler, metrics.NewHTTPMetrics("transactions"), log)

	if err := server.Run(ctx, cfg.Addr(), h, cfg.Server.ShutdownTimeout, log); err != nil {
		log.Error("Server stopped with error", map[string]interface{}{"error": err.Error()})
		return err
	}

	log.Info("Server stopped", nil)
	return nil
}
