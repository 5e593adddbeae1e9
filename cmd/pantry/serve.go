package main

import (
	"Pantry-Ledger/cmd/config"
	"Pantry-Ledger/internal/utils"
	"Pantry-Ledger/pkg/inventory"
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the periodic expiry sweep",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	fiberApp, err := config.NewApp(a.services)
	if err != nil {
		return err
	}

	interval := utils.GetConfigDuration("EXPIRY_CHECK_INTERVAL", time.Hour)
	go sweepExpired(ctx, a.services.Inventory, interval, a.log.Named("sweep"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- fiberApp.Listen(":" + utils.GetConfig("APP_PORT"))
	}()
	a.log.Info("server started", zap.String("port", utils.GetConfig("APP_PORT")))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return fiberApp.ShutdownWithContext(shutdownCtx)
}

// sweepExpired runs ExpireOverdue once at start and then every interval
// until ctx is cancelled.
func sweepExpired(ctx context.Context, inventoryService inventory.InventoryService, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := inventoryService.ExpireOverdue(ctx)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			log.Error("expire overdue lots", zap.Error(err))
		case n > 0:
			log.Info("expired overdue lots", zap.Int("lots", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
