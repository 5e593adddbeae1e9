// Package main implements the pantry CLI: the HTTP server plus one-shot
// commands for importing receipts and maintaining the inventory ledger.
package main

import (
	"Pantry-Ledger/cmd/config"
	migration "Pantry-Ledger/cmd/database/migrate"
	"Pantry-Ledger/internal/utils"
	"Pantry-Ledger/internal/utils/logger"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pantry",
	Short: "Household pantry ledger fed by digital receipts",
	Long: `pantry imports digital shopping receipts, classifies each purchased item
and keeps a per-lot inventory with expiry dates.

Configuration is read from config.yaml (or $PANTRY_CONFIG) and environment
variables with the same keys.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

type app struct {
	db       *gorm.DB
	log      *zap.Logger
	services *config.Services
}

// bootstrap loads config, connects and migrates the database and wires the
// services every command uses.
func bootstrap(ctx context.Context) (*app, error) {
	utils.LoadConfig()

	log, err := logger.New(utils.GetConfig("LOG_LEVEL"), utils.GetConfig("LOG_FORMAT"))
	if err != nil {
		return nil, err
	}

	db, err := config.ConnectDB()
	if err != nil {
		return nil, err
	}
	if err := migration.Migrate(db); err != nil {
		return nil, err
	}

	services, err := config.NewServices(ctx, db, log)
	if err != nil {
		return nil, fmt.Errorf("wire services: %w", err)
	}
	return &app{db: db, log: log, services: services}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
