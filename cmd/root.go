package cmd

import (
	"fmt"
	"os"

	"github.com/LittleGragon/coffee-shop-sub000/config"
	"github.com/LittleGragon/coffee-shop-sub000/database"
	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coffeeshop",
	Short: "Coffee shop backend",
	Long: `Coffee shop backend: menu, inventory, orders, members with balance top-up,
table reservations and wishlists over a JSON API, backed by PostgreSQL.

Configuration comes from the environment (a .env file is loaded if present)
and an optional config.yaml.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, builds the logger and opens the database
func bootstrap() (*config.Config, *logrus.Logger, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}
