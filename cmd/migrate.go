package cmd

import (
	"github.com/spf13/cobra"
)

var dropTables bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create the tables, foreign keys, check constraints, indexes and
updated_at triggers. With --drop every table is dropped first.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&dropTables, "drop", false, "drop all tables before migrating")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if dropTables {
		log.Warn("Dropping all tables")
		if err := db.DropAll(ctx); err != nil {
			return err
		}
	}

	if err := db.AutoMigrate(ctx); err != nil {
		return err
	}
	log.Info("Migration completed successfully")
	return nil
}
