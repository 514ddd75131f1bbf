package cmd

import (
	"github.com/spf13/cobra"
)

var forceSeed bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample categories, menu items, inventory and members",
	Long: `Load sample data. Tables that already hold rows are left alone unless
--force is given, in which case all data is truncated first.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&forceSeed, "force", false, "truncate all tables before seeding")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	_, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SeedData(cmd.Context(), forceSeed); err != nil {
		return err
	}
	log.Info("Database seeded successfully")
	return nil
}
