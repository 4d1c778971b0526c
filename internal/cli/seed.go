package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/ecocharge-reservation/internal/seed"
)

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the badge catalog and demo stations",
	Long: `Insert the badge catalog and, on an empty database, a few ownerless demo
stations. Existing rows are left alone, so seeding twice is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrate(cmd.Context(), cfg, db); err != nil {
			return err
		}
		res, err := seed.Run(cmd.Context(), db)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "badges added: %d, stations added: %d\n", res.Badges, res.Stations)
		return nil
	},
}
