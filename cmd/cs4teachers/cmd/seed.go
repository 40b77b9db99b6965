package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cs4t "github.com/uccser/cs4teachers"
)

func newSeedCommand() *cobra.Command {
	opts := cs4t.SeedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo content",
		Long: `Create numbered demo series, events, sessions, locations, sponsors,
resources and third party events. Event dates are spread either side of
today so the home page shows both upcoming and past events.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := cs4t.NewLogger(cfg.Logging, cmd.ErrOrStderr())

			store, err := cs4t.NewStore(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			if err := cs4t.SeedDemoData(cmd.Context(), store, opts); err != nil {
				return err
			}
			logger.Info().Str("db", cfg.DatabasePath).Int("series", opts.Series).Msg("demo data created")
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Series, "series", 2, "number of series")
	cmd.Flags().IntVar(&opts.EventsPerSeries, "events", 3, "events per series")
	cmd.Flags().IntVar(&opts.Locations, "locations", 2, "number of locations")
	cmd.Flags().IntVar(&opts.Sponsors, "sponsors", 2, "number of sponsors")
	cmd.Flags().IntVar(&opts.Resources, "resources", 3, "number of resources")
	cmd.Flags().IntVar(&opts.ThirdPartyEvents, "third-party-events", 2, "number of third party events")
	return cmd
}
