package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/agency-map/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "agency-map",
	Short: "Geocode agency rosters and serve the accreditation dashboard",
	Long:  "Resolves agency roster addresses to coordinates through rate-limited geocoding providers with a persistent cache, derives size and award categories, and serves the filtered map, summary and table views as a JSON API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
