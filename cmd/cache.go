package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/agency-map/internal/roster"
)

var cacheSeedFile string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and warm the geocode cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print geocode cache counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cache, err := openCache(ctx, cfg.Cache)
		if err != nil {
			return err
		}
		defer cache.Close() //nolint:errcheck

		stats, err := cache.Stats(ctx)
		if err != nil {
			return err
		}
		return printYAML(cmd, stats)
	},
}

var cacheSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load resolved coordinates from an enriched results file into the cache",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		path := cacheSeedFile
		if path == "" {
			path = dataFilePath()
		}
		records, err := roster.LoadEnriched(ctx, path, roster.SchemaFromConfig(cfg.Input.Columns))
		if err != nil {
			return err
		}

		cache, err := openCache(ctx, cfg.Cache)
		if err != nil {
			return err
		}
		defer cache.Close() //nolint:errcheck

		n, err := cache.Seed(ctx, records)
		if err != nil {
			return err
		}
		zap.L().Info("cache seeded", zap.String("file", path), zap.Int("entries", n))
		return printYAML(cmd, map[string]any{"file": path, "entries": n})
	},
}

func init() {
	cacheSeedCmd.Flags().StringVar(&cacheSeedFile, "file", "", "enriched results file (default from config)")
	cacheCmd.AddCommand(cacheStatsCmd, cacheSeedCmd)
	rootCmd.AddCommand(cacheCmd)
}
