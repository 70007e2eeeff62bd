package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/agency-map/internal/pipeline"
	"github.com/sells-group/agency-map/internal/roster"
)

var (
	geocodeInput       string
	geocodeOutputDir   string
	geocodeConcurrency int
	geocodeLimit       int
	geocodeSeed        string
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocode a roster and write the enriched and failed CSVs",
	Long: `Reads a roster (.csv or .xlsx), resolves each agency's city-level address
through the configured providers and writes two files to the output directory:

  geocoded_results.csv  every row plus Latitude, Longitude, Size Category, Award Status
  failed_geocodes.csv   the original rows that could not be resolved

Resolutions are cached; re-running only re-queries addresses that failed.

Examples:
  agency-map geocode --input calea_clients.csv
  agency-map geocode --input roster.xlsx --output-dir out --concurrency 8
  agency-map geocode --input roster.csv --seed geocoded_results.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if geocodeInput != "" {
			cfg.Input.Path = geocodeInput
		}
		if geocodeOutputDir != "" {
			cfg.Output.Dir = geocodeOutputDir
		}
		if geocodeConcurrency > 0 {
			cfg.Geocode.Concurrency = geocodeConcurrency
		}
		if err := cfg.Validate("geocode"); err != nil {
			return err
		}

		schema := roster.SchemaFromConfig(cfg.Input.Columns)
		r, err := roster.Load(ctx, cfg.Input.Path, schema)
		if err != nil {
			return err
		}
		records := r.Records
		if geocodeLimit > 0 && geocodeLimit < len(records) {
			records = records[:geocodeLimit]
		}

		resolver, err := buildResolver(cfg.Geocode)
		if err != nil {
			return err
		}

		cache, err := openCache(ctx, cfg.Cache)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := cache.Close(); cerr != nil {
				zap.L().Warn("close geocode cache", zap.Error(cerr))
			}
		}()

		if geocodeSeed != "" {
			prior, err := roster.LoadEnriched(ctx, geocodeSeed, schema)
			if err != nil {
				return eris.Wrap(err, "load seed file")
			}
			n, err := cache.Seed(ctx, prior)
			if err != nil {
				return err
			}
			zap.L().Info("seeded geocode cache", zap.String("file", geocodeSeed), zap.Int("entries", n))
		}

		result, err := pipeline.Run(ctx, records, resolver, cache, pipeline.Options{
			Concurrency: cfg.Geocode.Concurrency,
		})
		if err != nil {
			return err
		}

		paths, err := pipeline.WriteArtifacts(ctx, cfg.Output.Dir, r.Header, result, pipeline.ArtifactNames{
			Enriched: cfg.Output.EnrichedFile,
			Failed:   cfg.Output.FailedFile,
		})
		if err != nil {
			return err
		}

		return printYAML(cmd, map[string]any{
			"summary":   result.Summary,
			"artifacts": paths,
		})
	},
}

func init() {
	geocodeCmd.Flags().StringVar(&geocodeInput, "input", "", "roster file (default from config input.path)")
	geocodeCmd.Flags().StringVar(&geocodeOutputDir, "output-dir", "", "artifact directory (default from config output.dir)")
	geocodeCmd.Flags().IntVar(&geocodeConcurrency, "concurrency", 0, "concurrent lookups (default from config)")
	geocodeCmd.Flags().IntVar(&geocodeLimit, "limit", 0, "process at most N records (0 = all)")
	geocodeCmd.Flags().StringVar(&geocodeSeed, "seed", "", "warm the cache from a previous geocoded_results.csv")
	rootCmd.AddCommand(geocodeCmd)
}

// printYAML writes v to the command's stdout as YAML.
func printYAML(cmd *cobra.Command, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "marshal yaml")
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(out))
	return err
}
