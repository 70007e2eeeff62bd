package main

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/agency-map/internal/export"
)

var (
	exportData   string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an enriched results file as XLSX or a point shapefile",
	Long: `Converts geocoded_results.csv into another format.

Examples:
  agency-map export --format xlsx --out agencies.xlsx
  agency-map export --format shp --out gis/agencies.shp --data out/geocoded_results.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		format := strings.ToLower(exportFormat)
		if format != "xlsx" && format != "shp" {
			return eris.Errorf("unknown export format %q (want xlsx or shp)", exportFormat)
		}
		out := exportOut
		if out == "" {
			out = "agencies." + format
		}
		if format == "shp" && filepath.Ext(out) != ".shp" {
			return eris.Errorf("shapefile output must end in .shp, got %q", out)
		}

		records, err := loadDataset(ctx, exportData)
		if err != nil {
			return err
		}

		if format == "shp" {
			n, err := export.WriteShapefile(out, records)
			if err != nil {
				return err
			}
			return printYAML(cmd, map[string]any{"format": format, "path": out, "points": n})
		}
		if err := export.WriteXLSX(out, records); err != nil {
			return err
		}
		return printYAML(cmd, map[string]any{"format": format, "path": out, "rows": len(records)})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportData, "data", "", "enriched results file (default from config)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "output format: xlsx or shp")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default agencies.<format>)")
	rootCmd.AddCommand(exportCmd)
}
