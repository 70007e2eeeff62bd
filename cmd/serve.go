package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/agency-map/internal/dashboard"
	"github.com/sells-group/agency-map/internal/model"
	"github.com/sells-group/agency-map/internal/roster"
)

var (
	servePort int
	serveData string
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API over an enriched results file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		records, err := loadDataset(ctx, serveData)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           dashboard.NewRouter(records, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.Int("records", len(records)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveData, "data", "", "enriched results file (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// loadDataset reads the enriched results file named by path, falling back
// to server.data_file and then to the batch output.
func loadDataset(ctx context.Context, path string) ([]model.EnrichedRecord, error) {
	if path == "" {
		path = dataFilePath()
	}
	records, err := roster.LoadEnriched(ctx, path, roster.SchemaFromConfig(cfg.Input.Columns))
	if err != nil {
		return nil, eris.Wrapf(err, "load dataset %s", path)
	}

	found := 0
	for _, r := range records {
		if r.HasCoordinates() {
			found++
		}
	}
	zap.L().Info("dataset loaded",
		zap.String("path", path),
		zap.Int("rows", len(records)),
		zap.Int("with_coordinates", found),
	)
	return records, nil
}

func dataFilePath() string {
	if cfg.Server.DataFile != "" {
		return cfg.Server.DataFile
	}
	return filepath.Join(cfg.Output.Dir, cfg.Output.EnrichedFile)
}
