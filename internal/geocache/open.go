package geocache

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/agency-map/internal/config"
)

// Open builds and migrates the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.CacheConfig) (Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemoryBackend(), nil

	case "sqlite":
		if cfg.Path == "" {
			return nil, eris.New("geocache: sqlite driver requires cache.path")
		}
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrapf(err, "geocache: create %s", dir)
			}
		}
		b, err := NewSQLiteBackend(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := b.Migrate(ctx); err != nil {
			b.Close() //nolint:errcheck
			return nil, err
		}
		return b, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("geocache: postgres driver requires cache.database_url")
		}
		b, err := NewPostgresBackend(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := b.Migrate(ctx); err != nil {
			b.Close() //nolint:errcheck
			return nil, err
		}
		return b, nil

	default:
		return nil, eris.Errorf("geocache: unknown driver %q", cfg.Driver)
	}
}
