package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/agency-map/internal/model"
	"github.com/sells-group/agency-map/internal/roster"
)

// LockFile guards an output directory against concurrent runs.
const LockFile = ".agency-map.lock"

const lockRetryDelay = 250 * time.Millisecond

// ArtifactNames are the file names written under the output directory.
type ArtifactNames struct {
	Enriched string
	Failed   string
}

// DefaultArtifactNames matches the historical output file names.
func DefaultArtifactNames() ArtifactNames {
	return ArtifactNames{Enriched: "geocoded_results.csv", Failed: "failed_geocodes.csv"}
}

// Artifacts reports the paths written by WriteArtifacts.
type Artifacts struct {
	Enriched string `json:"enriched" yaml:"enriched"`
	Failed   string `json:"failed" yaml:"failed"`
}

// WriteArtifacts writes the enriched results and the failures file; the
// latter holds only a header when every record resolved. The directory is
// held under an exclusive file lock so concurrent runs cannot interleave
// their output.
func WriteArtifacts(ctx context.Context, dir string, header []string, result *Result, names ArtifactNames) (Artifacts, error) {
	if result == nil {
		return Artifacts{}, eris.New("pipeline: nil result")
	}
	def := DefaultArtifactNames()
	if names.Enriched == "" {
		names.Enriched = def.Enriched
	}
	if names.Failed == "" {
		names.Failed = def.Failed
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifacts{}, eris.Wrapf(err, "pipeline: create output dir %s", dir)
	}

	lock := flock.New(filepath.Join(dir, LockFile))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return Artifacts{}, eris.Wrap(err, "pipeline: lock output dir")
	}
	if !locked {
		return Artifacts{}, eris.Errorf("pipeline: output dir %s is locked", dir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			zap.L().Warn("pipeline: unlock output dir", zap.Error(err))
		}
	}()

	out := Artifacts{Enriched: filepath.Join(dir, names.Enriched)}
	if err := roster.WriteFile(out.Enriched, func(w io.Writer) error {
		return roster.WriteEnriched(w, header, result.Enriched)
	}); err != nil {
		return Artifacts{}, err
	}

	out.Failed = filepath.Join(dir, names.Failed)
	failed := make([]model.Record, len(result.Failures))
	for i, f := range result.Failures {
		failed[i] = f.Record
	}
	if err := roster.WriteFile(out.Failed, func(w io.Writer) error {
		return roster.WriteFailures(w, header, failed)
	}); err != nil {
		return out, err
	}

	zap.L().Info("pipeline: artifacts written",
		zap.String("enriched", out.Enriched),
		zap.String("failed", out.Failed),
		zap.Int("failures", len(failed)),
	)
	return out, nil
}
