// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
)

// CleanupProcessor removes export workbooks that outlived their job
type CleanupProcessor struct {
	dir    string
	maxAge time.Duration
	logger *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(dir string, maxAge time.Duration, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		dir:    dir,
		maxAge: maxAge,
		logger: logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupExports deletes files under the export directory older than maxAge
func (p *CleanupProcessor) CleanupExports(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up export files", slog.String("dir", p.dir))

	if _, err := os.Stat(p.dir); os.IsNotExist(err) {
		return nil
	}

	cutoff := time.Now().Add(-p.maxAge)
	var deletedCount int

	err := filepath.WalkDir(p.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}

		if err := os.Remove(path); err != nil {
			p.logger.WarnContext(ctx, "failed to delete export file",
				slog.String("file", path),
				slog.String("error", err.Error()))
			return nil
		}
		deletedCount++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk export directory: %w", err)
	}

	p.logger.InfoContext(ctx, "export files cleaned up",
		slog.Int("files_deleted", deletedCount))

	return nil
}
