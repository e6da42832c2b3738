// internal/adapters/redis_adapter/export_jobs.go
package redis_a

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
)

// ExportJobStore keeps export job state in Redis until it expires
type ExportJobStore struct {
	cache *Cache
	ttl   time.Duration
}

// Statically assert that *ExportJobStore implements the ExportJobRepository interface.
var _ ports.ExportJobRepository = (*ExportJobStore)(nil)

// NewExportJobStore creates a job store whose entries live for ttl
func NewExportJobStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ExportJobStore {
	return &ExportJobStore{
		cache: NewCache(client, ttl, logger),
		ttl:   ttl,
	}
}

// Save writes the job and refreshes its expiry
func (s *ExportJobStore) Save(ctx context.Context, job *domain.ExportJob) error {
	if job.ID == "" {
		return fmt.Errorf("export job id is required")
	}
	job.UpdatedAt = time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = job.UpdatedAt
	}
	return s.cache.SetWithTTL(ctx, BuildKey(PrefixExport, job.ID), job, s.ttl)
}

// Get loads a job, returning nil, nil when it is unknown or expired
func (s *ExportJobStore) Get(ctx context.Context, id string) (*domain.ExportJob, error) {
	var job domain.ExportJob
	if err := s.cache.Get(ctx, BuildKey(PrefixExport, id), &job); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load export job: %w", err)
	}
	return &job, nil
}
