// internal/core/ports/jobs.go
package ports

import (
	"context"
	"io"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/gestor-be/internal/core/domain"
)

// TaskQueue enqueues background tasks. *asynq.Client satisfies it.
type TaskQueue interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ObjectStorage stores generated files such as export workbooks.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	GetPresignedURL(ctx context.Context, key string, duration time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// ExportJobRepository keeps export job state for clients polling the API.
// Get returns nil, nil for unknown or expired jobs.
type ExportJobRepository interface {
	Save(ctx context.Context, job *domain.ExportJob) error
	Get(ctx context.Context, id string) (*domain.ExportJob, error)
}
