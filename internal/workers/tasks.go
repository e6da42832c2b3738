// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeLedgerReconcile  = "ledger:reconcile"
	TypeExportMovements  = "export:movements"
	TypeCleanupExports   = "cleanup:exports"
	QueueCritical        = "critical"
	QueueDefault         = "default"
	QueueLow             = "low"
	exportTaskRetention  = 24 * time.Hour
	exportTaskMaxRetries = 3
)

// ExportMovementsPayload is the payload of a movements export job
type ExportMovementsPayload struct {
	JobID     string     `json:"job_id"`
	ProductID int64      `json:"product_id,omitempty"`
	Type      string     `json:"type,omitempty"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
}

// NewExportMovementsTask builds the task for a movements export
func NewExportMovementsTask(payload ExportMovementsPayload) (*asynq.Task, error) {
	if payload.JobID == "" {
		return nil, fmt.Errorf("job id is required")
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return asynq.NewTask(TypeExportMovements, b,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(exportTaskMaxRetries),
		asynq.Retention(exportTaskRetention),
		asynq.TaskID(payload.JobID)), nil
}

// NewReconcileTask builds the periodic ledger reconciliation task
func NewReconcileTask() *asynq.Task {
	return asynq.NewTask(TypeLedgerReconcile, nil,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(1),
		asynq.Unique(time.Hour))
}

// NewCleanupExportsTask builds the periodic export cleanup task
func NewCleanupExportsTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupExports, nil,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(1))
}

// NewServeMux registers every processor on an asynq mux. cleanup may be nil
// when exports are not kept on the local filesystem.
func NewServeMux(reconcile *ReconcileProcessor, export *ExportProcessor, cleanup *CleanupProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeLedgerReconcile, reconcile.ProcessReconcile)
	mux.HandleFunc(TypeExportMovements, export.ProcessExport)
	if cleanup != nil {
		mux.HandleFunc(TypeCleanupExports, cleanup.CleanupExports)
	}
	return mux
}
