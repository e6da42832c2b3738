// internal/core/domain/export.go
package domain

import "time"

// ExportStatus is the state of an asynchronous export job.
type ExportStatus string

const (
	ExportPending   ExportStatus = "pending"
	ExportRunning   ExportStatus = "running"
	ExportCompleted ExportStatus = "completed"
	ExportFailed    ExportStatus = "failed"
)

// ExportJob tracks a movements workbook produced by the worker.
type ExportJob struct {
	ID          string       `json:"id"`
	Status      ExportStatus `json:"status"`
	ProductID   int64        `json:"productId,omitempty"`
	ObjectKey   string       `json:"objectKey,omitempty"`
	Rows        int          `json:"rows"`
	Truncated   bool         `json:"truncated"`
	Error       string       `json:"error,omitempty"`
	DownloadURL string       `json:"downloadUrl,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
