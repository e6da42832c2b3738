// internal/handlers/exports.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
	"github.com/ammerola/gestor-be/internal/pkg/logger"
	"github.com/ammerola/gestor-be/internal/workers"
)

// ExportHandler queues movement exports and reports their progress
type ExportHandler struct {
	queue  ports.TaskQueue
	jobs   ports.ExportJobRepository
	logger *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(queue ports.TaskQueue, jobs ports.ExportJobRepository, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		queue:  queue,
		jobs:   jobs,
		logger: logger.With(slog.String("handler", "exports")),
	}
}

// ExportMovements handles POST /exports/movements. The filter comes from the
// same query parameters GET /products/stock-movements accepts.
func (h *ExportHandler) ExportMovements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseMovementFilter(r)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "queue export")
		return
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		respondDomainError(w, r, h.logger, domain.NewInvalidArgument("from must be before to"), "queue export")
		return
	}

	jobID := uuid.New().String()
	job := &domain.ExportJob{
		ID:        jobID,
		Status:    domain.ExportPending,
		ProductID: filter.ProductID,
	}
	if err := h.jobs.Save(ctx, job); err != nil {
		respondDomainError(w, r, h.logger, err, "queue export")
		return
	}

	task, err := workers.NewExportMovementsTask(workers.ExportMovementsPayload{
		JobID:     jobID,
		ProductID: filter.ProductID,
		Type:      string(filter.Type),
		From:      filter.From,
		To:        filter.To,
		UserID:    logger.UserIDFromContext(ctx),
	})
	if err != nil {
		respondDomainError(w, r, h.logger, err, "queue export")
		return
	}

	info, err := h.queue.EnqueueContext(ctx, task)
	if err != nil {
		job.Status = domain.ExportFailed
		job.Error = "failed to queue export"
		if saveErr := h.jobs.Save(ctx, job); saveErr != nil {
			h.logger.WarnContext(ctx, "failed to record export failure",
				slog.String("job_id", jobID),
				slog.String("error", saveErr.Error()))
		}
		respondDomainError(w, r, h.logger, err, "queue export")
		return
	}

	h.logger.InfoContext(ctx, "export queued",
		slog.String("job_id", jobID),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))

	respondJSON(w, h.logger, http.StatusAccepted, map[string]interface{}{
		"job_id": jobID,
		"status": job.Status,
	})
}

// GetExport handles GET /exports/{id}
func (h *ExportHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		respondDomainError(w, r, h.logger, domain.NewInvalidArgument("invalid export id %q", id), "get export")
		return
	}

	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "get export")
		return
	}
	if job == nil {
		respondDomainError(w, r, h.logger, notFoundf("export %s", id), "get export")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, job)
}
