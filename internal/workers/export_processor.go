// internal/workers/export_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []string{"ID", "Produto ID", "Produto", "SKU", "Tipo", "Quantidade", "Motivo", "Data"}

// ExportConfig bounds the export processor
type ExportConfig struct {
	MaxRows   int
	URLExpiry time.Duration
}

// ExportProcessor renders stock movements into a workbook and uploads it
type ExportProcessor struct {
	ledger  ports.LedgerService
	catalog ports.CatalogService
	storage ports.ObjectStorage
	jobs    ports.ExportJobRepository
	config  ExportConfig
	logger  *slog.Logger
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(
	ledger ports.LedgerService,
	catalog ports.CatalogService,
	storage ports.ObjectStorage,
	jobs ports.ExportJobRepository,
	cfg ExportConfig,
	logger *slog.Logger,
) *ExportProcessor {
	return &ExportProcessor{
		ledger:  ledger,
		catalog: catalog,
		storage: storage,
		jobs:    jobs,
		config:  cfg,
		logger:  logger.With(slog.String("processor", "export")),
	}
}

// ProcessExport handles export:movements tasks
func (p *ExportProcessor) ProcessExport(ctx context.Context, t *asynq.Task) error {
	var payload ExportMovementsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.JobID == "" {
		return fmt.Errorf("payload has no job id: %w", asynq.SkipRetry)
	}

	job, err := p.jobs.Get(ctx, payload.JobID)
	if err != nil {
		return fmt.Errorf("failed to load export job: %w", err)
	}
	if job == nil {
		job = &domain.ExportJob{ID: payload.JobID, ProductID: payload.ProductID}
	}

	job.Status = domain.ExportRunning
	job.Error = ""
	if err := p.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to update export job: %w", err)
	}

	p.logger.InfoContext(ctx, "exporting movements",
		slog.String("job_id", job.ID),
		slog.Int64("product_id", payload.ProductID))

	if err := p.export(ctx, payload, job); err != nil {
		job.Status = domain.ExportFailed
		job.Error = err.Error()
		if saveErr := p.jobs.Save(ctx, job); saveErr != nil {
			p.logger.ErrorContext(ctx, "failed to record export failure",
				slog.String("job_id", job.ID),
				slog.String("error", saveErr.Error()))
		}
		return err
	}

	job.Status = domain.ExportCompleted
	if err := p.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to update export job: %w", err)
	}

	p.logger.InfoContext(ctx, "export completed",
		slog.String("job_id", job.ID),
		slog.Int("rows", job.Rows),
		slog.String("object_key", job.ObjectKey))

	return nil
}

func (p *ExportProcessor) export(ctx context.Context, payload ExportMovementsPayload, job *domain.ExportJob) error {
	filter := domain.MovementFilter{
		ProductID: payload.ProductID,
		Type:      domain.MovementType(payload.Type),
		From:      payload.From,
		To:        payload.To,
		Limit:     p.config.MaxRows + 1,
	}

	movements, err := p.ledger.ListMovements(ctx, filter)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return fmt.Errorf("invalid export filter: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to list movements: %w", err)
	}

	truncated := len(movements) > p.config.MaxRows
	if truncated {
		movements = movements[:p.config.MaxRows]
		p.logger.WarnContext(ctx, "export truncated",
			slog.String("job_id", job.ID),
			slog.Int("max_rows", p.config.MaxRows))
	}

	data, err := p.buildWorkbook(ctx, movements)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("exports/movimentacoes_%s.xlsx", job.ID)
	if _, err := p.storage.Upload(ctx, key, bytes.NewReader(data), xlsxContentType); err != nil {
		return fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := p.storage.GetPresignedURL(ctx, key, p.config.URLExpiry)
	if err != nil {
		return fmt.Errorf("failed to sign export url: %w", err)
	}

	job.ObjectKey = key
	job.DownloadURL = url
	job.Rows = len(movements)
	job.Truncated = truncated
	return nil
}

// buildWorkbook writes one row per movement, newest first
func (p *ExportProcessor) buildWorkbook(ctx context.Context, movements []domain.StockMovement) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Movimentacoes")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, header := range exportHeaders {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	products := make(map[int64]*domain.Product)
	for _, m := range movements {
		product, ok := products[m.ProductID]
		if !ok {
			product, err = p.catalog.GetProduct(ctx, m.ProductID)
			if err != nil {
				p.logger.WarnContext(ctx, "product lookup failed during export",
					slog.Int64("product_id", m.ProductID),
					slog.String("error", err.Error()))
				product = nil
			}
			products[m.ProductID] = product
		}

		row := sheet.AddRow()
		row.AddCell().SetInt64(m.ID)
		row.AddCell().SetInt64(m.ProductID)
		if product != nil {
			row.AddCell().SetString(product.Name)
			row.AddCell().SetString(product.SKU)
		} else {
			row.AddCell().SetString("")
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(string(m.Type))
		row.AddCell().SetInt(m.Quantity)
		reason := ""
		if m.Reason != nil {
			reason = *m.Reason
		}
		row.AddCell().SetString(reason)
		row.AddCell().SetString(m.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	for i := range exportHeaders {
		sheet.SetColWidth(i+1, i+1, 18)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}

	return buffer.Bytes(), nil
}
