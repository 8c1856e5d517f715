package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
)

// RowResult reports the outcome of one imported row. Failed rows carry the
// validation message; the batch never aborts on a bad row. Accepted rows
// carry the inference flags set during recompute so the confirmation view
// can show which values were estimated rather than supplied.
type RowResult struct {
	Row               int      `json:"row"`
	OK                bool     `json:"ok"`
	ID                string   `json:"id,omitempty"`
	Error             string   `json:"error,omitempty"`
	WasInferred       bool     `json:"was_inferred"`
	CycleTimeInferred bool     `json:"cycle_time_inferred"`
	EmployeesInferred bool     `json:"employees_inferred"`
	ConfidenceScore   *float64 `json:"confidence_score,omitempty"`
}

// ImportSummary is the outcome of a bulk import batch.
type ImportSummary struct {
	Total    int         `json:"total"`
	Imported int         `json:"imported"`
	Failed   int         `json:"failed"`
	Results  []RowResult `json:"results"`
}

// ImportService runs bulk imports of production entries. Each row goes
// through the same validation, inference, and derived-field recompute as an
// interactively created entry; malformed rows are reported per-row and
// skipped.
type ImportService interface {
	ImportProductionEntries(ctx context.Context, rows []*models.ProductionEntry) (*ImportSummary, error)
}

type importService struct {
	entries EntryService
	logger  *zap.Logger
}

// NewImportService creates an import service over the entry service.
func NewImportService(entries EntryService, logger *zap.Logger) ImportService {
	return &importService{entries: entries, logger: logger}
}

func (s *importService) ImportProductionEntries(ctx context.Context, rows []*models.ProductionEntry) (*ImportSummary, error) {
	summary := &ImportSummary{Total: len(rows)}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := RowResult{Row: i + 1}
		if err := s.entries.CreateProductionEntry(ctx, row); err != nil {
			result.Error = err.Error()
			summary.Failed++
		} else {
			result.OK = true
			result.ID = row.ID.String()
			result.WasInferred = row.WasInferred()
			result.CycleTimeInferred = row.CycleTimeInferred
			result.EmployeesInferred = row.EmployeesInferred
			result.ConfidenceScore = row.ConfidenceScore
			summary.Imported++
		}
		summary.Results = append(summary.Results, result)
	}
	s.logger.Info("bulk import finished",
		zap.Int("total", summary.Total),
		zap.Int("imported", summary.Imported),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

var _ ImportService = (*importService)(nil)
