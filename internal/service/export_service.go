package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"applicant-review-api/internal/model"
	"applicant-review-api/internal/repository"
	"applicant-review-api/pkg/apperr"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ExportService renders a read-only projection of the ledger. Exports
// never mutate core state.
type ExportService interface {
	ExportSubmissions(ctx context.Context, category model.Category, status model.ReviewStatus, format string) (data []byte, contentType string, err error)
}

type exportService struct {
	records repository.StatusRecordRepository
}

func NewExportService(records repository.StatusRecordRepository) ExportService {
	return &exportService{records: records}
}

func (s *exportService) ExportSubmissions(ctx context.Context, category model.Category, status model.ReviewStatus, format string) ([]byte, string, error) {
	if category != "" && !category.Valid() {
		return nil, "", apperr.Validation("unknown category %q", category)
	}
	if status != "" {
		if _, ok := model.ParseReviewStatus(string(status)); !ok {
			return nil, "", apperr.Validation("unknown review status %q", status)
		}
	}
	if format != FormatCSV && format != FormatJSON {
		return nil, "", apperr.Validation("unknown export format %q", format)
	}

	recs, err := s.records.ListByFilter(ctx, category, status)
	if err != nil {
		return nil, "", apperr.Persistence("failed to load export rows", err)
	}

	if format == FormatJSON {
		return renderJSON(recs)
	}
	return renderCSV(recs)
}

type exportEnvelope struct {
	ExportDate  string               `json:"export_date"`
	Total       int                  `json:"total"`
	Submissions []model.StatusRecord `json:"submissions"`
}

func renderJSON(recs []model.StatusRecord) ([]byte, string, error) {
	payload, err := json.MarshalIndent(exportEnvelope{
		ExportDate:  time.Now().Format(time.RFC3339),
		Total:       len(recs),
		Submissions: recs,
	}, "", "  ")
	if err != nil {
		return nil, "", apperr.Persistence("failed to encode export", err)
	}
	return payload, "application/json", nil
}

func renderCSV(recs []model.StatusRecord) ([]byte, string, error) {
	var buf bytes.Buffer
	// UTF-8 BOM so spreadsheet tools detect the encoding.
	buf.WriteString("\xEF\xBB\xBF")

	w := csv.NewWriter(&buf)
	header := []string{
		"submission_id", "account_id", "category", "review_status",
		"submission_kind", "is_active", "profile_status",
		"reviewed_at", "archived_at", "archived_reason", "created_at",
	}
	if err := w.Write(header); err != nil {
		return nil, "", apperr.Persistence("failed to encode export", err)
	}

	formatTime := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02 15:04:05")
	}

	for i := range recs {
		rec := &recs[i]
		accountID := ""
		if rec.AccountID != nil {
			accountID = rec.AccountID.String()
		}
		row := []string{
			strconv.FormatInt(rec.SubmissionID, 10),
			accountID,
			string(rec.Category),
			string(rec.ReviewStatus),
			string(rec.SubmissionKind),
			strconv.FormatBool(rec.IsActive),
			string(rec.ProfileStatus),
			formatTime(rec.ReviewedAt),
			formatTime(rec.ArchivedAt),
			rec.ArchivedReason,
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(row); err != nil {
			return nil, "", apperr.Persistence("failed to encode export", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", apperr.Persistence("failed to encode export", err)
	}
	return buf.Bytes(), "text/csv; charset=utf-8", nil
}
