package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-recur/internal/models"
	"github.com/noah-isme/lms-recur/pkg/export"
)

// ReportService renders cycle summaries to CSV and PDF files for operators.
type ReportService struct {
	dir    string
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewReportService constructs ReportService writing into dir.
func NewReportService(dir string, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		dir:    dir,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Export writes one CSV and one PDF report for the summary.
func (s *ReportService) Export(summary models.CycleSummary) error {
	if s == nil {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	dataset := export.Dataset{
		Headers: []string{"metric", "value"},
		Rows: []map[string]string{
			{"metric": "active_settings", "value": strconv.Itoa(summary.ActiveSettings)},
			{"metric": "onboarded_users", "value": strconv.Itoa(summary.OnboardedUsers)},
			{"metric": "clone_candidates", "value": strconv.Itoa(summary.CloneCandidates)},
			{"metric": "clones_succeeded", "value": strconv.Itoa(summary.ClonesSucceeded)},
			{"metric": "clones_collided", "value": strconv.Itoa(summary.ClonesCollided)},
			{"metric": "clones_failed", "value": strconv.Itoa(summary.ClonesFailed)},
			{"metric": "records_appended", "value": strconv.Itoa(summary.RecordsAppended)},
			{"metric": "events_emitted", "value": strconv.Itoa(summary.EventsEmitted)},
		},
	}

	stamp := summary.StartedAt.UTC().Format("20060102T150405Z")

	csvBytes, err := s.csv.Render(dataset)
	if err != nil {
		return err
	}
	csvPath := filepath.Join(s.dir, "cycle-"+stamp+".csv")
	if err := os.WriteFile(csvPath, csvBytes, 0o644); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}

	pdfBytes, err := s.pdf.Render(dataset, "Recurrence cycle report", time.Now().UTC())
	if err != nil {
		return err
	}
	pdfPath := filepath.Join(s.dir, "cycle-"+stamp+".pdf")
	if err := os.WriteFile(pdfPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("write pdf report: %w", err)
	}

	s.logger.Info("cycle report exported", zap.String("csv", csvPath), zap.String("pdf", pdfPath))
	return nil
}
