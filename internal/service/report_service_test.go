package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-recur/internal/models"
)

func TestReportServiceExportWritesBothFormats(t *testing.T) {
	dir := t.TempDir()
	svc := NewReportService(dir, nil)

	started := time.Date(2026, 8, 31, 2, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Export(models.CycleSummary{
		StartedAt:       started,
		FinishedAt:      started.Add(90 * time.Second),
		ActiveSettings:  3,
		ClonesSucceeded: 1,
		EventsEmitted:   4,
	}))

	csvPath := filepath.Join(dir, "cycle-20260831T020000Z.csv")
	csvBytes, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(csvBytes), "clones_succeeded,1")
	assert.Contains(t, string(csvBytes), "events_emitted,4")

	pdfBytes, err := os.ReadFile(filepath.Join(dir, "cycle-20260831T020000Z.pdf"))
	require.NoError(t, err)
	assert.True(t, len(pdfBytes) > 0)
}

func TestReportServiceNilReceiver(t *testing.T) {
	var svc *ReportService
	assert.NoError(t, svc.Export(models.CycleSummary{}))
}
