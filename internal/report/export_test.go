package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vip-access-bot/internal/models"
)

type stubStore struct {
	subs []models.Submission
}

func (s *stubStore) ListSubmissionsExport(ctx context.Context) ([]models.Submission, error) {
	return s.subs, nil
}

func sampleSubmissions() []models.Submission {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return []models.Submission{
		{
			ID: 2, TgUserID: 20, Broker: "Vantage", ClientID: "222222",
			ScreenshotFileID: "file-2", Status: models.StatusPending,
			CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour),
		},
		{
			ID: 1, TgUserID: 10, Broker: "XM", ClientID: "111111",
			Status: models.StatusApproved, LastTradeDate: "2025-05-20",
			CreatedAt: base, UpdatedAt: base,
		},
	}
}

func TestCSVExport(t *testing.T) {
	e := NewExporter(&stubStore{subs: sampleSubmissions()})

	file, err := e.CSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, file.Rows)
	assert.True(t, strings.HasPrefix(file.Name, "submissions_"))
	assert.True(t, strings.HasSuffix(file.Name, ".csv"))

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, exportColumns, records[0])
	// Store order is preserved: most recent submission first.
	assert.Equal(t, "2", records[1][0])
	assert.Equal(t, "Vantage", records[1][2])
	assert.Equal(t, "pending", records[1][5])
	assert.Equal(t, "1", records[2][0])
	assert.Equal(t, "2025-05-20", records[2][6])
}

func TestCSVExportEmpty(t *testing.T) {
	e := NewExporter(&stubStore{})

	file, err := e.CSV(context.Background())
	require.NoError(t, err)
	assert.Zero(t, file.Rows)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}

func TestXLSXExport(t *testing.T) {
	e := NewExporter(&stubStore{subs: sampleSubmissions()})

	file, err := e.XLSX(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, file.Rows)
	assert.True(t, strings.HasSuffix(file.Name, ".xlsx"))

	f, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Submissions")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportColumns, rows[0])
	assert.Equal(t, "222222", rows[1][3])
	assert.Equal(t, "111111", rows[2][3])
}
