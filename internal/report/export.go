package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"vip-access-bot/internal/models"
)

// Store is the slice of the account store reporting needs.
type Store interface {
	ListSubmissionsExport(ctx context.Context) ([]models.Submission, error)
}

// exportColumns lists every persisted submission column, in table order.
var exportColumns = []string{
	"id", "tg_user_id", "broker", "client_id", "screenshot_file_id",
	"status", "last_trade_date", "created_at", "updated_at",
}

func exportRow(sub models.Submission) []string {
	return []string{
		strconv.FormatInt(sub.ID, 10),
		strconv.FormatInt(sub.TgUserID, 10),
		sub.Broker,
		sub.ClientID,
		sub.ScreenshotFileID,
		string(sub.Status),
		sub.LastTradeDate,
		sub.CreatedAt.Format(time.RFC3339),
		sub.UpdatedAt.Format(time.RFC3339),
	}
}

// Exporter snapshots submissions into downloadable attachments.
type Exporter struct {
	store Store
}

func NewExporter(store Store) *Exporter {
	return &Exporter{store: store}
}

// File is a ready-to-send attachment.
type File struct {
	Name string
	Data []byte
	Rows int
}

// CSV exports all submissions, most recent first, with every column.
func (e *Exporter) CSV(ctx context.Context) (*File, error) {
	subs, err := e.store.ListSubmissionsExport(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportColumns); err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if err := w.Write(exportRow(sub)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return &File{
		Name: fmt.Sprintf("submissions_%s.csv", uuid.NewString()[:8]),
		Data: buf.Bytes(),
		Rows: len(subs),
	}, nil
}

// XLSX exports the same snapshot as a spreadsheet.
func (e *Exporter) XLSX(ctx context.Context) (*File, error) {
	subs, err := e.store.ListSubmissionsExport(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Submissions"
	f.SetSheetName("Sheet1", sheet)

	for col, name := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
	}
	for i, sub := range subs {
		for col, val := range exportRow(sub) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return &File{
		Name: fmt.Sprintf("submissions_%s.xlsx", uuid.NewString()[:8]),
		Data: buf.Bytes(),
		Rows: len(subs),
	}, nil
}
