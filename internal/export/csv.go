// Package export writes the dismissed-job ledger to CSV for spreadsheet
// review.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jobsift/jobsift/internal/domain"
)

// csvHeader is the fixed column layout.
var csvHeader = []string{
	"Job ID", "Title", "Company", "Location", "Reason",
	"Dismissed At", "Listed At", "Link",
}

// pageSize bounds one ledger read while streaming.
const pageSize = 500

// Ledger is the read surface the exporter needs.
type Ledger interface {
	List(ctx context.Context, offset, limit int) ([]*domain.DismissedJobRecord, error)
}

// CSVExporter streams ledger rows as CSV.
type CSVExporter struct {
	ledger Ledger
}

// NewCSVExporter creates an exporter.
func NewCSVExporter(ledger Ledger) *CSVExporter {
	return &CSVExporter{ledger: ledger}
}

// Write streams the whole ledger to w, newest dismissals first. Returns the
// number of rows written.
func (e *CSVExporter) Write(ctx context.Context, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	written := 0
	for offset := 0; ; offset += pageSize {
		rows, err := e.ledger.List(ctx, offset, pageSize)
		if err != nil {
			return written, err
		}
		if len(rows) == 0 {
			break
		}
		for _, rec := range rows {
			if err := cw.Write(recordRow(rec)); err != nil {
				return written, fmt.Errorf("failed to write csv row: %w", err)
			}
			written++
		}
		if len(rows) < pageSize {
			break
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("failed to flush csv: %w", err)
	}
	return written, nil
}

// recordRow formats one ledger record.
func recordRow(rec *domain.DismissedJobRecord) []string {
	listedAt := ""
	if rec.ListedAt != nil {
		listedAt = rec.ListedAt.UTC().Format(time.RFC3339)
	}
	link := rec.URL
	if link == "" {
		link = "https://www.linkedin.com/jobs/view/" + rec.JobID
	}
	return []string{
		rec.JobID,
		rec.Title,
		rec.Company,
		rec.Location,
		string(rec.Reason),
		rec.DismissedAt.UTC().Format(time.RFC3339),
		listedAt,
		link,
	}
}
