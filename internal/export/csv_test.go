package export_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/domain"
	"github.com/jobsift/jobsift/internal/export"
)

// memLedger pages over a fixed slice.
type memLedger struct {
	rows []*domain.DismissedJobRecord
}

func (m *memLedger) List(_ context.Context, offset, limit int) ([]*domain.DismissedJobRecord, error) {
	if offset >= len(m.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.rows) {
		end = len(m.rows)
	}
	return m.rows[offset:end], nil
}

func TestCSVExporter_Write(t *testing.T) {
	t.Parallel()

	listed := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	ledger := &memLedger{rows: []*domain.DismissedJobRecord{
		{
			JobID:       "4012345678",
			URL:         "https://www.linkedin.com/jobs/view/4012345678",
			Title:       "Senior Go Developer, \"Platform\"",
			Company:     "Acme Corp",
			Location:    "Toronto, Ontario, Canada",
			Reason:      domain.ReasonBlocklistTitle,
			ListedAt:    &listed,
			DismissedAt: time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC),
		},
		{
			JobID:       "4099999999",
			Title:       "Recruiter",
			Company:     "Hiring Inc",
			Reason:      domain.ReasonBlocklistCompany,
			DismissedAt: time.Date(2026, 8, 31, 10, 31, 0, 0, time.UTC),
		},
	}}

	var sb strings.Builder
	n, err := export.NewCSVExporter(ledger).Write(context.Background(), &sb)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t,
		"Job ID,Title,Company,Location,Reason,Dismissed At,Listed At,Link",
		lines[0])

	// Embedded commas and quotes are escaped per CSV rules.
	require.Contains(t, lines[1], `"Senior Go Developer, ""Platform"""`)
	require.Contains(t, lines[1], "2026-08-31T10:30:00Z")
	require.Contains(t, lines[1], "2026-08-30T09:00:00Z")

	// A row without a stored URL falls back to the canonical view link.
	require.Contains(t, lines[2], "https://www.linkedin.com/jobs/view/4099999999")
}

func TestCSVExporter_Empty(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	n, err := export.NewCSVExporter(&memLedger{}).Write(context.Background(), &sb)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, "Job ID,Title,Company,Location,Reason,Dismissed At,Listed At,Link\n", sb.String())
}
