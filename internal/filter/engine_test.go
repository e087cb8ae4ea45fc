package filter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/domain"
	"github.com/jobsift/jobsift/internal/filter"
	"github.com/jobsift/jobsift/internal/logger"
)

// memLedger is an in-memory Ledger for engine tests.
type memLedger struct {
	records map[string]*domain.DismissedJobRecord
}

func newMemLedger() *memLedger {
	return &memLedger{records: make(map[string]*domain.DismissedJobRecord)}
}

func (m *memLedger) IsDismissed(_ context.Context, jobID string) (bool, error) {
	_, ok := m.records[jobID]
	return ok, nil
}

func (m *memLedger) Upsert(_ context.Context, rec *domain.DismissedJobRecord) error {
	m.records[rec.JobID] = rec
	return nil
}

func newEngine(t *testing.T, ledger filter.Ledger, titles, companies []string) *filter.Engine {
	t.Helper()
	engine, err := filter.NewEngine(ledger, titles, companies, logger.NewNoOp())
	require.NoError(t, err)
	engine.BeginRun("run-1")
	return engine
}

func TestCheckStub_TitleWordBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entry   string
		title   string
		blocked bool
	}{
		{"exact word", "QA", "QA Engineer", true},
		{"word inside phrase", "QA", "Senior QA Analyst", true},
		{"substring of longer word", "QA", "HVAC Technician", false},
		{"embedded in word", "QA", "AQUA Specialist", false},
		{"multi word phrase", "Java Developer", "Senior Java Developer (Remote)", true},
		{"phrase split by other words", "Java Developer", "Java Backend Developer", false},
		{"case insensitive", "java developer", "JAVA DEVELOPER", true},
		{"flexible inner whitespace", "Java Developer", "Java  Developer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := newEngine(t, newMemLedger(), []string{tt.entry}, nil)
			verdict, err := engine.CheckStub(context.Background(), &domain.JobStub{
				JobID: "1", Title: tt.title,
			})
			require.NoError(t, err)

			if tt.blocked {
				require.NotNil(t, verdict)
				require.Equal(t, domain.ReasonBlocklistTitle, verdict.Reason)
				require.Equal(t, tt.entry, verdict.Match)
			} else {
				require.Nil(t, verdict)
			}
		})
	}
}

func TestCheckStub_CompanyLinkNormalization(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, newMemLedger(), nil,
		[]string{"https://www.linkedin.com/company/acme/"})

	tests := []struct {
		name    string
		link    string
		blocked bool
	}{
		{"identical", "https://www.linkedin.com/company/acme/", true},
		{"no scheme", "linkedin.com/company/acme", true},
		{"life subpage", "https://www.linkedin.com/company/acme/life", true},
		{"different casing", "https://www.LinkedIn.com/company/ACME", true},
		{"different company", "https://www.linkedin.com/company/acme-corp", false},
		{"empty link never matches", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verdict, err := engine.CheckStub(context.Background(), &domain.JobStub{
				JobID: "1", Title: "Engineer", CompanyLink: tt.link,
			})
			require.NoError(t, err)
			if tt.blocked {
				require.NotNil(t, verdict)
				require.Equal(t, domain.ReasonBlocklistCompany, verdict.Reason)
			} else {
				require.Nil(t, verdict)
			}
		})
	}
}

func TestCheckStub_Order(t *testing.T) {
	t.Parallel()

	// A job that is in the ledger AND matches the title blocklist must be
	// reported as already dismissed: the ledger check runs first.
	ledger := newMemLedger()
	require.NoError(t, ledger.Upsert(context.Background(), &domain.DismissedJobRecord{
		JobID: "42", Reason: domain.ReasonBlocklistTitle,
	}))

	engine := newEngine(t, ledger, []string{"Engineer"}, nil)
	verdict, err := engine.CheckStub(context.Background(), &domain.JobStub{
		JobID: "42", Title: "Engineer",
	})
	require.NoError(t, err)
	require.NotNil(t, verdict)
	require.Equal(t, domain.ReasonAlreadyDismissed, verdict.Reason)
}

func TestCheckDetail_DuplicateDescription(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, newMemLedger(), nil, nil)

	first := &domain.JobDetail{
		JobStub:     domain.JobStub{JobID: "1"},
		Description: "We are hiring a Go developer.",
	}
	require.Nil(t, engine.CheckDetail(first))

	// Same text with different formatting is still a duplicate.
	second := &domain.JobDetail{
		JobStub:     domain.JobStub{JobID: "2"},
		Description: "We are  hiring a\nGo developer.",
	}
	verdict := engine.CheckDetail(second)
	require.NotNil(t, verdict)
	require.Equal(t, domain.ReasonDuplicateDescription, verdict.Reason)
	require.Equal(t, "1", verdict.Match)

	// A new run starts with an empty duplicate index.
	engine.BeginRun("run-2")
	require.Nil(t, engine.CheckDetail(second))
}

func TestCheckDetail_Applied(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, newMemLedger(), nil, nil)

	detail := &domain.JobDetail{
		JobStub:     domain.JobStub{JobID: "7", Applied: true},
		Description: "Some role.",
	}
	verdict := engine.CheckDetail(detail)
	require.NotNil(t, verdict)
	require.Equal(t, domain.ReasonApplied, verdict.Reason)
}

func TestDismiss_RecordsRun(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	engine := newEngine(t, ledger, nil, nil)

	stub := &domain.JobStub{
		JobID: "9", Title: "Engineer", Company: "Acme",
		URL: "https://www.linkedin.com/jobs/view/9",
	}
	err := engine.Dismiss(context.Background(), stub,
		&filter.Verdict{Reason: domain.ReasonBlocklistTitle, Match: "Engineer"})
	require.NoError(t, err)

	rec := ledger.records["9"]
	require.NotNil(t, rec)
	require.Equal(t, domain.ReasonBlocklistTitle, rec.Reason)
	require.Equal(t, "run-1", rec.RunID)
	require.False(t, rec.DismissedAt.IsZero())
}
