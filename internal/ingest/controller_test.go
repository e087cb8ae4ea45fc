package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/domain"
	"github.com/jobsift/jobsift/internal/filter"
	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/linkedin"
	"github.com/jobsift/jobsift/internal/logger"
)

// memLedger is an in-memory dismissal ledger.
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

// fakeClient serves canned result pages.
type fakeClient struct {
	pages [][]domain.JobStub

	pageErrAt    int // 1-based page index that fails, 0 = never
	detailErrIDs map[string]bool

	dismissed   []string
	detailCalls int
	pageCalls   int
}

func (f *fakeClient) SearchJobs(_ context.Context, _ linkedin.SearchQuery, start int) (*linkedin.SearchPage, error) {
	f.pageCalls++
	idx := start / linkedin.PageSize
	if f.pageErrAt > 0 && idx+1 == f.pageErrAt {
		return nil, &linkedin.TransportError{URL: "test", Attempts: 3, Err: errors.New("boom")}
	}
	if idx >= len(f.pages) {
		return &linkedin.SearchPage{}, nil
	}
	return &linkedin.SearchPage{Stubs: f.pages[idx], Total: totalStubs(f.pages)}, nil
}

func (f *fakeClient) FetchJobDetail(_ context.Context, stub domain.JobStub) (*domain.JobDetail, error) {
	f.detailCalls++
	if f.detailErrIDs[stub.JobID] {
		return nil, &linkedin.TransportError{URL: "test", Attempts: 3, Err: errors.New("boom")}
	}
	return &domain.JobDetail{
		JobStub:     stub,
		Description: "description for " + stub.JobID,
	}, nil
}

func (f *fakeClient) Dismiss(_ context.Context, jobID, _ string) error {
	f.dismissed = append(f.dismissed, jobID)
	return nil
}

func totalStubs(pages [][]domain.JobStub) int {
	n := 0
	for _, p := range pages {
		n += len(p)
	}
	return n
}

// nilGeo never scopes.
type nilGeo struct{}

func (nilGeo) Resolve(context.Context, string) (*domain.GeoCacheEntry, error) {
	return nil, nil
}

func stubs(ids ...string) []domain.JobStub {
	out := make([]domain.JobStub, len(ids))
	for i, id := range ids {
		out[i] = domain.JobStub{JobID: id, Title: "Role " + id, Company: "Acme"}
	}
	return out
}

func newController(t *testing.T, client *fakeClient, ledger filter.Ledger, cfg ingest.Config, titles []string) *ingest.Controller {
	t.Helper()
	engine, err := filter.NewEngine(ledger, titles, nil, logger.NewNoOp())
	require.NoError(t, err)
	return ingest.NewController(client, nilGeo{}, engine, cfg, logger.NewNoOp())
}

func collect(outcomes *[]ingest.Outcome) ingest.Sink {
	return func(o ingest.Outcome) { *outcomes = append(*outcomes, o) }
}

func TestRun_PaginatesUntilEmptyPage(t *testing.T) {
	t.Parallel()

	client := &fakeClient{pages: [][]domain.JobStub{
		stubs("1", "2", "3"),
		stubs("4", "5"),
	}}
	ctrl := newController(t, client, newMemLedger(), ingest.Config{}, nil)

	var outcomes []ingest.Outcome
	result, err := ctrl.Run(context.Background(), "run-1",
		domain.SearchParams{Keywords: "go"}, collect(&outcomes))
	require.NoError(t, err)

	require.Equal(t, 5, result.TotalFound)
	require.Equal(t, 5, result.Kept)
	require.Zero(t, result.TotalDismissed)
	require.Len(t, outcomes, 5)
}

func TestRun_LimitStopsEarly(t *testing.T) {
	t.Parallel()

	client := &fakeClient{pages: [][]domain.JobStub{stubs("1", "2", "3", "4")}}
	ctrl := newController(t, client, newMemLedger(), ingest.Config{}, nil)

	result, err := ctrl.Run(context.Background(), "run-1",
		domain.SearchParams{Keywords: "go", Limit: 2}, func(ingest.Outcome) {})
	require.NoError(t, err)
	require.Equal(t, 2, result.Kept)
	require.Equal(t, 2, result.TotalFound)
}

func TestRun_LimitCountsDismissedJobs(t *testing.T) {
	t.Parallel()

	// Every stub on the first page is blocklisted; the limit still drains.
	client := &fakeClient{pages: [][]domain.JobStub{
		stubs("1", "2", "3"),
		stubs("4", "5"),
	}}
	for i := range client.pages[0] {
		client.pages[0][i].Title = "Recruiter"
	}
	ctrl := newController(t, client, newMemLedger(), ingest.Config{}, []string{"Recruiter"})

	result, err := ctrl.Run(context.Background(), "run-1",
		domain.SearchParams{Keywords: "go", Limit: 2}, func(ingest.Outcome) {})
	require.NoError(t, err)

	require.Equal(t, 2, result.TotalFound)
	require.Equal(t, 2, result.TotalDismissed)
	require.Zero(t, result.Kept)
	// The second page was never requested.
	require.Equal(t, 1, client.pageCalls)
}

func TestRun_PageErrorFailsRun(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		pages:     [][]domain.JobStub{stubs("1"), stubs("2")},
		pageErrAt: 2,
	}
	ctrl := newController(t, client, newMemLedger(), ingest.Config{}, nil)

	var outcomes []ingest.Outcome
	result, err := ctrl.Run(context.Background(), "run-1",
		domain.SearchParams{Keywords: "go"}, collect(&outcomes))

	var transport *linkedin.TransportError
	require.ErrorAs(t, err, &transport)
	// Work done before the failure stands.
	require.Equal(t, 1, result.Kept)
	require.Len(t, outcomes, 1)
}

func TestRun_DetailErrorSkipsJob(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		pages:        [][]domain.JobStub{stubs("1", "2")},
		detailErrIDs: map[string]bool{"1": true},
	}
	ledger := newMemLedger()
	ctrl := newController(t, client, ledger, ingest.Config{}, nil)

	var outcomes []ingest.Outcome
	result, err := ctrl.Run(context.Background(), "run-1",
		domain.SearchParams{Keywords: "go"}, collect(&outcomes))
	require.NoError(t, err)

	require.Equal(t, 2, result.TotalFound)
	require.Equal(t, 1, result.TotalSkipped)
	require.Equal(t, 1, result.Kept)
	// The skipped job is not dismissed and can reappear later.
	require.NotContains(t, ledger.records, "1")
	require.Equal(t, ingest.OutcomeSkipped, outcomes[0].Kind)
}

func TestRun_CancellationStopsBetweenJobs(t *testing.T) {
	t.Parallel()

	client := &fakeClient{pages: [][]domain.JobStub{stubs("1", "2", "3")}}
	ctrl := newController(t, client, newMemLedger(), ingest.Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var outcomes []ingest.Outcome
	_, err := ctrl.Run(ctx, "run-1", domain.SearchParams{Keywords: "go"},
		func(o ingest.Outcome) {
			outcomes = append(outcomes, o)
			if len(outcomes) == 1 {
				cancel()
			}
		})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, outcomes, 1)
}

func TestRun_CountersMatchMixedPage(t *testing.T) {
	t.Parallel()

	// Ten jobs: five already in the ledger, five fresh.
	ledger := newMemLedger()
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("old-%d", i)
		ledger.records[id] = &domain.DismissedJobRecord{JobID: id}
	}

	page := append(stubs("old-1", "old-2", "old-3", "old-4", "old-5"),
		stubs("new-1", "new-2", "new-3", "new-4", "new-5")...)
	// Two of the fresh jobs match the title blocklist.
	page[5].Title = "Recruiter"
	page[6].Title = "Recruiter Lead"

	client := &fakeClient{pages: [][]domain.JobStub{page}}
	ctrl := newController(t, client, ledger, ingest.Config{}, []string{"Recruiter"})

	result, err := ctrl.Run(context.Background(), "run-1",
		domain.SearchParams{Keywords: "go"}, func(ingest.Outcome) {})
	require.NoError(t, err)

	// Re-sightings count as dismissals too; only the two blocklist hits
	// add new ledger rows.
	require.Equal(t, 10, result.TotalFound)
	require.Equal(t, 7, result.TotalDismissed)
	require.Equal(t, 7, result.TotalSkipped)
	require.Equal(t, 3, result.Kept)
	require.Len(t, ledger.records, 7)
	// No detail fetch happened for any dismissed job.
	require.Equal(t, 3, client.detailCalls)
}

func TestRun_RemoteDismissalOnlyForFreshDismissals(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	ledger.records["old-1"] = &domain.DismissedJobRecord{JobID: "old-1"}

	page := stubs("old-1", "new-1")
	page[1].Title = "Recruiter"

	client := &fakeClient{pages: [][]domain.JobStub{page}}
	ctrl := newController(t, client, ledger,
		ingest.Config{DismissRemote: true}, []string{"Recruiter"})

	_, err := ctrl.Run(context.Background(), "run-1",
		domain.SearchParams{Keywords: "go"}, func(ingest.Outcome) {})
	require.NoError(t, err)
	require.Equal(t, []string{"new-1"}, client.dismissed)
}

func TestRun_DuplicateDescriptionDismissed(t *testing.T) {
	t.Parallel()

	client := &fakeClient{pages: [][]domain.JobStub{stubs("1", "2")}}
	ledger := newMemLedger()

	engine, err := filter.NewEngine(ledger, nil, nil, logger.NewNoOp())
	require.NoError(t, err)
	ctrl := ingest.NewController(&sameDescClient{fakeClient: client}, nilGeo{},
		engine, ingest.Config{}, logger.NewNoOp())

	result, err := ctrl.Run(context.Background(), "run-1",
		domain.SearchParams{Keywords: "go"}, func(ingest.Outcome) {})
	require.NoError(t, err)

	require.Equal(t, 1, result.Kept)
	require.Equal(t, 1, result.TotalDismissed)
	// The duplicate had its detail fetched, so it is not skipped.
	require.Zero(t, result.TotalSkipped)
	require.Equal(t, domain.ReasonDuplicateDescription, ledger.records["2"].Reason)
}

func TestRun_InvalidParamsRejectedSynchronously(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	ctrl := newController(t, client, newMemLedger(), ingest.Config{}, nil)

	_, err := ctrl.Run(context.Background(), "run-1",
		domain.SearchParams{TimeRange: "fortnight"}, func(ingest.Outcome) {})

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "time_range", validation.Field)
}

// sameDescClient returns an identical description for every job.
type sameDescClient struct {
	*fakeClient
}

func (c *sameDescClient) FetchJobDetail(ctx context.Context, stub domain.JobStub) (*domain.JobDetail, error) {
	detail, err := c.fakeClient.FetchJobDetail(ctx, stub)
	if err != nil {
		return nil, err
	}
	detail.Description = "identical text"
	return detail, nil
}
