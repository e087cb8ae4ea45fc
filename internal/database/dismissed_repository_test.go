package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/database"
	"github.com/jobsift/jobsift/internal/domain"
)

func record(jobID string, reason domain.DismissReason, runID string) *domain.DismissedJobRecord {
	return &domain.DismissedJobRecord{
		JobID:       jobID,
		URL:         "https://www.linkedin.com/jobs/view/" + jobID,
		Title:       "Engineer " + jobID,
		Company:     "Acme",
		CompanyLink: "https://www.linkedin.com/company/acme",
		Location:    "Toronto, Ontario, Canada",
		Reason:      reason,
		RunID:       runID,
	}
}

func TestDismissedUpsert_OneRowPerJob(t *testing.T) {
	t.Parallel()

	repo := database.NewDismissedRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, record("1", domain.ReasonBlocklistTitle, "run-1")))

	dismissed, err := repo.IsDismissed(ctx, "1")
	require.NoError(t, err)
	require.True(t, dismissed)

	// A second dismissal updates the row in place.
	require.NoError(t, repo.Upsert(ctx, record("1", domain.ReasonAlreadyDismissed, "run-2")))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	rows, err := repo.ListByRun(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, domain.ReasonAlreadyDismissed, rows[0].Reason)
}

func TestDismissedDelete(t *testing.T) {
	t.Parallel()

	repo := database.NewDismissedRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, record("1", domain.ReasonApplied, "run-1")))

	removed, err := repo.Delete(ctx, "1")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = repo.Delete(ctx, "1")
	require.NoError(t, err)
	require.False(t, removed)

	dismissed, err := repo.IsDismissed(ctx, "1")
	require.NoError(t, err)
	require.False(t, dismissed)
}

func TestDismissedList_NewestFirst(t *testing.T) {
	t.Parallel()

	repo := database.NewDismissedRepository(openTestDB(t))
	ctx := context.Background()

	older := record("1", domain.ReasonBlocklistTitle, "run-1")
	older.DismissedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := record("2", domain.ReasonBlocklistTitle, "run-1")
	newer.DismissedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, older))
	require.NoError(t, repo.Upsert(ctx, newer))

	rows, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "2", rows[0].JobID)

	rows, err = repo.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "1", rows[0].JobID)
}

func TestDismissedListedAtRoundTrip(t *testing.T) {
	t.Parallel()

	repo := database.NewDismissedRepository(openTestDB(t))
	ctx := context.Background()

	listed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rec := record("1", domain.ReasonBlocklistTitle, "run-1")
	rec.ListedAt = &listed
	rec.Reposted = true
	require.NoError(t, repo.Upsert(ctx, rec))

	rows, err := repo.List(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ListedAt)
	require.True(t, rows[0].ListedAt.Equal(listed))
	require.True(t, rows[0].Reposted)
}

func TestDismissedSearchByTitle(t *testing.T) {
	t.Parallel()

	repo := database.NewDismissedRepository(openTestDB(t))
	ctx := context.Background()

	rec := record("1", domain.ReasonBlocklistTitle, "run-1")
	rec.Title = "Senior Go Developer"
	require.NoError(t, repo.Upsert(ctx, rec))

	rows, err := repo.SearchByTitle(ctx, "Go")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = repo.SearchByTitle(ctx, "Rust")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestDismissedUniqueCompanyLinks(t *testing.T) {
	t.Parallel()

	repo := database.NewDismissedRepository(openTestDB(t))
	ctx := context.Background()

	a := record("1", domain.ReasonBlocklistCompany, "run-1")
	b := record("2", domain.ReasonBlocklistCompany, "run-1")
	c := record("3", domain.ReasonBlocklistCompany, "run-1")
	c.CompanyLink = "https://www.linkedin.com/company/other"
	for _, rec := range []*domain.DismissedJobRecord{a, b, c} {
		require.NoError(t, repo.Upsert(ctx, rec))
	}

	links, err := repo.UniqueCompanyLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 2)
}
