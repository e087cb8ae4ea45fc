package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/database"
	"github.com/jobsift/jobsift/internal/domain"
)

func int64Ptr(v int64) *int64 { return &v }

func TestGeoCache_UpsertAndGet(t *testing.T) {
	t.Parallel()

	repo := database.NewGeoRepository(openTestDB(t))
	ctx := context.Background()

	entry, err := repo.GetCache(ctx, "Toronto, On, Canada")
	require.NoError(t, err)
	require.Nil(t, entry)

	require.NoError(t, repo.UpsertCache(ctx, &domain.GeoCacheEntry{
		Query:            "Toronto, On, Canada",
		MasterGeoID:      100025096,
		PopulatedPlaceID: int64Ptr(100567),
	}))

	entry, err = repo.GetCache(ctx, "Toronto, On, Canada")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, int64(100025096), entry.MasterGeoID)
	require.True(t, entry.Refined())
	require.Equal(t, int64(100567), *entry.PopulatedPlaceID)
}

func TestGeoCache_RefinementEqualToMasterStoredAsNull(t *testing.T) {
	t.Parallel()

	repo := database.NewGeoRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.UpsertCache(ctx, &domain.GeoCacheEntry{
		Query:            "Berlin, Germany",
		MasterGeoID:      500,
		PopulatedPlaceID: int64Ptr(500),
	}))

	entry, err := repo.GetCache(ctx, "Berlin, Germany")
	require.NoError(t, err)
	require.False(t, entry.Refined())
}

func TestGeoCache_Override(t *testing.T) {
	t.Parallel()

	repo := database.NewGeoRepository(openTestDB(t))
	ctx := context.Background()

	// No entry yet: override reports not found.
	found, err := repo.SetOverride(ctx, "Toronto, On", int64Ptr(100567))
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, repo.UpsertCache(ctx, &domain.GeoCacheEntry{
		Query: "Toronto, On", MasterGeoID: 100025096,
	}))

	found, err = repo.SetOverride(ctx, "Toronto, On", int64Ptr(100567))
	require.NoError(t, err)
	require.True(t, found)

	entry, err := repo.GetCache(ctx, "Toronto, On")
	require.NoError(t, err)
	require.True(t, entry.Refined())
	// The master id is untouched.
	require.Equal(t, int64(100025096), entry.MasterGeoID)

	// Overriding with the master id itself clears the refinement.
	found, err = repo.SetOverride(ctx, "Toronto, On", int64Ptr(100025096))
	require.NoError(t, err)
	require.True(t, found)
	entry, err = repo.GetCache(ctx, "Toronto, On")
	require.NoError(t, err)
	require.False(t, entry.Refined())

	// Clearing with nil also works.
	_, err = repo.SetOverride(ctx, "Toronto, On", int64Ptr(100567))
	require.NoError(t, err)
	found, err = repo.SetOverride(ctx, "Toronto, On", nil)
	require.NoError(t, err)
	require.True(t, found)
	entry, err = repo.GetCache(ctx, "Toronto, On")
	require.NoError(t, err)
	require.False(t, entry.Refined())
}

func TestGeoCandidates_MergeIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := database.NewGeoRepository(openTestDB(t))
	ctx := context.Background()

	candidates := []domain.GeoCandidate{
		{PPID: 100567, Name: "Toronto, Ontario, Canada"},
		{PPID: 100568, Name: "Mississauga, Ontario, Canada"},
	}
	require.NoError(t, repo.UpsertCandidates(ctx, candidates, 100025096))
	// A repeat sighting under the same master changes nothing.
	require.NoError(t, repo.UpsertCandidates(ctx, candidates, 100025096))
	// A sighting under another master grows the id set.
	require.NoError(t, repo.UpsertCandidates(ctx, candidates[:1], 200))

	list, err := repo.ListCandidates(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)

	var toronto *domain.GeoCandidate
	for _, c := range list {
		if c.PPID == 100567 {
			toronto = c
		}
	}
	require.NotNil(t, toronto)
	require.Equal(t, []int64{200, 100025096}, toronto.MasterGeoIDs)
}

func TestGeoCandidates_FilterByMaster(t *testing.T) {
	t.Parallel()

	repo := database.NewGeoRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.UpsertCandidates(ctx,
		[]domain.GeoCandidate{{PPID: 1, Name: "A"}}, 10))
	require.NoError(t, repo.UpsertCandidates(ctx,
		[]domain.GeoCandidate{{PPID: 2, Name: "B"}}, 20))

	list, err := repo.ListCandidates(ctx, int64Ptr(10))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(1), list[0].PPID)
}

func TestGeoCandidates_RenameAndDelete(t *testing.T) {
	t.Parallel()

	repo := database.NewGeoRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.UpsertCandidates(ctx,
		[]domain.GeoCandidate{{PPID: 1, Name: "City of Toronto"}}, 10))

	found, err := repo.UpdateCandidateName(ctx, 1, "Toronto")
	require.NoError(t, err)
	require.True(t, found)

	list, err := repo.ListCandidates(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, "Toronto", list[0].DisplayName())

	// A later platform sighting must not clobber the corrected name.
	require.NoError(t, repo.UpsertCandidates(ctx,
		[]domain.GeoCandidate{{PPID: 1, Name: "City of Toronto Metro"}}, 10))
	list, err = repo.ListCandidates(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, "Toronto", list[0].DisplayName())

	found, err = repo.UpdateCandidateName(ctx, 404, "Ghost")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, repo.DeleteCandidate(ctx, 1))
	list, err = repo.ListCandidates(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestGeoCandidates_DeleteAll(t *testing.T) {
	t.Parallel()

	repo := database.NewGeoRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.UpsertCandidates(ctx,
		[]domain.GeoCandidate{{PPID: 1, Name: "A"}, {PPID: 2, Name: "B"}}, 10))
	require.NoError(t, repo.DeleteAllCandidates(ctx))

	list, err := repo.ListCandidates(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, list)
}
