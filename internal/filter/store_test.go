package filter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/filter"
)

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	store := filter.NewFileStore(filepath.Join(t.TempDir(), "absent.txt"))
	entries, err := store.Entries()
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "blocklist.txt")
	store := filter.NewFileStore(path)

	require.NoError(t, store.Replace([]string{"Engineer", "Recruiter"}))

	entries, err := store.Entries()
	require.NoError(t, err)
	require.Equal(t, []string{"Engineer", "Recruiter"}, entries)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Engineer\nRecruiter\n", string(data))
}

func TestFileStore_Append(t *testing.T) {
	t.Parallel()

	store := filter.NewFileStore(filepath.Join(t.TempDir(), "blocklist.txt"))
	require.NoError(t, store.Replace([]string{"Engineer"}))

	added, err := store.Append("Recruiter")
	require.NoError(t, err)
	require.True(t, added)

	// Case-insensitive duplicate is rejected.
	added, err = store.Append("engineer")
	require.NoError(t, err)
	require.False(t, added)

	entries, err := store.Entries()
	require.NoError(t, err)
	require.Equal(t, []string{"Engineer", "Recruiter"}, entries)
}

func TestFileStore_Remove(t *testing.T) {
	t.Parallel()

	store := filter.NewFileStore(filepath.Join(t.TempDir(), "blocklist.txt"))
	require.NoError(t, store.Replace([]string{"Engineer", "Recruiter"}))

	removed, err := store.Remove("ENGINEER")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = store.Remove("Ghost")
	require.NoError(t, err)
	require.False(t, removed)

	entries, err := store.Entries()
	require.NoError(t, err)
	require.Equal(t, []string{"Recruiter"}, entries)
}
