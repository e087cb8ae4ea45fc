package filter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/filter"
)

func TestValidateBlocklist(t *testing.T) {
	t.Parallel()

	lines := []string{
		"Engineer",
		"  Recruiter",
		"",
		"engineer",
		"Sales ",
	}

	report := filter.ValidateBlocklist(lines)
	require.False(t, report.Clean())

	// Line numbers are 1-based and refer to the raw file.
	require.Len(t, report.Duplicates, 1)
	require.Equal(t, 4, report.Duplicates[0].Line)
	require.Equal(t, "engineer", report.Duplicates[0].Entry)

	require.Len(t, report.WhitespaceIssues, 2)
	require.Equal(t, 2, report.WhitespaceIssues[0].Line)
	require.Equal(t, 5, report.WhitespaceIssues[1].Line)
}

func TestValidateBlocklist_Clean(t *testing.T) {
	t.Parallel()

	report := filter.ValidateBlocklist([]string{"Engineer", "Recruiter", ""})
	require.True(t, report.Clean())
}

func TestOptimizeTitles(t *testing.T) {
	t.Parallel()

	kept, dropped, err := filter.OptimizeTitles([]string{
		"Engineer",
		"Senior Engineer",
		"QA",
	})
	require.NoError(t, err)

	// "Senior Engineer" can never fire before "Engineer" does.
	require.Equal(t, []string{"Engineer", "QA"}, kept)
	require.Equal(t, []string{"Senior Engineer"}, dropped)
}

func TestOptimizeTitles_WordBoundary(t *testing.T) {
	t.Parallel()

	// "QA" does not subsume "HVAC QA-adjacent" style entries unless it
	// matches on a word boundary inside them.
	kept, dropped, err := filter.OptimizeTitles([]string{"QA", "HVAC"})
	require.NoError(t, err)
	require.Equal(t, []string{"QA", "HVAC"}, kept)
	require.Empty(t, dropped)
}

func TestOptimizeTitles_KeepsInputOrder(t *testing.T) {
	t.Parallel()

	kept, dropped, err := filter.OptimizeTitles([]string{
		"Zoo Keeper",
		"Analyst",
		"Zoo",
		"Data Analyst",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Analyst", "Zoo"}, kept)
	require.ElementsMatch(t, []string{"Zoo Keeper", "Data Analyst"}, dropped)
}

func TestOptimizeCompanies(t *testing.T) {
	t.Parallel()

	seen, unseen := filter.OptimizeCompanies(
		[]string{
			"https://www.linkedin.com/company/acme",
			"linkedin.com/company/ghost",
		},
		[]string{"https://www.linkedin.com/company/acme/life"},
	)
	require.Equal(t, []string{"https://www.linkedin.com/company/acme"}, seen)
	require.Equal(t, []string{"linkedin.com/company/ghost"}, unseen)
}
