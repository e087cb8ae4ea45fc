package linkedin

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/domain"
)

const jobPageFixture = `<html><body>
<div class="description__text description__text--rich">
  <section>
    <div class="show-more-less-html__markup">
      <p>We build   pipelines.</p>
      <p></p>
      <p>You write Go.</p>
    </div>
  </section>
</div>
<ul class="description__job-criteria-list">
  <li><h3>Seniority level</h3><span>Mid-Senior level</span></li>
  <li><h3>Employment type</h3><span>Full-time</span></li>
  <li><h3>Job function</h3><span>Engineering</span></li>
  <li><h3>Industries</h3><span>Software Development</span></li>
</ul>
</body></html>`

func TestParseJobDetail(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(jobPageFixture))
	require.NoError(t, err)

	detail := &domain.JobDetail{JobStub: domain.JobStub{JobID: "1"}}
	parseJobDetail(doc, detail)

	require.Equal(t, "We build pipelines.\n\nYou write Go.", detail.Description)
	require.Equal(t, "Mid-Senior level", detail.SeniorityLevel)
	require.Equal(t, "Full-time", detail.EmploymentType)
	require.Equal(t, "Engineering", detail.JobFunction)
	require.Equal(t, "Software Development", detail.Industry)
}

func TestParseJobDetail_MissingSections(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	require.NoError(t, err)

	detail := &domain.JobDetail{}
	parseJobDetail(doc, detail)
	require.Empty(t, detail.Description)
	require.Empty(t, detail.SeniorityLevel)
}

func TestNormalizeWhitespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapse runs", "a   b\tc", "a b c"},
		{"paragraph break kept", "a\n\n\nb", "a\n\nb"},
		{"leading blanks dropped", "\n\n a", "a"},
		{"trailing blanks dropped", "a \n\n ", "a"},
		{"empty", "   \n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := normalizeWhitespace(tt.in); got != tt.want {
				t.Fatalf("normalizeWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
