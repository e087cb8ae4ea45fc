package linkedin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobsift/jobsift/internal/domain"
)

const jobViewURL = "https://www.linkedin.com/jobs/view"

// FetchJobDetail loads the full posting page for a stub and fills in the
// description and criteria fields. The stub itself is copied unchanged.
func (c *Client) FetchJobDetail(ctx context.Context, stub domain.JobStub) (*domain.JobDetail, error) {
	fullURL := fmt.Sprintf("%s/%s/", jobViewURL, stub.JobID)

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := c.jobLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		doc, err := c.fetchDocument(ctx, fullURL)
		if err == nil {
			detail := &domain.JobDetail{JobStub: stub}
			parseJobDetail(doc, detail)
			return detail, nil
		}
		lastErr = err
		c.log.Warn("job detail fetch failed",
			"job_id", stub.JobID,
			"attempt", attempt,
			"error", err)
		if attempt < c.attempts {
			if err := sleepCtx(ctx, c.backoff*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}
	}
	return nil, &TransportError{URL: fullURL, Attempts: c.attempts, Err: lastErr}
}

func (c *Client) fetchDocument(ctx context.Context, fullURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Cookie", c.cookieHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyBytes))
		return nil, &statusError{Code: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return doc, nil
}

// parseJobDetail fills the description and job criteria from the posting
// page markup. Missing sections leave the fields empty.
func parseJobDetail(doc *goquery.Document, detail *domain.JobDetail) {
	desc := doc.Find("div.description__text section > div")
	if desc.Length() == 0 {
		desc = doc.Find("div.show-more-less-html__markup")
	}
	detail.Description = normalizeWhitespace(desc.First().Text())

	doc.Find("ul.description__job-criteria-list > li").Each(func(_ int, li *goquery.Selection) {
		header := normalizeWhitespace(li.Find("h3").First().Text())
		value := normalizeWhitespace(li.Find("span").First().Text())
		if value == "" {
			return
		}
		switch strings.ToLower(header) {
		case "seniority level":
			detail.SeniorityLevel = value
		case "employment type":
			detail.EmploymentType = value
		case "job function":
			detail.JobFunction = value
		case "industries", "industry":
			detail.Industry = value
		}
	})
}

// normalizeWhitespace collapses runs of whitespace into single spaces,
// keeping blank-line paragraph breaks.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
