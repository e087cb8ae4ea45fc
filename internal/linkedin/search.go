package linkedin

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jobsift/jobsift/internal/domain"
)

// searchDecorationID identifies the job card collection decoration.
const searchDecorationID = "com.linkedin.voyager.dash.deco.jobs.search.JobSearchCardsCollectionLite-88"

// Voyager time-posted range codes, in seconds.
const (
	timeRangeDayCode   = "r86400"
	timeRangeWeekCode  = "r604800"
	timeRangeMonthCode = "r2592000"
)

// SearchQuery describes one paginated job search.
type SearchQuery struct {
	Keywords  string
	TimeRange string
	EasyApply bool
	// Relevant sorts by relevance instead of most recent.
	Relevant       bool
	WorkplaceTypes []int

	// GeoID scopes the search. When Refined is set the id is a populated
	// place passed as a secondary filter; otherwise it is a master id
	// passed as the primary location union.
	GeoID   *int64
	Refined bool
	// Location is the raw location text, used as a keyword fallback when
	// no geo id is available.
	Location string
}

// SearchPage is one page of job stubs.
type SearchPage struct {
	Stubs []domain.JobStub
	Total int
}

// TimeRangeCode maps a user-facing time range to the platform's code.
// Unknown or "all" ranges map to the empty string (no filter).
func TimeRangeCode(timeRange string) string {
	switch timeRange {
	case domain.TimeRangeDay:
		return timeRangeDayCode
	case domain.TimeRangeWeek:
		return timeRangeWeekCode
	case domain.TimeRangeMonth:
		return timeRangeMonthCode
	default:
		return ""
	}
}

// SearchJobs fetches one result page starting at the given offset.
func (c *Client) SearchJobs(ctx context.Context, q SearchQuery, start int) (*SearchPage, error) {
	fullURL := c.buildSearchURL(q, start)

	var resp struct {
		Data struct {
			Paging struct {
				Total int `json:"total"`
			} `json:"paging"`
			Elements []struct {
				JobCardUnion struct {
					JobPostingCard string `json:"*jobPostingCard"`
				} `json:"jobCardUnion"`
			} `json:"elements"`
		} `json:"data"`
		Included []includedEntity `json:"included"`
	}
	if err := c.do(ctx, c.pageLimiter, http.MethodGet, fullURL, nil, &resp); err != nil {
		return nil, err
	}

	entities := buildEntityMap(resp.Included)
	page := &SearchPage{Total: resp.Data.Paging.Total}

	for _, el := range resp.Data.Elements {
		cardURN := el.JobCardUnion.JobPostingCard
		if cardURN == "" {
			continue
		}
		card, ok := entities[cardURN]
		if !ok {
			continue
		}
		if stub, ok := parseJobCard(card, entities); ok {
			page.Stubs = append(page.Stubs, stub)
		}
	}
	return page, nil
}

// buildSearchURL assembles the jobCards request. The query parameter is a
// Rest.li structure; only embedded free-text values are percent-encoded.
func (c *Client) buildSearchURL(q SearchQuery, start int) string {
	sortBy := "DD" // most recent
	if q.Relevant {
		sortBy = "R"
	}

	filters := []string{fmt.Sprintf("sortBy:List(%s)", sortBy)}
	if code := TimeRangeCode(q.TimeRange); code != "" {
		filters = append(filters, fmt.Sprintf("timePostedRange:List(%s)", code))
	}
	if len(q.WorkplaceTypes) > 0 {
		codes := make([]string, len(q.WorkplaceTypes))
		for i, wt := range q.WorkplaceTypes {
			codes[i] = strconv.Itoa(wt)
		}
		filters = append(filters, fmt.Sprintf("workplaceType:List(%s)", strings.Join(codes, ",")))
	}
	if q.EasyApply {
		filters = append(filters, "applyWithLinkedin:List(true)")
	}
	if q.GeoID != nil && q.Refined {
		filters = append(filters, fmt.Sprintf("populatedPlace:List(%d)", *q.GeoID))
	}

	queryParts := []string{
		"origin:JOB_SEARCH_PAGE_JOB_FILTER",
		"spellCorrectionEnabled:true",
	}
	if q.GeoID != nil && !q.Refined {
		queryParts = append(queryParts, fmt.Sprintf("locationUnion:(geoId:%d)", *q.GeoID))
	}
	queryParts = append(queryParts, fmt.Sprintf("selectedFilters:(%s)", strings.Join(filters, ",")))
	if q.Keywords != "" {
		queryParts = append(queryParts, "keywords:"+escapeQueryValue(q.Keywords))
	} else if q.GeoID == nil && q.Location != "" {
		queryParts = append(queryParts, "keywords:"+escapeQueryValue(q.Location))
	}

	return fmt.Sprintf(
		"%s?decorationId=%s&count=%d&q=jobSearch&query=(%s)&servedEventEnabled=false&start=%d",
		jobCardsURL, searchDecorationID, PageSize, strings.Join(queryParts, ","), start,
	)
}

// parseJobCard extracts a stub from a JobPostingCard entity.
func parseJobCard(card *includedEntity, entities entityMap) (domain.JobStub, bool) {
	postingURN := card.JobPostingUrn
	if postingURN == "" {
		postingURN = card.JobPostingRef
	}
	if postingURN == "" {
		return domain.JobStub{}, false
	}
	jobID := postingURN[strings.LastIndexByte(postingURN, ':')+1:]
	if jobID == "" {
		return domain.JobStub{}, false
	}

	stub := domain.JobStub{
		JobID: jobID,
		URL:   "https://www.linkedin.com/jobs/view/" + jobID,
	}
	if card.Title != nil {
		stub.Title = card.Title.Text
	}
	if card.PrimaryDescription != nil {
		stub.Company = card.PrimaryDescription.Text
	}
	if card.SecondaryDescription != nil {
		stub.Location = card.SecondaryDescription.Text
	}
	if card.Logo != nil {
		stub.CompanyLink = strings.TrimSuffix(card.Logo.ActionTarget, "/life")
	}

	if posting, ok := entities[card.JobPostingRef]; ok {
		stub.Reposted = posting.RepostedJob
	}

	for _, item := range card.FooterItems {
		switch item.Type {
		case "EASY_APPLY_TEXT":
			stub.EasyApply = true
		case "APPLICANT_COUNT_TEXT":
			if item.Text != nil && strings.Contains(strings.ToLower(item.Text.Text), "early applicant") {
				stub.EarlyApplicant = true
			}
		case "LISTED_DATE":
			if item.TimeAt != nil {
				listed := time.UnixMilli(*item.TimeAt).UTC()
				stub.PostedAt = &listed
			}
		}
	}

	if card.RelevanceInsight != nil && card.RelevanceInsight.Text != nil {
		if strings.Contains(strings.ToLower(card.RelevanceInsight.Text.Text), "actively reviewing") {
			stub.ActivelyReviewing = true
		}
	}

	if state, ok := entities["urn:li:fsd_jobSeekerJobState:"+jobID]; ok {
		for _, action := range state.JobSeekerJobStateActions {
			switch action.State {
			case "APPLIED":
				stub.Applied = true
			case "VIEWED":
				stub.Viewed = true
			}
		}
	}

	for _, action := range card.PrimaryActionsUnions {
		if action.DismissJobAction != nil {
			stub.DismissURN = action.DismissJobAction.FeedbackUrn
			break
		}
	}

	return stub, true
}
