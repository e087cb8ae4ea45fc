package domain

import (
	"fmt"
	"time"
)

// Time range filter values accepted in search parameters.
const (
	TimeRangeAll   = "all"
	TimeRangeDay   = "24h"
	TimeRangeWeek  = "week"
	TimeRangeMonth = "month"
)

// Workplace type codes used by the platform.
const (
	WorkplaceOnSite = 1
	WorkplaceRemote = 2
	WorkplaceHybrid = 3
)

// ValidationError reports a malformed configuration value. It is rejected
// synchronously, before any run state is created.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// SearchParams describe one discovery run.
type SearchParams struct {
	Keywords       string `json:"keywords"`
	Location       string `json:"location"`
	TimeRange      string `json:"time_range"`
	Limit          int    `json:"limit"`
	EasyApply      bool   `json:"easy_apply"`
	Relevant       bool   `json:"relevant"`
	WorkplaceTypes []int  `json:"workplace_type"`
}

// Validate checks the parameters and returns a *ValidationError on the first
// problem found.
func (p *SearchParams) Validate() error {
	switch p.TimeRange {
	case "", TimeRangeAll, TimeRangeDay, TimeRangeWeek, TimeRangeMonth:
	default:
		return &ValidationError{Field: "time_range", Message: fmt.Sprintf("unknown value %q", p.TimeRange)}
	}
	if p.Limit < 0 {
		return &ValidationError{Field: "limit", Message: "must be zero or positive"}
	}
	for _, wt := range p.WorkplaceTypes {
		if wt < WorkplaceOnSite || wt > WorkplaceHybrid {
			return &ValidationError{Field: "workplace_type", Message: fmt.Sprintf("unknown code %d", wt)}
		}
	}
	return nil
}

// SavedSearch is a user-defined search template, independent of run state.
type SavedSearch struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Keywords       string    `db:"keywords" json:"keywords"`
	Location       string    `db:"location" json:"location"`
	TimeRange      string    `db:"time_range" json:"time_range"`
	JobLimit       int       `db:"job_limit" json:"job_limit"`
	EasyApply      bool      `db:"easy_apply" json:"easy_apply"`
	Relevant       bool      `db:"relevant" json:"relevant"`
	WorkplaceTypes []int     `db:"-" json:"workplace_type"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Params converts the saved search into run parameters.
func (s *SavedSearch) Params() SearchParams {
	return SearchParams{
		Keywords:       s.Keywords,
		Location:       s.Location,
		TimeRange:      s.TimeRange,
		Limit:          s.JobLimit,
		EasyApply:      s.EasyApply,
		Relevant:       s.Relevant,
		WorkplaceTypes: s.WorkplaceTypes,
	}
}
