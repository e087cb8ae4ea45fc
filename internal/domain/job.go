// Package domain provides domain models used across the application.
package domain

import (
	"time"
)

// JobStub is the lightweight job summary returned by a search-results page.
// Stubs exist only during a run pass and are persisted only when dismissed.
type JobStub struct {
	JobID       string     `json:"job_id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	CompanyLink string     `json:"company_link"`
	Location    string     `json:"location_text"`
	PostedAt    *time.Time `json:"posted_time,omitempty"`
	URL         string     `json:"url"`

	// Platform-native markers parsed from the job card.
	DismissURN        string `json:"dismiss_urn,omitempty"`
	Reposted          bool   `json:"is_reposted"`
	EasyApply         bool   `json:"is_easy_apply"`
	EarlyApplicant    bool   `json:"is_early_applicant"`
	ActivelyReviewing bool   `json:"is_actively_reviewing"`
	Applied           bool   `json:"is_applied"`
	Viewed            bool   `json:"is_viewed"`
}

// JobDetail extends a stub with fields fetched lazily from the detail endpoint.
type JobDetail struct {
	JobStub

	Description    string `json:"description"`
	SeniorityLevel string `json:"seniority_level,omitempty"`
	Industry       string `json:"industry,omitempty"`
	EmploymentType string `json:"employment_type,omitempty"`
	JobFunction    string `json:"job_function,omitempty"`
}
