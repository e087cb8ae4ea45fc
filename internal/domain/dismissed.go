package domain

import (
	"time"
)

// DismissReason classifies why a job was dismissed.
type DismissReason string

const (
	// ReasonAlreadyDismissed marks a job whose id is already in the ledger.
	ReasonAlreadyDismissed DismissReason = "already_dismissed"
	// ReasonBlocklistTitle marks a title blocklist match.
	ReasonBlocklistTitle DismissReason = "blocklist_title"
	// ReasonBlocklistCompany marks a company blocklist match.
	ReasonBlocklistCompany DismissReason = "blocklist_company"
	// ReasonDuplicateDescription marks a description identical to one seen earlier in the run.
	ReasonDuplicateDescription DismissReason = "duplicate_description"
	// ReasonApplied marks a job the user already applied to.
	ReasonApplied DismissReason = "applied"
)

// DismissedJobRecord is a durable row in the dismissed-job ledger.
// At most one record exists per job id; re-dismissal updates the row in place.
type DismissedJobRecord struct {
	JobID       string        `db:"job_id" json:"job_id"`
	URL         string        `db:"job_url" json:"url"`
	Title       string        `db:"title" json:"title"`
	Company     string        `db:"company" json:"company"`
	CompanyLink string        `db:"company_link" json:"company_link"`
	Location    string        `db:"location" json:"location"`
	Reason      DismissReason `db:"reason" json:"reason"`
	Reposted    bool          `db:"is_reposted" json:"is_reposted"`
	ListedAt    *time.Time    `db:"listed_at" json:"listed_at,omitempty"`
	DismissedAt time.Time     `db:"dismissed_at" json:"dismissed_at"`
	RunID       string        `db:"run_id" json:"run_id"`
}
