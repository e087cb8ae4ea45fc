// Package filter decides which discovered jobs get dismissed and records
// every dismissal in the persistent ledger.
package filter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jobsift/jobsift/internal/domain"
	"github.com/jobsift/jobsift/internal/logger"
)

// Ledger is the dismissal persistence surface the engine needs.
type Ledger interface {
	IsDismissed(ctx context.Context, jobID string) (bool, error)
	Upsert(ctx context.Context, rec *domain.DismissedJobRecord) error
}

// Verdict is a failed filter check: the reason plus the entry or job that
// triggered it.
type Verdict struct {
	Reason domain.DismissReason
	// Match is the blocklist entry, duplicate job id, or marker that fired.
	Match string
}

// titleRule is one compiled title blocklist entry.
type titleRule struct {
	raw string
	re  *regexp.Regexp
}

// Engine applies the dismissal checks in a fixed order. Cheap checks run
// against the stub before any detail fetch; description deduplication and
// the applied check run after. The duplicate index is scoped to one run.
type Engine struct {
	ledger Ledger
	log    logger.Interface

	titles    []titleRule
	companies map[string]string

	runID string
	// seen maps a description hash to the job id that introduced it.
	seen map[string]string
}

// NewEngine compiles the blocklists into an engine. Title entries match on
// word boundaries: "QA" fires on "QA Engineer" but not on "HVAC Technician".
func NewEngine(ledger Ledger, titleBlocklist, companyBlocklist []string, log logger.Interface) (*Engine, error) {
	e := &Engine{
		ledger:    ledger,
		log:       log,
		companies: make(map[string]string, len(companyBlocklist)),
		seen:      make(map[string]string),
	}
	for _, entry := range titleBlocklist {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		re, err := compileTitlePattern(entry)
		if err != nil {
			return nil, fmt.Errorf("bad title blocklist entry %q: %w", entry, err)
		}
		e.titles = append(e.titles, titleRule{raw: entry, re: re})
	}
	for _, entry := range companyBlocklist {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		e.companies[NormalizeCompanyLink(entry)] = entry
	}
	return e, nil
}

// BeginRun scopes the engine to a run: subsequent dismissals carry the run
// id and the duplicate-description index starts empty.
func (e *Engine) BeginRun(runID string) {
	e.runID = runID
	e.seen = make(map[string]string)
}

// CheckStub runs the pre-detail checks in order: ledger membership, title
// blocklist, company blocklist. A nil verdict means the stub survived and
// is worth a detail fetch.
func (e *Engine) CheckStub(ctx context.Context, stub *domain.JobStub) (*Verdict, error) {
	dismissed, err := e.ledger.IsDismissed(ctx, stub.JobID)
	if err != nil {
		return nil, err
	}
	if dismissed {
		return &Verdict{Reason: domain.ReasonAlreadyDismissed, Match: stub.JobID}, nil
	}

	for _, rule := range e.titles {
		if rule.re.MatchString(stub.Title) {
			return &Verdict{Reason: domain.ReasonBlocklistTitle, Match: rule.raw}, nil
		}
	}

	if stub.CompanyLink != "" {
		if entry, ok := e.companies[NormalizeCompanyLink(stub.CompanyLink)]; ok {
			return &Verdict{Reason: domain.ReasonBlocklistCompany, Match: entry}, nil
		}
	}

	return nil, nil
}

// CheckDetail runs the post-detail checks: description deduplication within
// the current run, then the applied marker.
func (e *Engine) CheckDetail(detail *domain.JobDetail) *Verdict {
	if detail.Description != "" {
		hash := descriptionHash(detail.Description)
		if firstID, ok := e.seen[hash]; ok {
			return &Verdict{Reason: domain.ReasonDuplicateDescription, Match: firstID}
		}
		e.seen[hash] = detail.JobID
	}

	if detail.Applied {
		return &Verdict{Reason: domain.ReasonApplied, Match: detail.JobID}
	}

	return nil
}

// Dismiss records a verdict in the ledger. Re-dismissal of a known job id
// updates the reason, timestamp and run id in place.
func (e *Engine) Dismiss(ctx context.Context, stub *domain.JobStub, verdict *Verdict) error {
	rec := &domain.DismissedJobRecord{
		JobID:       stub.JobID,
		URL:         stub.URL,
		Title:       stub.Title,
		Company:     stub.Company,
		CompanyLink: stub.CompanyLink,
		Location:    stub.Location,
		Reason:      verdict.Reason,
		Reposted:    stub.Reposted,
		ListedAt:    stub.PostedAt,
		DismissedAt: time.Now().UTC(),
		RunID:       e.runID,
	}
	if err := e.ledger.Upsert(ctx, rec); err != nil {
		return err
	}
	e.log.Debug("dismissed job",
		"job_id", stub.JobID,
		"reason", string(verdict.Reason),
		"match", verdict.Match)
	return nil
}

// compileTitlePattern builds a case-insensitive word-boundary matcher for a
// blocklist phrase. Internal whitespace is flexible.
func compileTitlePattern(entry string) (*regexp.Regexp, error) {
	words := strings.Fields(entry)
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.Compile(`(?i)\b` + strings.Join(quoted, `\s+`) + `\b`)
}

// NormalizeCompanyLink canonicalizes a company page URL for exact-equality
// comparison: scheme, www prefix, trailing slash and the "/life" subpage
// are all insignificant.
func NormalizeCompanyLink(link string) string {
	link = strings.TrimSpace(strings.ToLower(link))
	link = strings.TrimPrefix(link, "https://")
	link = strings.TrimPrefix(link, "http://")
	link = strings.TrimPrefix(link, "www.")
	link = strings.TrimSuffix(link, "/")
	link = strings.TrimSuffix(link, "/life")
	return strings.TrimSuffix(link, "/")
}

// descriptionHash fingerprints a description for duplicate detection.
// Whitespace runs are collapsed first so formatting differences between
// postings of the same text do not defeat the match.
func descriptionHash(description string) string {
	collapsed := strings.Join(strings.Fields(description), " ")
	sum := sha256.Sum256([]byte(strings.ToLower(collapsed)))
	return hex.EncodeToString(sum[:])
}
