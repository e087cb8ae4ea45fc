package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jobsift/jobsift/internal/domain"
)

// DismissedRepository handles database operations for the dismissed-job ledger.
type DismissedRepository struct {
	db *sqlx.DB
}

// NewDismissedRepository creates a new dismissed-job repository.
func NewDismissedRepository(db *sqlx.DB) *DismissedRepository {
	return &DismissedRepository{db: db}
}

// Upsert inserts or updates a ledger row keyed by job id. A later dismissal
// with the same id updates reason, dismissed_at and run_id in place; it never
// creates a second row.
func (r *DismissedRepository) Upsert(ctx context.Context, rec *domain.DismissedJobRecord) error {
	if rec.DismissedAt.IsZero() {
		rec.DismissedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO dismissed_jobs
			(job_id, job_url, title, company, company_link, location,
			 reason, is_reposted, listed_at, dismissed_at, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			reason = excluded.reason,
			dismissed_at = excluded.dismissed_at,
			run_id = excluded.run_id
	`

	_, err := r.db.ExecContext(
		ctx, query,
		rec.JobID, rec.URL, rec.Title, rec.Company, rec.CompanyLink, rec.Location,
		rec.Reason, rec.Reposted, rec.ListedAt, rec.DismissedAt, rec.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert dismissed job: %w", err)
	}

	return nil
}

// IsDismissed reports whether a job id is present in the ledger.
func (r *DismissedRepository) IsDismissed(ctx context.Context, jobID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(1) FROM dismissed_jobs WHERE job_id = ?`, jobID)
	if err != nil {
		return false, fmt.Errorf("failed to check dismissed job: %w", err)
	}
	return count > 0, nil
}

// Delete removes a ledger row. Deletion is always an explicit user action;
// the pipeline never deletes records.
func (r *DismissedRepository) Delete(ctx context.Context, jobID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM dismissed_jobs WHERE job_id = ?`, jobID)
	if err != nil {
		return false, fmt.Errorf("failed to delete dismissed job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// List returns ledger rows ordered by dismissal time, newest first.
func (r *DismissedRepository) List(ctx context.Context, offset, limit int) ([]*domain.DismissedJobRecord, error) {
	var rows []*domain.DismissedJobRecord
	err := r.db.SelectContext(ctx, &rows, `
		SELECT job_id, job_url, title, company, company_link, location,
		       reason, is_reposted, listed_at, dismissed_at, run_id
		FROM dismissed_jobs
		ORDER BY dismissed_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list dismissed jobs: %w", err)
	}
	if rows == nil {
		rows = []*domain.DismissedJobRecord{}
	}
	return rows, nil
}

// ListByRun returns the ledger rows recorded during one run.
func (r *DismissedRepository) ListByRun(ctx context.Context, runID string) ([]*domain.DismissedJobRecord, error) {
	var rows []*domain.DismissedJobRecord
	err := r.db.SelectContext(ctx, &rows, `
		SELECT job_id, job_url, title, company, company_link, location,
		       reason, is_reposted, listed_at, dismissed_at, run_id
		FROM dismissed_jobs
		WHERE run_id = ?
		ORDER BY dismissed_at ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dismissed jobs for run: %w", err)
	}
	if rows == nil {
		rows = []*domain.DismissedJobRecord{}
	}
	return rows, nil
}

// Count returns the total number of ledger rows.
func (r *DismissedRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM dismissed_jobs`); err != nil {
		return 0, fmt.Errorf("failed to count dismissed jobs: %w", err)
	}
	return count, nil
}

// SearchByTitle returns ledger rows whose title contains the given substring,
// case-insensitively. Used by the undo-by-title workflow.
func (r *DismissedRepository) SearchByTitle(ctx context.Context, fragment string) ([]*domain.DismissedJobRecord, error) {
	var rows []*domain.DismissedJobRecord
	err := r.db.SelectContext(ctx, &rows, `
		SELECT job_id, job_url, title, company, company_link, location,
		       reason, is_reposted, listed_at, dismissed_at, run_id
		FROM dismissed_jobs
		WHERE title LIKE '%' || ? || '%'
		ORDER BY dismissed_at DESC
	`, fragment)
	if err != nil {
		return nil, fmt.Errorf("failed to search dismissed jobs: %w", err)
	}
	if rows == nil {
		rows = []*domain.DismissedJobRecord{}
	}
	return rows, nil
}

// UniqueCompanyLinks returns every distinct non-empty company link observed
// in the ledger. Feeds the company blocklist optimizer.
func (r *DismissedRepository) UniqueCompanyLinks(ctx context.Context) ([]string, error) {
	var links []string
	err := r.db.SelectContext(ctx, &links, `
		SELECT DISTINCT company_link FROM dismissed_jobs
		WHERE company_link != ''
		ORDER BY company_link
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list company links: %w", err)
	}
	return links, nil
}
