package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jobsift/jobsift/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SearchRepository handles database operations for saved searches, search
// runs and their log entries.
type SearchRepository struct {
	db *sqlx.DB
}

// NewSearchRepository creates a new search repository.
func NewSearchRepository(db *sqlx.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// savedSearchRow is the scan target for saved searches; workplace types are
// stored as a comma-separated list.
type savedSearchRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	Keywords       string    `db:"keywords"`
	Location       string    `db:"location"`
	TimeRange      string    `db:"time_range"`
	JobLimit       int       `db:"job_limit"`
	EasyApply      bool      `db:"easy_apply"`
	Relevant       bool      `db:"relevant"`
	WorkplaceTypes string    `db:"workplace_types"`
	CreatedAt      time.Time `db:"created_at"`
}

func (row *savedSearchRow) toDomain() (*domain.SavedSearch, error) {
	types, err := parseWorkplaceTypes(row.WorkplaceTypes)
	if err != nil {
		return nil, err
	}
	return &domain.SavedSearch{
		ID:             row.ID,
		Name:           row.Name,
		Keywords:       row.Keywords,
		Location:       row.Location,
		TimeRange:      row.TimeRange,
		JobLimit:       row.JobLimit,
		EasyApply:      row.EasyApply,
		Relevant:       row.Relevant,
		WorkplaceTypes: types,
		CreatedAt:      row.CreatedAt,
	}, nil
}

// CreateSavedSearch inserts a saved search. CreatedAt is stamped when zero.
func (r *SearchRepository) CreateSavedSearch(ctx context.Context, s *domain.SavedSearch) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO saved_searches
			(id, name, keywords, location, time_range, job_limit,
			 easy_apply, relevant, workplace_types, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Name, s.Keywords, s.Location, s.TimeRange, s.JobLimit,
		s.EasyApply, s.Relevant, formatWorkplaceTypes(s.WorkplaceTypes), s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create saved search: %w", err)
	}
	return nil
}

// UpdateSavedSearch replaces all mutable fields of a saved search.
func (r *SearchRepository) UpdateSavedSearch(ctx context.Context, s *domain.SavedSearch) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE saved_searches
		SET name = ?, keywords = ?, location = ?, time_range = ?,
		    job_limit = ?, easy_apply = ?, relevant = ?, workplace_types = ?
		WHERE id = ?
	`, s.Name, s.Keywords, s.Location, s.TimeRange,
		s.JobLimit, s.EasyApply, s.Relevant, formatWorkplaceTypes(s.WorkplaceTypes), s.ID)
	if err != nil {
		return fmt.Errorf("failed to update saved search: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("saved search %s: %w", s.ID, ErrNotFound)
	}
	return nil
}

// GetSavedSearch returns one saved search by id.
func (r *SearchRepository) GetSavedSearch(ctx context.Context, id string) (*domain.SavedSearch, error) {
	var row savedSearchRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, name, keywords, location, time_range, job_limit,
		       easy_apply, relevant, workplace_types, created_at
		FROM saved_searches WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("saved search %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saved search: %w", err)
	}
	return row.toDomain()
}

// GetSavedSearchByName returns one saved search by its user-visible name.
func (r *SearchRepository) GetSavedSearchByName(ctx context.Context, name string) (*domain.SavedSearch, error) {
	var row savedSearchRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, name, keywords, location, time_range, job_limit,
		       easy_apply, relevant, workplace_types, created_at
		FROM saved_searches WHERE name = ?
	`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("saved search %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saved search: %w", err)
	}
	return row.toDomain()
}

// ListSavedSearches returns all saved searches, oldest first.
func (r *SearchRepository) ListSavedSearches(ctx context.Context) ([]*domain.SavedSearch, error) {
	var rows []savedSearchRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, keywords, location, time_range, job_limit,
		       easy_apply, relevant, workplace_types, created_at
		FROM saved_searches ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved searches: %w", err)
	}
	searches := make([]*domain.SavedSearch, 0, len(rows))
	for i := range rows {
		s, convErr := rows[i].toDomain()
		if convErr != nil {
			return nil, convErr
		}
		searches = append(searches, s)
	}
	return searches, nil
}

// DeleteSavedSearch removes a saved search by id.
func (r *SearchRepository) DeleteSavedSearch(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_searches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete saved search: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("saved search %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateRun inserts a new search run row.
func (r *SearchRepository) CreateRun(ctx context.Context, run *domain.SearchRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO search_runs
			(id, keywords, location, time_range, status, started_at,
			 completed_at, total_found, total_dismissed, total_skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Keywords, run.Location, run.TimeRange, run.Status, run.StartedAt,
		run.CompletedAt, run.TotalFound, run.TotalDismissed, run.TotalSkipped)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// UpdateRun persists the run's status, counters and completion time.
func (r *SearchRepository) UpdateRun(ctx context.Context, run *domain.SearchRun) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE search_runs
		SET status = ?, completed_at = ?,
		    total_found = ?, total_dismissed = ?, total_skipped = ?
		WHERE id = ?
	`, run.Status, run.CompletedAt,
		run.TotalFound, run.TotalDismissed, run.TotalSkipped, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// GetRun returns one run by id. Run rows are never deleted on failure, so a
// terminal run stays queryable for postmortem.
func (r *SearchRepository) GetRun(ctx context.Context, id string) (*domain.SearchRun, error) {
	var run domain.SearchRun
	err := r.db.GetContext(ctx, &run, `
		SELECT id, keywords, location, time_range, status, started_at,
		       completed_at, total_found, total_dismissed, total_skipped
		FROM search_runs WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns runs newest-first plus the total run count.
func (r *SearchRepository) ListRuns(ctx context.Context, offset, limit int) ([]*domain.SearchRun, int, error) {
	var runs []*domain.SearchRun
	err := r.db.SelectContext(ctx, &runs, `
		SELECT id, keywords, location, time_range, status, started_at,
		       completed_at, total_found, total_dismissed, total_skipped
		FROM search_runs
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list runs: %w", err)
	}
	if runs == nil {
		runs = []*domain.SearchRun{}
	}

	var total int
	if err = r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM search_runs`); err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return runs, total, nil
}

// DeleteRun removes a run and its log entries. Explicit user action only.
func (r *SearchRepository) DeleteRun(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin run delete: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM run_logs WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run logs: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM search_runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run delete: %w", err)
	}
	return nil
}

// AppendLog appends one log entry to a run. Entries are append-only and
// ordered by insertion.
func (r *SearchRepository) AppendLog(ctx context.Context, entry *domain.RunLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO run_logs (run_id, message, level, created_at)
		VALUES (?, ?, ?, ?)
	`, entry.RunID, entry.Message, entry.Level, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append run log: %w", err)
	}
	return nil
}

// GetLogs returns a run's log entries in insertion order.
func (r *SearchRepository) GetLogs(ctx context.Context, runID string) ([]*domain.RunLogEntry, error) {
	var entries []*domain.RunLogEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, run_id, message, level, created_at
		FROM run_logs
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run logs: %w", err)
	}
	if entries == nil {
		entries = []*domain.RunLogEntry{}
	}
	return entries, nil
}

// formatWorkplaceTypes encodes workplace type codes as "1,2,3".
func formatWorkplaceTypes(types []int) string {
	if len(types) == 0 {
		return ""
	}
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = strconv.Itoa(t)
	}
	return strings.Join(parts, ",")
}

// parseWorkplaceTypes decodes a "1,2,3" list.
func parseWorkplaceTypes(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	types := make([]int, 0, len(parts))
	for _, p := range parts {
		t, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("failed to parse workplace type %q: %w", p, err)
		}
		types = append(types, t)
	}
	return types, nil
}
