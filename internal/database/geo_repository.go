package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jobsift/jobsift/internal/domain"
)

// GeoRepository handles database operations for the geo cache and the
// populated-place candidate catalog.
type GeoRepository struct {
	db *sqlx.DB
}

// NewGeoRepository creates a new geo repository.
func NewGeoRepository(db *sqlx.DB) *GeoRepository {
	return &GeoRepository{db: db}
}

// GetCache returns the cache entry for a normalized query, or nil on miss.
func (r *GeoRepository) GetCache(ctx context.Context, query string) (*domain.GeoCacheEntry, error) {
	var entry domain.GeoCacheEntry
	err := r.db.GetContext(ctx, &entry, `
		SELECT location_query, master_geo_id, populated_place_id, updated_at
		FROM geo_cache
		WHERE location_query = ?
	`, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get geo cache entry: %w", err)
	}
	return &entry, nil
}

// UpsertCache writes a cache entry keyed by its normalized query. A refined
// place id equal to the master id is stored as NULL: a refinement that does
// not narrow the regional mask is no refinement at all.
func (r *GeoRepository) UpsertCache(ctx context.Context, entry *domain.GeoCacheEntry) error {
	pp := entry.PopulatedPlaceID
	if pp != nil && *pp == entry.MasterGeoID {
		pp = nil
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO geo_cache (location_query, master_geo_id, populated_place_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(location_query) DO UPDATE SET
			master_geo_id = excluded.master_geo_id,
			populated_place_id = excluded.populated_place_id,
			updated_at = excluded.updated_at
	`, entry.Query, entry.MasterGeoID, pp, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert geo cache entry: %w", err)
	}
	return nil
}

// SetOverride sets or clears the populated-place refinement of an existing
// cache entry without touching the master id. A nil ppID reverts the entry to
// regional-only matching. Returns false when no entry exists for the query.
func (r *GeoRepository) SetOverride(ctx context.Context, query string, ppID *int64) (bool, error) {
	entry, err := r.GetCache(ctx, query)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	if ppID != nil && *ppID == entry.MasterGeoID {
		ppID = nil
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE geo_cache SET populated_place_id = ?, updated_at = ?
		WHERE location_query = ?
	`, ppID, time.Now().UTC(), query)
	if err != nil {
		return false, fmt.Errorf("failed to override geo cache entry: %w", err)
	}
	return true, nil
}

// DeleteCache removes the cache entry for a normalized query.
func (r *GeoRepository) DeleteCache(ctx context.Context, query string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM geo_cache WHERE location_query = ?`, query); err != nil {
		return fmt.Errorf("failed to delete geo cache entry: %w", err)
	}
	return nil
}

// ListCache returns all cache entries ordered by query.
func (r *GeoRepository) ListCache(ctx context.Context) ([]*domain.GeoCacheEntry, error) {
	var entries []*domain.GeoCacheEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT location_query, master_geo_id, populated_place_id, updated_at
		FROM geo_cache
		ORDER BY location_query
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list geo cache: %w", err)
	}
	if entries == nil {
		entries = []*domain.GeoCacheEntry{}
	}
	return entries, nil
}

// UpsertCandidates inserts new candidates and merges masterGeoID into each
// candidate's id set. Repeated sightings are idempotent; a merge never
// removes ids and never clobbers a user-corrected name.
func (r *GeoRepository) UpsertCandidates(ctx context.Context, candidates []domain.GeoCandidate, masterGeoID int64) error {
	if len(candidates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin candidate upsert: %w", err)
	}
	defer tx.Rollback()

	for i := range candidates {
		c := &candidates[i]
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO geo_candidates (pp_id, pp_name)
			VALUES (?, ?)
			ON CONFLICT(pp_id) DO UPDATE SET pp_name = excluded.pp_name
		`, c.PPID, c.Name); err != nil {
			return fmt.Errorf("failed to upsert candidate %d: %w", c.PPID, err)
		}

		if _, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO geo_candidate_masters (pp_id, master_geo_id)
			VALUES (?, ?)
		`, c.PPID, masterGeoID); err != nil {
			return fmt.Errorf("failed to merge master id for candidate %d: %w", c.PPID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit candidate upsert: %w", err)
	}
	return nil
}

// candidateRow is the scan target for candidate listings.
type candidateRow struct {
	PPID          int64          `db:"pp_id"`
	Name          string         `db:"pp_name"`
	CorrectedName sql.NullString `db:"corrected_name"`
	Masters       sql.NullString `db:"masters"`
}

// ListCandidates returns candidates with their accumulated master id sets.
// A non-nil masterGeoID restricts the result to candidates seen under it.
func (r *GeoRepository) ListCandidates(ctx context.Context, masterGeoID *int64) ([]*domain.GeoCandidate, error) {
	query := `
		SELECT c.pp_id, c.pp_name, c.corrected_name,
		       GROUP_CONCAT(m.master_geo_id) AS masters
		FROM geo_candidates c
		LEFT JOIN geo_candidate_masters m ON m.pp_id = c.pp_id
	`
	var args []any
	if masterGeoID != nil {
		query += ` WHERE c.pp_id IN (
			SELECT pp_id FROM geo_candidate_masters WHERE master_geo_id = ?
		)`
		args = append(args, *masterGeoID)
	}
	query += ` GROUP BY c.pp_id ORDER BY c.pp_name`

	var rows []candidateRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list geo candidates: %w", err)
	}

	candidates := make([]*domain.GeoCandidate, 0, len(rows))
	for i := range rows {
		cand := &domain.GeoCandidate{
			PPID: rows[i].PPID,
			Name: rows[i].Name,
		}
		if rows[i].CorrectedName.Valid {
			name := rows[i].CorrectedName.String
			cand.CorrectedName = &name
		}
		masters, err := parseMasterSet(rows[i].Masters)
		if err != nil {
			return nil, err
		}
		cand.MasterGeoIDs = masters
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// UpdateCandidateName attaches a human-readable alias to a candidate.
// Returns false when the candidate does not exist.
func (r *GeoRepository) UpdateCandidateName(ctx context.Context, ppID int64, correctedName string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE geo_candidates SET corrected_name = ? WHERE pp_id = ?`,
		correctedName, ppID)
	if err != nil {
		return false, fmt.Errorf("failed to update candidate name: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteCandidate removes one candidate and its master id set.
func (r *GeoRepository) DeleteCandidate(ctx context.Context, ppID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin candidate delete: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM geo_candidate_masters WHERE pp_id = ?`, ppID); err != nil {
		return fmt.Errorf("failed to delete candidate masters: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM geo_candidates WHERE pp_id = ?`, ppID); err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit candidate delete: %w", err)
	}
	return nil
}

// DeleteAllCandidates clears the whole candidate catalog.
func (r *GeoRepository) DeleteAllCandidates(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin catalog clear: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM geo_candidate_masters`); err != nil {
		return fmt.Errorf("failed to clear candidate masters: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM geo_candidates`); err != nil {
		return fmt.Errorf("failed to clear candidates: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog clear: %w", err)
	}
	return nil
}

// parseMasterSet converts a GROUP_CONCAT result into a sorted id slice.
func parseMasterSet(s sql.NullString) ([]int64, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	parts := strings.Split(s.String, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse master id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
