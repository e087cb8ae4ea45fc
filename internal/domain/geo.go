package domain

import (
	"time"
)

// GeoCacheEntry maps a normalized location query to the platform's geo ids.
// PopulatedPlaceID is nil when the query resolves only to the regional level
// or when a manual override cleared the refinement. A populated place id is
// never equal to the master id.
type GeoCacheEntry struct {
	Query            string    `db:"location_query" json:"location_query"`
	MasterGeoID      int64     `db:"master_geo_id" json:"master_geo_id"`
	PopulatedPlaceID *int64    `db:"populated_place_id" json:"populated_place_id,omitempty"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Refined reports whether the entry carries a populated-place refinement.
func (e *GeoCacheEntry) Refined() bool {
	return e.PopulatedPlaceID != nil
}

// GeoCandidate is a populated place the platform has returned for at least
// one master geo id. MasterGeoIDs accumulates every master id the candidate
// has been seen under; it only shrinks on explicit clear.
type GeoCandidate struct {
	PPID          int64   `db:"pp_id" json:"pp_id"`
	Name          string  `db:"pp_name" json:"name"`
	CorrectedName *string `db:"corrected_name" json:"corrected_name,omitempty"`
	MasterGeoIDs  []int64 `db:"-" json:"master_geo_ids"`
}

// DisplayName returns the user-corrected name when one is set.
func (c *GeoCandidate) DisplayName() string {
	if c.CorrectedName != nil && *c.CorrectedName != "" {
		return *c.CorrectedName
	}
	return c.Name
}
