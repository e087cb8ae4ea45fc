// Package geo resolves free-text locations to platform geo ids, caching the
// results and maintaining a catalog of populated-place candidates.
package geo

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jobsift/jobsift/internal/domain"
	"github.com/jobsift/jobsift/internal/linkedin"
	"github.com/jobsift/jobsift/internal/logger"
)

// ErrNoMasterMatch indicates the typeahead returned no geo candidates for a
// location. The query is not cached so a later retry can resolve it.
var ErrNoMasterMatch = errors.New("no master geo match for location")

// Store is the persistence surface the resolver needs.
type Store interface {
	GetCache(ctx context.Context, query string) (*domain.GeoCacheEntry, error)
	UpsertCache(ctx context.Context, entry *domain.GeoCacheEntry) error
	SetOverride(ctx context.Context, query string, ppID *int64) (bool, error)
	DeleteCache(ctx context.Context, query string) error
	UpsertCandidates(ctx context.Context, candidates []domain.GeoCandidate, masterGeoID int64) error
	ListCandidates(ctx context.Context, masterGeoID *int64) ([]*domain.GeoCandidate, error)
	UpdateCandidateName(ctx context.Context, ppID int64, correctedName string) (bool, error)
}

// Client is the remote lookup surface the resolver needs.
type Client interface {
	TypeaheadGeo(ctx context.Context, location string) ([]linkedin.GeoMatch, error)
	PopulatedPlaces(ctx context.Context, masterGeoID int64) ([]linkedin.Place, error)
}

// Resolver turns location text into cached geo scope. Resolution is
// two-level: a master id from the typeahead, then an optional populated-place
// refinement picked from the master's candidate catalog.
type Resolver struct {
	store  Store
	client Client
	match  Matcher
	log    logger.Interface
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMatcher replaces the refinement matcher.
func WithMatcher(m Matcher) Option {
	return func(r *Resolver) { r.match = m }
}

// NewResolver creates a resolver backed by the given store and client.
func NewResolver(store Store, client Client, log logger.Interface, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		client: client,
		match:  ExactMatcher,
		log:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize canonicalizes location text for use as a cache key: whitespace
// is collapsed and each word is title-cased, so "toronto, on" and
// "Toronto, ON" share one cache entry.
func Normalize(location string) string {
	collapsed := strings.Join(strings.Fields(location), " ")
	// A Caser carries state, so one is built per call.
	return cases.Title(language.English).String(collapsed)
}

// Resolve maps location text to a geo cache entry, consulting the cache
// first and the remote typeahead on a miss. An empty or worldwide location
// yields a nil entry: the search runs unscoped.
func (r *Resolver) Resolve(ctx context.Context, location string) (*domain.GeoCacheEntry, error) {
	query := Normalize(location)
	if query == "" || strings.EqualFold(query, "Worldwide") {
		return nil, nil
	}

	cached, err := r.store.GetCache(ctx, query)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		r.log.Debug("geo cache hit",
			"query", query,
			"master_geo_id", cached.MasterGeoID,
			"refined", cached.Refined())
		return cached, nil
	}

	entry, err := r.resolveRemote(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := r.store.UpsertCache(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// resolveRemote performs the two-level remote lookup for a cache miss.
func (r *Resolver) resolveRemote(ctx context.Context, query string) (*domain.GeoCacheEntry, error) {
	matches, err := r.client.TypeaheadGeo(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoMasterMatch
	}
	master := matches[0]
	r.log.Info("resolved master geo id",
		"query", query, "master_geo_id", master.ID, "name", master.Name)

	entry := &domain.GeoCacheEntry{Query: query, MasterGeoID: master.ID}

	// The candidate catalog doubles as a secondary cache: the filter-clusters
	// endpoint is queried only when no candidates are known for the master id.
	catalog, err := r.store.ListCandidates(ctx, &master.ID)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		places, err := r.client.PopulatedPlaces(ctx, master.ID)
		if err != nil {
			// The master id is still usable; refinement is best effort.
			r.log.Warn("populated place lookup failed",
				"query", query, "master_geo_id", master.ID, "error", err)
			return entry, nil
		}
		if len(places) > 0 {
			candidates := make([]domain.GeoCandidate, len(places))
			for i, p := range places {
				candidates[i] = domain.GeoCandidate{PPID: p.ID, Name: p.Name}
			}
			if err := r.store.UpsertCandidates(ctx, candidates, master.ID); err != nil {
				return nil, err
			}
			catalog, err = r.store.ListCandidates(ctx, &master.ID)
			if err != nil {
				return nil, err
			}
		}
	}
	if picked := r.match(query, catalog); picked != nil && picked.PPID != master.ID {
		id := picked.PPID
		entry.PopulatedPlaceID = &id
		r.log.Info("refined to populated place",
			"query", query, "pp_id", id, "pp_name", picked.DisplayName())
	}
	return entry, nil
}

// ApplyOverride sets or clears the populated-place refinement for a
// previously resolved location. Returns false when the location has no
// cache entry.
func (r *Resolver) ApplyOverride(ctx context.Context, location string, ppID *int64) (bool, error) {
	return r.store.SetOverride(ctx, Normalize(location), ppID)
}

// Forget drops the cache entry so the next resolve hits the network.
func (r *Resolver) Forget(ctx context.Context, location string) error {
	return r.store.DeleteCache(ctx, Normalize(location))
}

// RenameCandidate attaches a corrected display name to a candidate.
func (r *Resolver) RenameCandidate(ctx context.Context, ppID int64, name string) (bool, error) {
	return r.store.UpdateCandidateName(ctx, ppID, name)
}

// Candidates lists the catalog, optionally restricted to one master id.
func (r *Resolver) Candidates(ctx context.Context, masterGeoID *int64) ([]*domain.GeoCandidate, error) {
	return r.store.ListCandidates(ctx, masterGeoID)
}
