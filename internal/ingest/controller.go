// Package ingest drives one paginated discovery pass: fetch result pages,
// run each stub through the filter checks, fetch details for survivors and
// hand every outcome to the caller.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/jobsift/jobsift/internal/domain"
	"github.com/jobsift/jobsift/internal/filter"
	"github.com/jobsift/jobsift/internal/linkedin"
	"github.com/jobsift/jobsift/internal/logger"
)

// Client is the remote surface the controller needs.
type Client interface {
	SearchJobs(ctx context.Context, q linkedin.SearchQuery, start int) (*linkedin.SearchPage, error)
	FetchJobDetail(ctx context.Context, stub domain.JobStub) (*domain.JobDetail, error)
	Dismiss(ctx context.Context, jobID, feedbackURN string) error
}

// GeoResolver maps location text to cached geo scope.
type GeoResolver interface {
	Resolve(ctx context.Context, location string) (*domain.GeoCacheEntry, error)
}

// OutcomeKind classifies what happened to one discovered stub.
type OutcomeKind string

const (
	// OutcomeKept means the job survived every check.
	OutcomeKept OutcomeKind = "kept"
	// OutcomeDismissed means a filter check fired and the ledger was updated.
	OutcomeDismissed OutcomeKind = "dismissed"
	// OutcomeSkipped means the detail fetch failed after retries; the job
	// is neither kept nor dismissed and may reappear in a later run.
	OutcomeSkipped OutcomeKind = "skipped"
)

// Outcome reports the fate of one stub.
type Outcome struct {
	Kind OutcomeKind
	Stub domain.JobStub
	// Detail is set for kept jobs and post-detail dismissals.
	Detail *domain.JobDetail
	// Verdict is set for dismissals.
	Verdict *filter.Verdict
	// DetailFetched reports whether the posting page was loaded.
	DetailFetched bool
}

// Sink receives every outcome in discovery order.
type Sink func(Outcome)

// Result carries the run counters. TotalSkipped counts jobs whose detail
// was never fetched: stub-stage dismissals plus fetch failures.
type Result struct {
	TotalFound     int
	TotalDismissed int
	TotalSkipped   int
	Kept           int
}

// Config tunes one controller.
type Config struct {
	// JobLimit caps the number of jobs processed in one run, dismissals
	// included; zero means unlimited.
	JobLimit int
	// DismissRemote posts dismissal feedback back to the platform for
	// fresh dismissals. Failures are logged, never fatal.
	DismissRemote bool
}

// Controller executes discovery runs.
type Controller struct {
	client Client
	geo    GeoResolver
	engine *filter.Engine
	cfg    Config
	log    logger.Interface
}

// NewController creates a controller.
func NewController(client Client, geo GeoResolver, engine *filter.Engine, cfg Config, log logger.Interface) *Controller {
	return &Controller{client: client, geo: geo, engine: engine, cfg: cfg, log: log}
}

// Run executes one discovery pass. Termination, in priority order:
// cancellation, the job limit, an empty result page, a transport failure on
// a page fetch. Only the last one fails the run; partial results already
// handed to the sink stand either way.
func (c *Controller) Run(ctx context.Context, runID string, params domain.SearchParams, sink Sink) (*Result, error) {
	result := &Result{}
	if err := params.Validate(); err != nil {
		return result, err
	}

	limit := c.cfg.JobLimit
	if params.Limit > 0 {
		limit = params.Limit
	}

	query := linkedin.SearchQuery{
		Keywords:       params.Keywords,
		Location:       params.Location,
		TimeRange:      params.TimeRange,
		EasyApply:      params.EasyApply,
		Relevant:       params.Relevant,
		WorkplaceTypes: params.WorkplaceTypes,
	}

	if params.Location != "" {
		entry, err := c.geo.Resolve(ctx, params.Location)
		if err != nil {
			return result, fmt.Errorf("resolving location %q: %w", params.Location, err)
		}
		if entry != nil {
			if entry.Refined() {
				query.GeoID = entry.PopulatedPlaceID
				query.Refined = true
			} else {
				id := entry.MasterGeoID
				query.GeoID = &id
			}
		}
	}

	c.engine.BeginRun(runID)

	for start := 0; ; start += linkedin.PageSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := c.client.SearchJobs(ctx, query, start)
		if err != nil {
			return result, fmt.Errorf("fetching page at offset %d: %w", start, err)
		}
		if len(page.Stubs) == 0 {
			c.log.Info("result pages exhausted", "offset", start, "total", page.Total)
			return result, nil
		}
		c.log.Info("fetched result page",
			"offset", start, "stubs", len(page.Stubs), "total", page.Total)

		for i := range page.Stubs {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			done, err := c.processStub(ctx, &page.Stubs[i], limit, result, sink)
			if err != nil {
				return result, err
			}
			if done {
				return result, nil
			}
		}
	}
}

// processStub runs one stub through the checks. The bool result is true
// when the job limit has been consumed. Every processed stub draws on the
// limit, dismissed or not.
func (c *Controller) processStub(ctx context.Context, stub *domain.JobStub, limit int, result *Result, sink Sink) (bool, error) {
	result.TotalFound++
	done := limit > 0 && result.TotalFound >= limit

	verdict, err := c.engine.CheckStub(ctx, stub)
	if err != nil {
		return false, err
	}
	if verdict != nil {
		if err := c.dismiss(ctx, stub, verdict, result, sink, nil); err != nil {
			return false, err
		}
		result.TotalSkipped++
		return done, nil
	}

	detail, err := c.client.FetchJobDetail(ctx, *stub)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		var transport *linkedin.TransportError
		if !errors.As(err, &transport) {
			return false, err
		}
		// Retries exhausted on a single posting. The job is neither kept
		// nor dismissed so a later run can pick it up again.
		c.log.Warn("skipping job after failed detail fetch",
			"job_id", stub.JobID, "error", err)
		result.TotalSkipped++
		sink(Outcome{Kind: OutcomeSkipped, Stub: *stub})
		return done, nil
	}

	if verdict := c.engine.CheckDetail(detail); verdict != nil {
		if err := c.dismiss(ctx, stub, verdict, result, sink, detail); err != nil {
			return false, err
		}
		return done, nil
	}

	result.Kept++
	sink(Outcome{Kind: OutcomeKept, Stub: *stub, Detail: detail, DetailFetched: true})
	return done, nil
}

// dismiss records the verdict locally and, when enabled, mirrors it to the
// platform. Re-sightings of already dismissed jobs skip the remote call.
func (c *Controller) dismiss(ctx context.Context, stub *domain.JobStub, verdict *filter.Verdict, result *Result, sink Sink, detail *domain.JobDetail) error {
	if err := c.engine.Dismiss(ctx, stub, verdict); err != nil {
		return err
	}
	result.TotalDismissed++

	if c.cfg.DismissRemote && verdict.Reason != domain.ReasonAlreadyDismissed {
		if err := c.client.Dismiss(ctx, stub.JobID, stub.DismissURN); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("remote dismissal failed",
				"job_id", stub.JobID, "error", err)
		}
	}

	sink(Outcome{
		Kind:          OutcomeDismissed,
		Stub:          *stub,
		Detail:        detail,
		Verdict:       verdict,
		DetailFetched: detail != nil,
	})
	return nil
}
