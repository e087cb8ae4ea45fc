// Package scheduler triggers saved searches on cron schedules. An active
// run is never preempted; a trigger that collides with one is skipped.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/domain"
	"github.com/jobsift/jobsift/internal/logger"
	"github.com/jobsift/jobsift/internal/run"
)

// SearchStore resolves saved searches by name.
type SearchStore interface {
	GetSavedSearchByName(ctx context.Context, name string) (*domain.SavedSearch, error)
}

// Starter launches runs. Satisfied by *run.Manager.
type Starter interface {
	Start(ctx context.Context, params domain.SearchParams) (string, error)
}

// Scheduler owns the cron loop.
type Scheduler struct {
	cron     *cron.Cron
	searches SearchStore
	starter  Starter
	log      logger.Interface
}

// New creates a scheduler.
func New(searches SearchStore, starter Starter, log logger.Interface) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		searches: searches,
		starter:  starter,
		log:      log,
	}
}

// Register adds the configured schedule entries. Every entry must name an
// existing saved search and carry a parseable cron expression.
func (s *Scheduler) Register(ctx context.Context, entries []config.ScheduleEntry) error {
	for _, entry := range entries {
		search, err := s.searches.GetSavedSearchByName(ctx, entry.Search)
		if err != nil {
			return fmt.Errorf("schedule %q: %w", entry.Search, err)
		}

		name := entry.Search
		params := search.Params()
		_, err = s.cron.AddFunc(entry.Cron, func() {
			s.trigger(name, params)
		})
		if err != nil {
			return fmt.Errorf("schedule %q has bad cron expression %q: %w",
				entry.Search, entry.Cron, err)
		}
		s.log.Info("registered schedule", "search", entry.Search, "cron", entry.Cron)
	}
	return nil
}

// Start begins firing schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for an in-flight trigger callback. A run
// already launched keeps going; stopping the run is the manager's job.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// trigger launches one scheduled search.
func (s *Scheduler) trigger(name string, params domain.SearchParams) {
	ctx := context.Background()
	runID, err := s.starter.Start(ctx, params)
	if errors.Is(err, run.ErrRunActive) {
		s.log.Warn("skipping scheduled search, a run is active", "search", name)
		return
	}
	if err != nil {
		s.log.Error("failed to start scheduled search", "search", name, "error", err)
		return
	}
	s.log.Info("started scheduled search", "search", name, "run_id", runID)
}
