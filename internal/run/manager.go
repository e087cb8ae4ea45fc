// Package run owns the lifecycle of discovery runs: at most one run
// executes at a time, every run leaves a durable record, and an in-memory
// log tail serves status polls without touching the database.
package run

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobsift/jobsift/internal/domain"
	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/logger"
)

// ErrRunActive is returned by Start while another run is executing.
var ErrRunActive = errors.New("a run is already active")

// ErrNoActiveRun is returned by Stop when nothing is running.
var ErrNoActiveRun = errors.New("no active run")

// logTailSize bounds the in-memory log tail kept for status polls.
const logTailSize = 500

// Store is the persistence surface the manager needs.
type Store interface {
	CreateRun(ctx context.Context, run *domain.SearchRun) error
	UpdateRun(ctx context.Context, run *domain.SearchRun) error
	GetRun(ctx context.Context, id string) (*domain.SearchRun, error)
	ListRuns(ctx context.Context, offset, limit int) ([]*domain.SearchRun, int, error)
	DeleteRun(ctx context.Context, id string) error
	AppendLog(ctx context.Context, entry *domain.RunLogEntry) error
	GetLogs(ctx context.Context, runID string) ([]*domain.RunLogEntry, error)
}

// Runner executes one discovery pass. Satisfied by *ingest.Controller.
type Runner interface {
	Run(ctx context.Context, runID string, params domain.SearchParams, sink ingest.Sink) (*ingest.Result, error)
}

// Status is a point-in-time snapshot of the manager.
type Status struct {
	Running bool              `json:"running"`
	Run     *domain.SearchRun `json:"run,omitempty"`
	// LogTail holds the most recent log lines of the current or last run.
	LogTail []string `json:"log_tail"`
}

// RunDetails pairs a run record with its dismissals and full log.
type RunDetails struct {
	Run        *domain.SearchRun            `json:"run"`
	Dismissals []*domain.DismissedJobRecord `json:"dismissals"`
	Logs       []*domain.RunLogEntry        `json:"logs"`
}

// DismissalLister reads a run's ledger rows. Satisfied by
// *database.DismissedRepository.
type DismissalLister interface {
	ListByRun(ctx context.Context, runID string) ([]*domain.DismissedJobRecord, error)
}

// Manager serializes run execution. All exported methods are safe for
// concurrent use.
type Manager struct {
	store      Store
	dismissals DismissalLister
	runner     Runner
	log        logger.Interface

	mu      sync.Mutex
	current *domain.SearchRun
	cancel  context.CancelFunc
	done    chan struct{}
	tail    []string
}

// NewManager creates a manager.
func NewManager(store Store, dismissals DismissalLister, runner Runner, log logger.Interface) *Manager {
	return &Manager{store: store, dismissals: dismissals, runner: runner, log: log}
}

// Start validates the parameters, records a new run and launches the worker.
// It returns the run id immediately; progress is observable via Status.
// A second Start while a run is active fails with ErrRunActive.
func (m *Manager) Start(ctx context.Context, params domain.SearchParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && !m.current.Status.Terminal() {
		return "", ErrRunActive
	}

	run := &domain.SearchRun{
		ID:        uuid.New().String(),
		Keywords:  params.Keywords,
		Location:  params.Location,
		TimeRange: params.TimeRange,
		Status:    domain.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := m.store.CreateRun(ctx, run); err != nil {
		return "", err
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.current = run
	m.cancel = cancel
	m.done = done
	m.tail = nil

	go m.execute(workerCtx, cancel, done, run, params)

	return run.ID, nil
}

// Stop requests cooperative cancellation of the active run and returns
// without waiting for the worker to finish.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.Status.Terminal() {
		return ErrNoActiveRun
	}
	m.cancel()
	return nil
}

// Wait blocks until the current worker exits. No-op when idle.
func (m *Manager) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Status returns a snapshot of the current or most recent run.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{LogTail: append([]string(nil), m.tail...)}
	if m.current != nil {
		snapshot := *m.current
		st.Run = &snapshot
		st.Running = !snapshot.Status.Terminal()
	}
	return st
}

// GetRun returns one run record.
func (m *Manager) GetRun(ctx context.Context, id string) (*domain.SearchRun, error) {
	return m.store.GetRun(ctx, id)
}

// ListRuns returns a page of run records plus the total count.
func (m *Manager) ListRuns(ctx context.Context, offset, limit int) ([]*domain.SearchRun, int, error) {
	return m.store.ListRuns(ctx, offset, limit)
}

// GetRunDetails returns a run with its dismissals and full log.
func (m *Manager) GetRunDetails(ctx context.Context, id string) (*RunDetails, error) {
	run, err := m.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	dismissals, err := m.dismissals.ListByRun(ctx, id)
	if err != nil {
		return nil, err
	}
	logs, err := m.store.GetLogs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RunDetails{Run: run, Dismissals: dismissals, Logs: logs}, nil
}

// DeleteRun removes a run record and its logs. The active run cannot be
// deleted.
func (m *Manager) DeleteRun(ctx context.Context, id string) error {
	m.mu.Lock()
	active := m.current != nil && m.current.ID == id && !m.current.Status.Terminal()
	m.mu.Unlock()
	if active {
		return ErrRunActive
	}
	return m.store.DeleteRun(ctx, id)
}

// execute is the worker goroutine body.
func (m *Manager) execute(ctx context.Context, cancel context.CancelFunc, done chan struct{}, run *domain.SearchRun, params domain.SearchParams) {
	defer close(done)
	defer cancel()

	m.appendLog(run.ID, domain.LogInfo,
		fmt.Sprintf("run started: keywords=%q location=%q", params.Keywords, params.Location))

	result, err := m.runner.Run(ctx, run.ID, params, func(o ingest.Outcome) {
		m.recordOutcome(run, o)
	})
	if result == nil {
		result = &ingest.Result{}
	}

	// Persistence below uses a fresh context: the worker context may
	// already be cancelled and the final state must still be written.
	finishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status := domain.RunCompleted
	switch {
	case err == nil:
		m.appendLog(run.ID, domain.LogSuccess,
			fmt.Sprintf("run completed: found=%d dismissed=%d skipped=%d kept=%d",
				result.TotalFound, result.TotalDismissed, result.TotalSkipped, result.Kept))
	case errors.Is(err, context.Canceled):
		status = domain.RunStopped
		m.appendLog(run.ID, domain.LogWarning, "run stopped by request")
	default:
		status = domain.RunFailed
		m.appendLog(run.ID, domain.LogError, fmt.Sprintf("run failed: %v", err))
	}

	now := time.Now().UTC()

	m.mu.Lock()
	run.Status = status
	run.CompletedAt = &now
	run.TotalFound = result.TotalFound
	run.TotalDismissed = result.TotalDismissed
	run.TotalSkipped = result.TotalSkipped
	snapshot := *run
	m.mu.Unlock()

	if err := m.store.UpdateRun(finishCtx, &snapshot); err != nil {
		m.log.Error("failed to persist final run state",
			"run_id", run.ID, "error", err)
	}
}

// recordOutcome mirrors pipeline progress into the run counters and log.
func (m *Manager) recordOutcome(run *domain.SearchRun, o ingest.Outcome) {
	m.mu.Lock()
	run.TotalFound++
	if o.Kind == ingest.OutcomeDismissed {
		run.TotalDismissed++
	}
	if !o.DetailFetched {
		run.TotalSkipped++
	}
	m.mu.Unlock()

	switch o.Kind {
	case ingest.OutcomeKept:
		m.appendLog(run.ID, domain.LogInfo,
			fmt.Sprintf("kept %s: %s at %s", o.Stub.JobID, o.Stub.Title, o.Stub.Company))
	case ingest.OutcomeDismissed:
		m.appendLog(run.ID, domain.LogInfo,
			fmt.Sprintf("dismissed %s (%s): %s", o.Stub.JobID, o.Verdict.Reason, o.Stub.Title))
	case ingest.OutcomeSkipped:
		m.appendLog(run.ID, domain.LogWarning,
			fmt.Sprintf("skipped %s: detail fetch failed", o.Stub.JobID))
	}
}

// appendLog writes one log line durably and to the in-memory tail.
func (m *Manager) appendLog(runID string, level domain.LogLevel, message string) {
	entry := &domain.RunLogEntry{
		RunID:     runID,
		Message:   message,
		Level:     level,
		CreatedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.AppendLog(ctx, entry); err != nil {
		m.log.Error("failed to append run log", "run_id", runID, "error", err)
	}

	m.mu.Lock()
	m.tail = append(m.tail, fmt.Sprintf("[%s] %s", level, message))
	if len(m.tail) > logTailSize {
		m.tail = m.tail[len(m.tail)-logTailSize:]
	}
	m.mu.Unlock()
}
