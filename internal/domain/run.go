package domain

import (
	"time"
)

// RunStatus is the lifecycle state of a search run.
type RunStatus string

const (
	// RunQueued means the run row exists but the worker has not started.
	RunQueued RunStatus = "queued"
	// RunRunning means the pipeline is executing.
	RunRunning RunStatus = "running"
	// RunCompleted means the run reached page exhaustion or its job limit.
	RunCompleted RunStatus = "completed"
	// RunFailed means an unrecoverable error ended the run.
	RunFailed RunStatus = "failed"
	// RunStopped means cancellation was requested and observed.
	RunStopped RunStatus = "stopped"
)

// Terminal reports whether the status admits no further transitions.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunStopped:
		return true
	default:
		return false
	}
}

// SearchRun records one end-to-end execution of the discovery pipeline.
type SearchRun struct {
	ID             string     `db:"id" json:"id"`
	Keywords       string     `db:"keywords" json:"keywords"`
	Location       string     `db:"location" json:"location"`
	TimeRange      string     `db:"time_range" json:"time_range"`
	Status         RunStatus  `db:"status" json:"status"`
	StartedAt      time.Time  `db:"started_at" json:"started_at"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	TotalFound     int        `db:"total_found" json:"total_found"`
	TotalDismissed int        `db:"total_dismissed" json:"total_dismissed"`
	TotalSkipped   int        `db:"total_skipped" json:"total_skipped"`
}

// LogLevel is the severity of a run log line.
type LogLevel string

const (
	// LogInfo is routine progress.
	LogInfo LogLevel = "info"
	// LogWarning is a recovered problem.
	LogWarning LogLevel = "warning"
	// LogError is an unrecoverable problem.
	LogError LogLevel = "error"
	// LogSuccess marks a positive milestone.
	LogSuccess LogLevel = "success"
)

// RunLogEntry is one append-only log line owned by a run.
type RunLogEntry struct {
	ID        int64     `db:"id" json:"-"`
	RunID     string    `db:"run_id" json:"run_id"`
	Message   string    `db:"message" json:"message"`
	Level     LogLevel  `db:"level" json:"level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
