package interfaces

import (
	"context"
	"time"
)

// JobStatus represents the current status of a scheduled job
type JobStatus struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	IsRunning   bool       `json:"is_running"`
	LastError   string     `json:"last_error,omitempty"`
	LastResult  string     `json:"last_result,omitempty"`
}

// SchedulerService manages cron-based housekeeping jobs
type SchedulerService interface {
	// RegisterJob adds a job on a six-field (seconds first) cron schedule
	RegisterJob(name, schedule, description string, handler JobHandler) error

	// Start begins running registered jobs on their schedules
	Start() error

	// Stop halts the scheduler and waits for running jobs to finish
	Stop() error

	// IsRunning returns true if the scheduler is active
	IsRunning() bool

	// TriggerJob runs a job immediately and returns its result
	TriggerJob(ctx context.Context, name string) (string, error)

	// GetJobStatus returns the status of a specific job
	GetJobStatus(name string) (*JobStatus, error)

	// GetAllJobStatuses returns all job statuses
	GetAllJobStatuses() map[string]*JobStatus
}

// JobHandler runs one execution of a job and returns a short result summary
type JobHandler func(ctx context.Context) (string, error)
