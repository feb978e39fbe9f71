package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidScanType is returned for unknown scan types
	ErrInvalidScanType = errors.New("invalid scan type")

	// ErrMissingTenant is returned when a scan job has no tenant
	ErrMissingTenant = errors.New("scan job requires a tenant")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
