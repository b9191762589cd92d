package common

import "github.com/cockroachdb/errors"

// Domain errors shared by the scheduling core. Callers match them with
// errors.Is; the job service maps them onto APIError statuses.
var (
	ErrValidation      = errors.New("validation failed")
	ErrJobNotFound     = errors.New("job not found")
	ErrStaleJob        = errors.New("job was modified concurrently")
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrInvalidState    = errors.New("invalid job state")
	ErrSourceMissing   = errors.New("upload source file not found")
	ErrTriggerNotFound = errors.New("trigger not found")
	ErrQueueClosed     = errors.New("queue closed")
)
