// Package trigger holds the scheduling registrations that cause a job id to
// be enqueued at a computed instant, and the Beat that fires them.
package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joshu-sajeev/goscheduler/internal/models"
	"github.com/joshu-sajeev/goscheduler/internal/schedule"
	"gorm.io/datatypes"
)

// Task names what a trigger does when it fires.
type Task string

const (
	// TaskExecuteJob enqueues the job named in Args.
	TaskExecuteJob Task = "execute_job"
	// TaskEnableTrigger enables the trigger named in Args and nothing else.
	TaskEnableTrigger Task = "enable_trigger"
)

// RecurringName is the deterministic name of a job's recurring trigger.
func RecurringName(jobID uint) string { return fmt.Sprintf("job-%d", jobID) }

// ActivationName is the deterministic name of the one-off trigger that
// enables a job's recurring trigger at its start instant.
func ActivationName(jobID uint) string { return fmt.Sprintf("enable-job-%d", jobID) }

// Args is the payload carried by a trigger.
type Args struct {
	JobID    uint   `json:"job_id,omitempty"`
	Priority int    `json:"priority,omitempty"`
	Trigger  string `json:"trigger,omitempty"`
}

func (a Args) JSON() datatypes.JSON {
	b, _ := json.Marshal(a)
	return datatypes.JSON(b)
}

// DecodeArgs reads the args stored on t.
func DecodeArgs(t *models.Trigger) (Args, error) {
	var a Args
	if len(t.Args) == 0 {
		return a, nil
	}
	if err := json.Unmarshal(t.Args, &a); err != nil {
		return a, fmt.Errorf("decode trigger args: %w", err)
	}
	return a, nil
}

// Store persists triggers. There is no native upsert by job id: callers
// delete by name and recreate inside InTx.
type Store interface {
	UpsertRecurring(ctx context.Context, name string, rule schedule.Rule, firstRun time.Time, enabled bool, task Task, args Args) error
	UpsertOneOff(ctx context.Context, name string, at time.Time, task Task, args Args, enabled bool) error
	Delete(ctx context.Context, name string) error
	Enable(ctx context.Context, name string) error
	Get(ctx context.Context, name string) (*models.Trigger, error)

	// ClaimDue returns up to limit enabled triggers whose next run is at or
	// before now, locking them for the surrounding transaction.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.Trigger, error)
	// MarkFired records a fire. A nil next disables the trigger.
	MarkFired(ctx context.Context, id uint, firedAt time.Time, next *time.Time) error

	// InTx runs fn against a Store bound to a single transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}
