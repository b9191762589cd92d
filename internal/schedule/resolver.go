// Package schedule turns a job's schedule intent into a concrete fire plan.
// Everything here is pure: callers supply "now".
package schedule

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joshu-sajeev/goscheduler/common"
	"github.com/joshu-sajeev/goscheduler/internal/config"
)

type Kind int

const (
	// RunNow enqueues the job for immediate execution.
	RunNow Kind = iota
	// RunOnce enqueues a single delayed execution at FirePlan.At.
	RunOnce
	// Recurring registers a recurring trigger.
	Recurring
)

func (k Kind) String() string {
	switch k {
	case RunNow:
		return "now"
	case RunOnce:
		return "once"
	case Recurring:
		return "recurring"
	}
	return "unknown"
}

// FirePlan is the resolved decision of when and how often a job runs.
type FirePlan struct {
	Kind Kind

	// At is the single fire instant of a RunOnce plan.
	At time.Time

	// Rule, Start, FirstRun and Enabled describe a Recurring plan. When
	// Enabled is false the recurring trigger must stay disabled until an
	// activation fires at Start.
	Rule     Rule
	Start    time.Time
	FirstRun time.Time
	Enabled  bool
}

type Resolver struct {
	loc *time.Location
}

func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{loc: loc}
}

// Location is the zone recurrence rules are derived and evaluated in.
func (r *Resolver) Location() *time.Location { return r.loc }

// Resolve computes the fire plan for the given schedule fields. It does not
// check that a scheduled time lies in the future; that belongs to request
// validation.
func (r *Resolver) Resolve(st config.ScheduleType, scheduledTime *time.Time, freq *config.Frequency, now time.Time) (FirePlan, error) {
	switch st {
	case config.ScheduleImmediate, "":
		return FirePlan{Kind: RunNow}, nil

	case config.ScheduleScheduled:
		if scheduledTime == nil {
			return FirePlan{}, errors.Wrap(common.ErrInvalidSchedule, "scheduled job without scheduled_time")
		}
		return FirePlan{Kind: RunOnce, At: *scheduledTime}, nil

	case config.ScheduleInterval:
		if freq == nil || *freq == "" {
			return FirePlan{}, errors.Wrap(common.ErrInvalidSchedule, "interval job without frequency")
		}
		ref := now
		if scheduledTime != nil {
			ref = *scheduledTime
		}
		return r.recurring(*freq, ref, now)
	}

	return FirePlan{}, errors.Wrapf(common.ErrInvalidSchedule, "unsupported schedule type %q", st)
}

func (r *Resolver) recurring(freq config.Frequency, ref, now time.Time) (FirePlan, error) {
	rule, err := RuleFor(freq, ref, r.loc)
	if err != nil {
		return FirePlan{}, err
	}

	plan := FirePlan{Kind: Recurring, Rule: rule, Start: ref}

	if ref.After(now) {
		// The rule matches the start minute by construction, so the first
		// run is the start itself once the activation enables the trigger.
		plan.FirstRun = ref.Truncate(time.Minute)
		plan.Enabled = false
		return plan, nil
	}

	next, err := rule.Next(now)
	if err != nil {
		return FirePlan{}, err
	}
	plan.FirstRun = next
	plan.Enabled = true
	return plan, nil
}
