// Package dispatch owns the lifecycle of a job's triggers: it decides at
// create and update time whether a job is enqueued now, enqueued with a
// delay or registered as a recurring trigger, and cancels all of it on
// delete.
package dispatch

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joshu-sajeev/goscheduler/internal/models"
	"github.com/joshu-sajeev/goscheduler/internal/queue"
	"github.com/joshu-sajeev/goscheduler/internal/schedule"
	"github.com/joshu-sajeev/goscheduler/internal/trigger"
	"go.uber.org/zap"
)

type Dispatcher struct {
	queue    queue.Producer
	triggers trigger.Store
	resolver *schedule.Resolver
	logger   *zap.SugaredLogger
	now      func() time.Time
	locks    *jobLocks
}

type Option func(*Dispatcher)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func New(q queue.Producer, triggers trigger.Store, resolver *schedule.Resolver, logger *zap.SugaredLogger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	d := &Dispatcher{
		queue:    q,
		triggers: triggers,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
		locks:    newJobLocks(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Schedule arranges for job to run according to its schedule fields.
// Calling it again for the same job replaces its triggers.
func (d *Dispatcher) Schedule(ctx context.Context, job *models.Job) error {
	unlock := d.locks.lock(job.ID)
	defer unlock()

	return d.schedule(ctx, job)
}

// Reschedule replaces whatever was arranged for job with its current
// schedule. The schedule is resolved before anything is touched, and
// recurring triggers are swapped for the new ones in one transaction.
func (d *Dispatcher) Reschedule(ctx context.Context, job *models.Job) error {
	unlock := d.locks.lock(job.ID)
	defer unlock()

	plan, err := d.resolve(job)
	if err != nil {
		return err
	}

	if plan.Kind == schedule.Recurring {
		if err := d.registerRecurring(ctx, job, plan); err != nil {
			return err
		}
		if err := d.queue.Cancel(ctx, job.ID); err != nil {
			return errors.Wrapf(err, "cancel delayed execution of job %d", job.ID)
		}
		d.logRecurring(job, plan)
		return nil
	}

	// a delayed enqueue replaces the job's pending one, so it goes first
	if plan.Kind == schedule.RunOnce {
		if err := d.enqueue(ctx, job, plan); err != nil {
			return err
		}
		return d.deleteTriggers(ctx, job.ID)
	}

	if err := d.deleteTriggers(ctx, job.ID); err != nil {
		return err
	}
	if err := d.queue.Cancel(ctx, job.ID); err != nil {
		return errors.Wrapf(err, "cancel delayed execution of job %d", job.ID)
	}
	return d.enqueue(ctx, job, plan)
}

// Cancel removes both triggers of the job and any delayed execution that
// has not started. Absent triggers are not an error.
func (d *Dispatcher) Cancel(ctx context.Context, jobID uint) error {
	unlock := d.locks.lock(jobID)
	defer unlock()

	return d.cancel(ctx, jobID)
}

// RunNow enqueues job for immediate execution regardless of its schedule.
// A pending delayed execution of the job, such as a backoff retry, is
// dropped so the job runs once.
func (d *Dispatcher) RunNow(ctx context.Context, job *models.Job) error {
	unlock := d.locks.lock(job.ID)
	defer unlock()

	if err := d.queue.Cancel(ctx, job.ID); err != nil {
		return errors.Wrapf(err, "cancel delayed execution of job %d", job.ID)
	}
	return d.enqueue(ctx, job, schedule.FirePlan{Kind: schedule.RunNow})
}

func (d *Dispatcher) resolve(job *models.Job) (schedule.FirePlan, error) {
	plan, err := d.resolver.Resolve(job.ScheduleType, job.ScheduledTime, job.Frequency, d.now())
	if err != nil {
		return plan, errors.Wrapf(err, "schedule job %d", job.ID)
	}
	return plan, nil
}

func (d *Dispatcher) schedule(ctx context.Context, job *models.Job) error {
	plan, err := d.resolve(job)
	if err != nil {
		return err
	}

	if plan.Kind != schedule.Recurring {
		return d.enqueue(ctx, job, plan)
	}
	if err := d.registerRecurring(ctx, job, plan); err != nil {
		return err
	}
	d.logRecurring(job, plan)
	return nil
}

// enqueue puts a RunNow or RunOnce plan on the queue.
func (d *Dispatcher) enqueue(ctx context.Context, job *models.Job, plan schedule.FirePlan) error {
	log := d.logger.With("job_id", job.ID, "plan", plan.Kind.String())

	if plan.Kind == schedule.RunOnce {
		if err := d.queue.EnqueueAt(ctx, message(job), plan.At); err != nil {
			return errors.Wrapf(err, "enqueue job %d at %s", job.ID, plan.At)
		}
		log.Infow("job enqueued with delay", "at", plan.At)
		return nil
	}

	if err := d.queue.EnqueueNow(ctx, message(job)); err != nil {
		return errors.Wrapf(err, "enqueue job %d", job.ID)
	}
	log.Infow("job enqueued", "priority", job.Priority)
	return nil
}

func (d *Dispatcher) logRecurring(job *models.Job, plan schedule.FirePlan) {
	d.logger.Infow("recurring trigger registered",
		"job_id", job.ID,
		"rule", plan.Rule.String(),
		"first_run", plan.FirstRun,
		"enabled", plan.Enabled,
	)
}

func (d *Dispatcher) registerRecurring(ctx context.Context, job *models.Job, plan schedule.FirePlan) error {
	recurring := trigger.RecurringName(job.ID)
	activation := trigger.ActivationName(job.ID)

	err := d.triggers.InTx(ctx, func(tx trigger.Store) error {
		if err := tx.Delete(ctx, recurring); err != nil {
			return err
		}
		if err := tx.Delete(ctx, activation); err != nil {
			return err
		}

		args := trigger.Args{JobID: job.ID, Priority: job.Priority}
		if err := tx.UpsertRecurring(ctx, recurring, plan.Rule, plan.FirstRun, plan.Enabled, trigger.TaskExecuteJob, args); err != nil {
			return err
		}
		if plan.Enabled {
			return nil
		}
		return tx.UpsertOneOff(ctx, activation, plan.Start, trigger.TaskEnableTrigger, trigger.Args{Trigger: recurring}, true)
	})
	if err != nil {
		return errors.Wrapf(err, "register triggers for job %d", job.ID)
	}
	return nil
}

func (d *Dispatcher) cancel(ctx context.Context, jobID uint) error {
	if err := d.deleteTriggers(ctx, jobID); err != nil {
		return err
	}
	if err := d.queue.Cancel(ctx, jobID); err != nil {
		return errors.Wrapf(err, "cancel delayed execution of job %d", jobID)
	}

	d.logger.Debugw("job schedule cancelled", "job_id", jobID)
	return nil
}

func (d *Dispatcher) deleteTriggers(ctx context.Context, jobID uint) error {
	err := d.triggers.InTx(ctx, func(tx trigger.Store) error {
		if err := tx.Delete(ctx, trigger.RecurringName(jobID)); err != nil {
			return err
		}
		return tx.Delete(ctx, trigger.ActivationName(jobID))
	})
	if err != nil {
		return errors.Wrapf(err, "delete triggers for job %d", jobID)
	}
	return nil
}

func message(job *models.Job) queue.Message {
	return queue.Message{JobID: job.ID, Priority: job.Priority}
}
