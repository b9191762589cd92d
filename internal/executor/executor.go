// Package executor runs jobs: it moves a job through running to completed
// or failed, retries failures with exponential backoff and publishes every
// status change.
package executor

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joshu-sajeev/goscheduler/common"
	"github.com/joshu-sajeev/goscheduler/internal/config"
	"github.com/joshu-sajeev/goscheduler/internal/dto"
	"github.com/joshu-sajeev/goscheduler/internal/models"
	"github.com/joshu-sajeev/goscheduler/internal/notify"
	"github.com/joshu-sajeev/goscheduler/internal/queue"
	"go.uber.org/zap"
)

// JobStore is the persistence the executor needs.
type JobStore interface {
	Get(ctx context.Context, id uint) (*models.Job, error)
	Save(ctx context.Context, job *models.Job) error
	ListStuckJobs(ctx context.Context, staleDuration time.Duration) ([]models.Job, error)
}

type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64) error
	URLFor(ctx context.Context, key string) (string, error)
}

// Handler performs the work of one job type and returns its result.
type Handler func(ctx context.Context, job *models.Job) (map[string]any, error)

type Config struct {
	// RetryBaseDelay is the backoff unit: after a job's n-th failure the
	// retry waits RetryBaseDelay*2^n.
	RetryBaseDelay time.Duration
	// SimulatedJobDelay is how long placeholder job types take.
	SimulatedJobDelay time.Duration
	// StaleJobTimeout is how long a job may stay running before
	// RecoverStuck fails it.
	StaleJobTimeout time.Duration
}

type Executor struct {
	jobs     JobStore
	queue    queue.Producer
	notifier notify.Notifier
	mailer   Mailer
	objects  ObjectStore
	cfg      Config
	logger   *zap.SugaredLogger
	handlers map[config.JobType]Handler
}

func New(
	jobs JobStore,
	q queue.Producer,
	notifier notify.Notifier,
	mailer Mailer,
	objects ObjectStore,
	cfg Config,
	logger *zap.SugaredLogger,
) *Executor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	e := &Executor{
		jobs:     jobs,
		queue:    q,
		notifier: notifier,
		mailer:   mailer,
		objects:  objects,
		cfg:      cfg,
		logger:   logger,
	}
	e.handlers = map[config.JobType]Handler{
		config.JobTypeSendEmail:  e.sendEmail,
		config.JobTypeUploadFile: e.uploadFile,
	}
	return e
}

// Backoff is the delay before the automatic retry that follows the
// retries-th failure.
func Backoff(base time.Duration, retries int) time.Duration {
	if retries < 0 {
		retries = 0
	}
	d := float64(base) * math.Pow(2, float64(retries))
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Run executes one queued message. Handler failures are recorded on the
// job and retried; only persistence failures are returned.
func (e *Executor) Run(ctx context.Context, msg queue.Message) error {
	log := e.logger.With("job_id", msg.JobID)

	job, err := e.jobs.Get(ctx, msg.JobID)
	if err != nil {
		if errors.Is(err, common.ErrJobNotFound) {
			log.Infow("job was deleted before it ran")
			e.publishDeleted(ctx, msg.JobID)
			return nil
		}
		return errors.Wrapf(err, "load job %d", msg.JobID)
	}

	job, err = e.start(ctx, job)
	if err != nil {
		return e.saveFailed(ctx, msg.JobID, err)
	}
	log = log.With("job_type", job.JobType, "attempt", msg.Attempt+1)
	e.publish(ctx, job)
	log.Infow("job started")

	result, runErr := e.handle(ctx, job)

	retry := false
	switch {
	case runErr == nil:
		job.Status = config.JobStatusCompleted
		job.SetResult(result)
	case errors.Is(runErr, common.ErrSourceMissing):
		job.Status = config.JobStatusFailed
		job.SetResult(map[string]any{
			"error":   runErr.Error(),
			"message": "Upload source file is missing; the job will not be retried.",
		})
	default:
		job.Status = config.JobStatusFailed
		job.Retries++
		job.SetResult(map[string]any{"error": runErr.Error()})
		retry = msg.Attempt < job.MaxRetries
	}

	if err := e.save(ctx, job); err != nil {
		return e.saveFailed(ctx, job.ID, err)
	}
	e.publish(ctx, job)

	if runErr == nil {
		log.Infow("job completed")
		return nil
	}

	if !retry {
		log.Warnw("job failed permanently", "error", runErr, "retries", job.Retries)
		return nil
	}

	delay := Backoff(e.cfg.RetryBaseDelay, job.Retries)
	next := queue.Message{JobID: job.ID, Priority: job.Priority, Attempt: msg.Attempt + 1}
	if err := e.queue.EnqueueAfter(ctx, next, delay); err != nil {
		log.Errorw("could not schedule retry", "error", err)
		return errors.Wrapf(err, "schedule retry of job %d", job.ID)
	}
	log.Warnw("job failed, retry scheduled", "error", runErr, "retries", job.Retries, "delay", delay)
	return nil
}

// RecoverStuck fails jobs left running by a worker that went away, so
// that an operator can retry them. It returns how many were recovered.
func (e *Executor) RecoverStuck(ctx context.Context) (int, error) {
	stuck, err := e.jobs.ListStuckJobs(ctx, e.cfg.StaleJobTimeout)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for i := range stuck {
		job := &stuck[i]
		job.Status = config.JobStatusFailed
		job.SetResult(map[string]any{"error": "worker stopped while the job was running"})
		if err := e.save(ctx, job); err != nil {
			// it moved on since it was listed
			e.logger.Debugw("skipping stuck job", "job_id", job.ID, "error", err)
			continue
		}
		e.publish(ctx, job)
		e.logger.Warnw("recovered stuck job", "job_id", job.ID)
		recovered++
	}
	return recovered, nil
}

func (e *Executor) handle(ctx context.Context, job *models.Job) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("handler panic: %v", r)
		}
	}()

	h, ok := e.handlers[job.JobType]
	if !ok {
		h = e.simulate
	}
	return h(ctx, job)
}

func (e *Executor) save(ctx context.Context, job *models.Job) error {
	return e.jobs.Save(ctx, job)
}

// start moves job to running. A job changed since it was loaded, for
// instance by a schedule update, is reloaded once and started from the
// current row.
func (e *Executor) start(ctx context.Context, job *models.Job) (*models.Job, error) {
	job.Status = config.JobStatusRunning
	err := e.save(ctx, job)
	if !errors.Is(err, common.ErrStaleJob) {
		return job, err
	}

	e.logger.Debugw("job changed before it started, reloading", "job_id", job.ID)
	fresh, err := e.jobs.Get(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	fresh.Status = config.JobStatusRunning
	if err := e.save(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// saveFailed handles a save error mid-run. A job deleted while it ran is
// reported as deleted; anything else goes back to the caller.
func (e *Executor) saveFailed(ctx context.Context, id uint, err error) error {
	if errors.Is(err, common.ErrJobNotFound) {
		e.logger.Infow("job was deleted while it ran", "job_id", id)
		e.publishDeleted(ctx, id)
		return nil
	}
	return errors.Wrapf(err, "save job %d", id)
}

func (e *Executor) publish(ctx context.Context, job *models.Job) {
	e.notify(ctx, dto.StatusEventDTO{
		ID:     job.ID,
		Status: job.Status,
		Result: resultJSON(job),
	})
}

func (e *Executor) publishDeleted(ctx context.Context, id uint) {
	e.notify(ctx, dto.StatusEventDTO{ID: id, Status: config.JobStatusDeleted})
}

func (e *Executor) notify(ctx context.Context, ev dto.StatusEventDTO) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Publish(ctx, config.JobStatusTopic, ev); err != nil {
		e.logger.Warnw("status notification failed", "job_id", ev.ID, "status", ev.Status, "error", err)
	}
}

func resultJSON(job *models.Job) json.RawMessage {
	if len(job.Result) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(job.Result)
}
