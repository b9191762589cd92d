package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joshu-sajeev/goscheduler/common"
	"github.com/joshu-sajeev/goscheduler/internal/models"
	"github.com/joshu-sajeev/goscheduler/internal/queue"
	"github.com/joshu-sajeev/goscheduler/internal/schedule"
	"go.uber.org/zap"
)

// Beat fires due triggers on a fixed tick. Claimed triggers are row locked
// for the tick's transaction, so several beats may run against one store.
type Beat struct {
	store    Store
	queue    queue.Producer
	logger   *zap.SugaredLogger
	interval time.Duration
	batch    int
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type BeatOption func(*Beat)

func WithBatchSize(n int) BeatOption {
	return func(b *Beat) { b.batch = n }
}

func WithClock(now func() time.Time) BeatOption {
	return func(b *Beat) { b.now = now }
}

func NewBeat(store Store, q queue.Producer, interval time.Duration, logger *zap.SugaredLogger, opts ...BeatOption) *Beat {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	b := &Beat{
		store:    store,
		queue:    q,
		logger:   logger,
		interval: interval,
		batch:    100,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Beat) Start(ctx context.Context) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := b.Tick(ctx); err != nil {
					b.logger.Errorw("beat tick failed", "error", err)
				}
			case <-b.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	b.logger.Infow("beat started", "interval", b.interval)
}

// Stop ends the tick loop and waits for an in-flight tick. Calling it
// more than once is harmless.
func (b *Beat) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
		b.wg.Wait()
		b.logger.Infow("beat stopped")
	})
}

// Tick fires every trigger due at the current time and returns how many
// fired.
func (b *Beat) Tick(ctx context.Context) (int, error) {
	now := b.now()
	fired := 0

	err := b.store.InTx(ctx, func(tx Store) error {
		due, err := tx.ClaimDue(ctx, now, b.batch)
		if err != nil {
			return err
		}
		for i := range due {
			if b.fire(ctx, tx, &due[i], now) {
				fired++
			}
		}
		return nil
	})
	if err != nil {
		return fired, errors.Wrap(err, "fire due triggers")
	}
	return fired, nil
}

func (b *Beat) fire(ctx context.Context, tx Store, t *models.Trigger, now time.Time) bool {
	log := b.logger.With("trigger", t.Name, "task", t.Task)

	args, err := DecodeArgs(t)
	if err != nil {
		log.Errorw("skipping trigger with unreadable args", "error", err)
		return false
	}

	switch Task(t.Task) {
	case TaskExecuteJob:
		msg := queue.Message{JobID: args.JobID, Priority: args.Priority}
		if err := b.queue.EnqueueNow(ctx, msg); err != nil {
			// left due; the next tick tries again
			log.Errorw("enqueue from trigger failed", "job_id", args.JobID, "error", err)
			return false
		}
	case TaskEnableTrigger:
		if err := tx.Enable(ctx, args.Trigger); err != nil {
			if !errors.Is(err, common.ErrTriggerNotFound) {
				log.Errorw("enable trigger failed", "target", args.Trigger, "error", err)
				return false
			}
			log.Warnw("activation target is gone", "target", args.Trigger)
		}
	default:
		log.Errorw("unknown trigger task")
		return false
	}

	next, err := b.nextRun(t, now)
	if err != nil {
		log.Errorw("cannot compute next run, disabling", "error", err)
	}
	if err := tx.MarkFired(ctx, t.ID, now, next); err != nil {
		log.Errorw("record trigger fire failed", "error", err)
		return false
	}

	log.Debugw("trigger fired", "next_run_at", next)
	return true
}

func (b *Beat) nextRun(t *models.Trigger, now time.Time) (*time.Time, error) {
	if t.Kind != models.TriggerRecurring {
		return nil, nil
	}
	rule, err := schedule.ParseRule(t.Expression, t.Timezone)
	if err != nil {
		return nil, err
	}
	next, err := rule.Next(now)
	if err != nil {
		return nil, err
	}
	return &next, nil
}
