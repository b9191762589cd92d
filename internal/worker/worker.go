package worker

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joshu-sajeev/goscheduler/common"
	"github.com/joshu-sajeev/goscheduler/internal/queue"
	"go.uber.org/zap"
)

// Runner executes one queued message.
type Runner interface {
	Run(ctx context.Context, msg queue.Message) error
}

// Worker pulls messages off the queue one at a time and hands them to a
// Runner.
type Worker struct {
	ID     int
	queue  queue.Queue
	runner Runner
	logger *zap.SugaredLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(id int, q queue.Queue, runner Runner, logger *zap.SugaredLogger) *Worker {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Worker{ID: id, queue: q, runner: runner, logger: logger.With("worker_id", id)}
}

func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		currentDelay := 1 * time.Second
		maxDelay := 60 * time.Second

		for {
			msg, err := w.queue.Dequeue(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, common.ErrQueueClosed) {
					return
				}

				w.logger.Warnw("dequeue failed", "error", err, "retry_in", currentDelay)
				select {
				case <-time.After(currentDelay):
				case <-ctx.Done():
					return
				}
				currentDelay = min(currentDelay*2, maxDelay)
				continue
			}
			currentDelay = 1 * time.Second

			w.process(ctx, msg)
		}
	}()
}

// process runs msg to completion even if the worker is stopped meanwhile.
func (w *Worker) process(ctx context.Context, msg queue.Message) {
	if err := w.runner.Run(context.WithoutCancel(ctx), msg); err != nil {
		w.logger.Errorw("job run failed", "job_id", msg.JobID, "error", err)
	}
}

// Stop stops pulling new work and waits for the current job to finish.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
