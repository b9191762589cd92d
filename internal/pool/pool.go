package pool

import (
	"context"
	"sync"
	"time"

	"github.com/joshu-sajeev/goscheduler/internal/queue"
	"github.com/joshu-sajeev/goscheduler/internal/worker"
	"go.uber.org/zap"
)

// Janitor fails jobs whose worker went away mid-run.
type Janitor interface {
	RecoverStuck(ctx context.Context) (int, error)
}

type WorkerPool struct {
	workers  []*worker.Worker
	janitor  Janitor
	interval time.Duration
	logger   *zap.SugaredLogger
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewWorkerPool(count int, q queue.Queue, runner worker.Runner, janitor Janitor, interval time.Duration, logger *zap.SugaredLogger) *WorkerPool {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{janitor: janitor, interval: interval, logger: logger, ctx: ctx, cancel: cancel}

	for i := 1; i <= count; i++ {
		p.workers = append(p.workers, worker.NewWorker(i, q, runner, logger))
	}
	return p
}

func (p *WorkerPool) Size() int { return len(p.workers) }

func (p *WorkerPool) Start() {
	for _, w := range p.workers {
		w.Start(p.ctx)
	}

	if p.janitor != nil && p.interval > 0 {
		p.wg.Add(1)
		go p.runJanitor()
	}
	p.logger.Infow("worker pool started", "workers", len(p.workers))
}

func (p *WorkerPool) runJanitor() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := p.janitor.RecoverStuck(p.ctx)
			if err != nil {
				p.logger.Errorw("stuck job recovery failed", "error", err)
				continue
			}
			if n > 0 {
				p.logger.Warnw("recovered stuck jobs", "count", n)
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (p *WorkerPool) Stop() {
	p.cancel()
	for _, w := range p.workers {
		w.Stop()
	}
	p.wg.Wait()
	p.logger.Infow("worker pool stopped")
}
