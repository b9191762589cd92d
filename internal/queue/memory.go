package queue

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/joshu-sajeev/goscheduler/common"
)

type item struct {
	msg Message
	seq uint64
}

type readyHeap []item

func (h readyHeap) Len() int { return len(h) }
func (h readyHeap) Less(i, j int) bool {
	if h[i].msg.Priority != h[j].msg.Priority {
		return h[i].msg.Priority > h[j].msg.Priority
	}
	return h[i].seq < h[j].seq
}
func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *readyHeap) Push(x any)   { *h = append(*h, x.(item)) }
func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// MemoryQueue is an in-process Queue. Delayed messages are held by timers
// and are lost when the process exits.
type MemoryQueue struct {
	mu      sync.Mutex
	ready   readyHeap
	delayed map[uint]*time.Timer
	seq     uint64
	signal  chan struct{}
	done    chan struct{}
	closed  bool
}

var _ Queue = (*MemoryQueue)(nil)

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		delayed: make(map[uint]*time.Timer),
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (q *MemoryQueue) EnqueueNow(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return common.ErrQueueClosed
	}
	q.pushLocked(msg)
	return nil
}

func (q *MemoryQueue) EnqueueAt(ctx context.Context, msg Message, at time.Time) error {
	return q.EnqueueAfter(ctx, msg, time.Until(at))
}

func (q *MemoryQueue) EnqueueAfter(ctx context.Context, msg Message, delay time.Duration) error {
	if delay <= 0 {
		return q.EnqueueNow(ctx, msg)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return common.ErrQueueClosed
	}

	if old, ok := q.delayed[msg.JobID]; ok {
		old.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.closed || q.delayed[msg.JobID] != timer {
			return
		}
		delete(q.delayed, msg.JobID)
		q.pushLocked(msg)
	})
	q.delayed[msg.JobID] = timer
	return nil
}

func (q *MemoryQueue) Cancel(_ context.Context, jobID uint) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.delayed[jobID]; ok {
		t.Stop()
		delete(q.delayed, jobID)
	}
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Message, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return Message{}, common.ErrQueueClosed
		}
		if q.ready.Len() > 0 {
			it := heap.Pop(&q.ready).(item)
			if q.ready.Len() > 0 {
				q.wakeLocked()
			}
			q.mu.Unlock()
			return it.msg, nil
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-q.done:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// Len reports ready and delayed message counts.
func (q *MemoryQueue) Len() (ready, delayed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready.Len(), len(q.delayed)
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	for id, t := range q.delayed {
		t.Stop()
		delete(q.delayed, id)
	}
	close(q.done)
	return nil
}

func (q *MemoryQueue) pushLocked(msg Message) {
	q.seq++
	heap.Push(&q.ready, item{msg: msg, seq: q.seq})
	q.wakeLocked()
}

func (q *MemoryQueue) wakeLocked() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
