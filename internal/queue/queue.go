// Package queue carries job ids from the dispatcher and the beat to the
// workers. Ready work is ordered by priority, higher first, then FIFO.
// Delayed work is keyed by job id: a newer delayed enqueue for the same job
// replaces the older one.
package queue

import (
	"context"
	"time"
)

// Message is one requested execution of a job.
type Message struct {
	JobID    uint   `json:"job_id"`
	Priority int    `json:"priority"`
	Token    string `json:"token,omitempty"`

	// Attempt counts automatic retries within the current fire; triggers
	// and manual runs start at 0.
	Attempt int `json:"attempt,omitempty"`
}

// Producer is the enqueue side used by the dispatcher, the beat and the
// executor's retry path.
type Producer interface {
	EnqueueNow(ctx context.Context, msg Message) error
	EnqueueAt(ctx context.Context, msg Message, at time.Time) error
	EnqueueAfter(ctx context.Context, msg Message, delay time.Duration) error
	// Cancel drops a delayed execution of the job that has not started yet.
	// It is not an error if there is none.
	Cancel(ctx context.Context, jobID uint) error
}

// Queue is a Producer that workers can also consume from.
type Queue interface {
	Producer
	// Dequeue blocks until a message is ready or ctx is done.
	Dequeue(ctx context.Context) (Message, error)
	Close() error
}
