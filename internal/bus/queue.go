package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrQueueClosed is returned by Submit after Close.
var ErrQueueClosed = errors.New("queue closed")

// Handler processes one queued message.
type Handler func(ctx context.Context, msg *Message)

// Queue feeds inbound messages to a fixed pool of workers.
// Uses a buffered channel so a burst blocks submitters instead of growing memory.
type Queue struct {
	ch      chan *Message
	workers int
	handle  Handler

	mu        sync.RWMutex
	closed    bool
	processed atomic.Int64
}

// NewQueue creates a queue holding up to size messages served by workers goroutines.
func NewQueue(size, workers int, handle Handler) *Queue {
	if size < 1 {
		size = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		ch:      make(chan *Message, size),
		workers: workers,
		handle:  handle,
	}
}

// Submit enqueues msg, blocking while the queue is full.
func (q *Queue) Submit(ctx context.Context, msg *Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting messages. Workers finish what is already queued.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// Run starts the workers and blocks until Close has been called and every
// queued message has been handled. ctx is passed to the handler.
func (q *Queue) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range q.ch {
				q.handle(ctx, msg)
				q.processed.Add(1)
			}
		}()
	}
	wg.Wait()
}

// Pending returns the number of messages waiting for a worker.
func (q *Queue) Pending() int {
	return len(q.ch)
}

// Processed returns the number of messages handled so far.
func (q *Queue) Processed() int64 {
	return q.processed.Load()
}
