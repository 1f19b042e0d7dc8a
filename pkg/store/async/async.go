// Package async adapts any family.Store into a fire-and-forget store.
//
// Writes are queued to a single background worker and return immediately;
// failures are reported through an error callback rather than to the caller.
// Reads first wait for every write queued before them, so an explicit
// re-fetch always observes earlier writes.
//
// The queue is FIFO and drained by one goroutine, so writes reach the
// underlying store in the order they were issued.
package async

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
)

// DefaultQueueSize is the number of writes that may be pending before
// enqueueing blocks.
const DefaultQueueSize = 256

// ErrorFunc receives failed writes. op names the store method.
type ErrorFunc func(op string, err error)

// Options configures a Store.
type Options struct {
	QueueSize int
	OnError   ErrorFunc
	Logger    *log.Logger
}

type job struct {
	op  string
	ctx context.Context
	run func(ctx context.Context) error
	// done is closed after run; only set for flush barriers.
	done chan struct{}
}

// Store queues writes to inner.
type Store struct {
	inner   family.Store
	logger  *log.Logger
	onError ErrorFunc

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	exited chan struct{}
}

// New starts the worker. Close stops it after draining the queue.
func New(inner family.Store, opts Options) *Store {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := &Store{
		inner:   inner,
		logger:  opts.Logger,
		onError: opts.OnError,
		jobs:    make(chan job, opts.QueueSize),
		exited:  make(chan struct{}),
	}
	if s.onError == nil {
		s.onError = func(op string, err error) {
			s.logger.Error("async store write failed", "op", op, "err", err)
		}
	}
	go s.work()
	return s
}

func (s *Store) work() {
	defer close(s.exited)
	for j := range s.jobs {
		if j.run != nil {
			if err := j.run(j.ctx); err != nil {
				s.onError(j.op, err)
			}
		}
		if j.done != nil {
			close(j.done)
		}
	}
}

// enqueue hands a job to the worker. The job runs with ctx's values but
// without its cancellation, since the caller has already moved on.
func (s *Store) enqueue(ctx context.Context, op string, run func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New(errors.ErrCodeUnavailable, "async store closed")
	}
	select {
	case s.jobs <- job{op: op, ctx: context.WithoutCancel(ctx), run: run}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every write queued before the call has run.
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil
	}
	select {
	case s.jobs <- job{op: "flush", done: done}:
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	s.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) ListMembers(ctx context.Context) ([]family.Member, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	return s.inner.ListMembers(ctx)
}

func (s *Store) ListConnections(ctx context.Context) ([]family.Connection, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	return s.inner.ListConnections(ctx)
}

func (s *Store) CreateMember(ctx context.Context, m family.Member) error {
	return s.enqueue(ctx, "create_member", func(ctx context.Context) error { return s.inner.CreateMember(ctx, m) })
}

func (s *Store) UpdateMember(ctx context.Context, m family.Member) error {
	return s.enqueue(ctx, "update_member", func(ctx context.Context) error { return s.inner.UpdateMember(ctx, m) })
}

func (s *Store) DeleteMember(ctx context.Context, id string) error {
	return s.enqueue(ctx, "delete_member", func(ctx context.Context) error { return s.inner.DeleteMember(ctx, id) })
}

func (s *Store) CreateConnection(ctx context.Context, c family.Connection) error {
	return s.enqueue(ctx, "create_connection", func(ctx context.Context) error { return s.inner.CreateConnection(ctx, c) })
}

func (s *Store) UpdateConnection(ctx context.Context, c family.Connection) error {
	return s.enqueue(ctx, "update_connection", func(ctx context.Context) error { return s.inner.UpdateConnection(ctx, c) })
}

func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	return s.enqueue(ctx, "delete_connection", func(ctx context.Context) error { return s.inner.DeleteConnection(ctx, id) })
}

// ClearSelfExcept queues the self reset as one job, so it cannot interleave
// with the write that follows it.
func (s *Store) ClearSelfExcept(ctx context.Context, keepID string) error {
	return s.enqueue(ctx, "clear_self", func(ctx context.Context) error {
		if sc, ok := s.inner.(family.SelfClearer); ok {
			return sc.ClearSelfExcept(ctx, keepID)
		}
		members, err := s.inner.ListMembers(ctx)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.IsSelf && m.ID != keepID {
				m.IsSelf = false
				if err := s.inner.UpdateMember(ctx, m); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Close drains the queue, stops the worker and closes the inner store.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()

	<-s.exited
	return s.inner.Close()
}
