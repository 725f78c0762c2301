package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type Work[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Data T
	Err  error
}

type workRequest[T any] struct {
	fn     Work[T]
	c      chan Result[T]
	ctx    context.Context
	cancel context.CancelFunc
}

// Scheduler runs work on a fixed number of workers. Work is dispatched in
// the order it was added.
type Scheduler[T any] struct {
	free       int
	queue      []workRequest[T]
	work       chan workRequest[T]
	done       chan struct{}
	close      chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
	mainCtx    context.Context
	mainCancel context.CancelFunc
}

// NewScheduler starts a scheduler with nbWorkers workers. Work contexts are
// derived from ctx.
func NewScheduler[T any](ctx context.Context, nbWorkers int) *Scheduler[T] {
	if nbWorkers < 1 {
		nbWorkers = 1
	}

	mainCtx, cancel := context.WithCancel(ctx)
	s := &Scheduler[T]{
		free:       nbWorkers,
		work:       make(chan workRequest[T]),
		done:       make(chan struct{}),
		close:      make(chan struct{}),
		stopped:    make(chan struct{}),
		mainCtx:    mainCtx,
		mainCancel: cancel,
	}
	go s.run()
	return s
}

func (s *Scheduler[T]) AddWork(w Work[T]) *Future[T] {
	c := make(chan Result[T], 1)
	ctx, cancel := context.WithCancel(s.mainCtx)
	r := workRequest[T]{fn: w, c: c, ctx: ctx, cancel: cancel}

	select {
	case s.work <- r:
	case <-s.stopped:
		cancel()
		c <- Result[T]{Err: ctx.Err()}
	}
	return newFuture(c, cancel)
}

// Close cancels every running work and waits for the workers to return.
func (s *Scheduler[T]) Close() {
	s.closeOnce.Do(func() {
		s.mainCancel()
		close(s.close)
		<-s.stopped
		s.wg.Wait()
	})
}

func (s *Scheduler[T]) run() {
	for {
		select {
		case r := <-s.work:
			s.queue = append(s.queue, r)
		case <-s.done:
			s.free++
		case <-s.close:
			for _, r := range s.queue {
				r.cancel()
				r.c <- Result[T]{Err: r.ctx.Err()}
			}
			s.queue = nil
			close(s.stopped)
			return
		}

		for s.free > 0 && len(s.queue) > 0 {
			r := s.queue[0]
			s.queue = s.queue[1:]
			s.free--
			s.wg.Add(1)
			go s.execute(r)
		}
	}
}

func (s *Scheduler[T]) execute(r workRequest[T]) {
	defer s.wg.Done()
	defer func() {
		select {
		case s.done <- struct{}{}:
		case <-s.stopped:
		}
	}()

	r.c <- s.call(r)
}

func (s *Scheduler[T]) call(r workRequest[T]) (result Result[T]) {
	defer func() {
		if p := recover(); p != nil {
			zap.S().Named("scheduler").Errorw("worker panicked", "panic", p)
			result = Result[T]{Err: fmt.Errorf("worker panicked: %v", p)}
		}
	}()

	v, err := r.fn(r.ctx)
	return Result[T]{Data: v, Err: err}
}
