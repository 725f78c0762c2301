package scheduler

import (
	"context"
	"sync"
)

// Future holds the result of a work item added to a Scheduler.
type Future[T any] struct {
	input    chan Result[T]
	value    Result[T]
	resolved bool
	cancel   context.CancelFunc
	lock     sync.Mutex
}

func newFuture[T any](input chan Result[T], cancel context.CancelFunc) *Future[T] {
	return &Future[T]{input: input, cancel: cancel}
}

// C yields the result once. Use Wait or Poll when the result is needed
// more than once.
func (f *Future[T]) C() <-chan Result[T] {
	return f.input
}

// Wait blocks until the work finishes or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) Result[T] {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.resolved {
		return f.value
	}

	select {
	case v := <-f.input:
		f.value = v
		f.resolved = true
		f.cancel()
		return v
	case <-ctx.Done():
		return Result[T]{Err: ctx.Err()}
	}
}

func (f *Future[T]) Poll() (value Result[T], isResolved bool) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.resolved {
		return f.value, true
	}

	select {
	case v := <-f.input:
		f.value = v
		f.resolved = true
		f.cancel()
		return v, true
	default:
		return Result[T]{}, false
	}
}

// Stop cancels the context of the work.
func (f *Future[T]) Stop() {
	f.cancel()
}
