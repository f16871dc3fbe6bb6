package scheduler

import "golang.org/x/sync/errgroup"

// Dispatcher abstracts the worker pool that executes compute workloads off
// the scheduler's goroutine. Submit must not block for long and must run the
// task on some other goroutine.
type Dispatcher interface {
	Submit(task func())
}

// GoDispatcher runs every task on its own goroutine. Sufficient for the
// single-flight scheduler, which dispatches at most one workload at a time
// under normal operation.
type GoDispatcher struct{}

func (GoDispatcher) Submit(task func()) {
	go task()
}

// PoolDispatcher bounds concurrent tasks with an errgroup limit. Useful when
// several scheduler instances share one pool.
type PoolDispatcher struct {
	g *errgroup.Group
}

// NewPoolDispatcher creates a dispatcher running at most limit tasks at once.
// A non-positive limit means unbounded.
func NewPoolDispatcher(limit int) *PoolDispatcher {
	g := &errgroup.Group{}
	if limit > 0 {
		g.SetLimit(limit)
	}
	return &PoolDispatcher{g: g}
}

func (d *PoolDispatcher) Submit(task func()) {
	d.g.Go(func() error {
		task()
		return nil
	})
}

// Wait blocks until all submitted tasks have finished.
func (d *PoolDispatcher) Wait() {
	_ = d.g.Wait()
}
