package subscriber

import (
	"context"
	"sync"
	"sync/atomic"
)

type task func(ctx context.Context)

// workerPool runs tasks on a fixed number of goroutines. Submit blocks until a worker is free.
type workerPool struct {
	tasks chan task
	busy  int64
	wg    sync.WaitGroup
}

func newWorkerPool(ctx context.Context, workersCount uint) *workerPool {
	if workersCount == 0 {
		workersCount = 1
	}

	p := &workerPool{tasks: make(chan task)}

	for i := uint(0); i < workersCount; i++ {
		p.wg.Add(1)
		go p.work(ctx)
	}

	return p
}

func (p *workerPool) work(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case t, open := <-p.tasks:
			if !open {
				return
			}
			t(ctx)
			atomic.AddInt64(&p.busy, -1)
		case <-ctx.Done():
			return
		}
	}
}

// submit hands t to a free worker, returns false if ctx is done before any worker became free
func (p *workerPool) submit(ctx context.Context, t task) bool {
	atomic.AddInt64(&p.busy, 1)

	select {
	case p.tasks <- t:
		return true
	case <-ctx.Done():
		atomic.AddInt64(&p.busy, -1)
		return false
	}
}

// busyWorkers returns number of tasks that were submitted and are not finished yet
func (p *workerPool) busyWorkers() int {
	return int(atomic.LoadInt64(&p.busy))
}

// wait blocks until every worker has exited
func (p *workerPool) wait() {
	p.wg.Wait()
}
