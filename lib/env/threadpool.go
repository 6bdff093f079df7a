package env

import (
	"runtime"
	"sync"

	"github.com/sourcegraph/conc"
)

// ThreadPool runs background work for an environment with bounded parallelism.
// Backends embed it to implement Env.Schedule.
type ThreadPool struct {
	mu     sync.Mutex
	closed bool
	wg     conc.WaitGroup
	slots  chan struct{}
}

// NewThreadPool creates a pool that runs at most size functions at once.
// A size below one uses the number of CPUs.
func NewThreadPool(size int) *ThreadPool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	return &ThreadPool{
		slots: make(chan struct{}, size),
	}
}

// Schedule queues fn. It never blocks on running work.
func (p *ThreadPool) Schedule(fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return NewError(KindResourceAlreadyClosed, "thread pool is closed")
	}
	p.wg.Go(func() {
		p.slots <- struct{}{}
		defer func() { <-p.slots }()
		fn()
	})
	return nil
}

// Close rejects new work and waits for scheduled work to finish.
// A panic in scheduled work is re-raised here.
func (p *ThreadPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
}
