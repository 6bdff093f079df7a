package env

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestThreadPoolRunsAll(t *testing.T) {
	p := NewThreadPool(2)

	var count atomic.Int32
	for i := 0; i < 100; i++ {
		if err := p.Schedule(func() { count.Add(1) }); err != nil {
			t.Fatalf("Schedule failed: %v", err)
		}
	}
	p.Close()

	if count.Load() != 100 {
		t.Errorf("Expected 100 runs, got %d", count.Load())
	}
}

func TestThreadPoolBound(t *testing.T) {
	const size = 3
	p := NewThreadPool(size)
	defer p.Close()

	var (
		running, peak atomic.Int32
		wg            sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		_ = p.Schedule(func() {
			defer wg.Done()
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
		})
	}
	wg.Wait()

	if peak.Load() > size {
		t.Errorf("Expected at most %d concurrent runs, got %d", size, peak.Load())
	}
}

func TestThreadPoolClose(t *testing.T) {
	p := NewThreadPool(0)
	p.Close()
	p.Close()

	if err := p.Schedule(func() {}); !errors.Is(err, ErrResourceAlreadyClosed) {
		t.Errorf("Expected ResourceAlreadyClosed, got %v", err)
	}
}
