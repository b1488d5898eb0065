package gpio

import (
	"sync"
	"time"
)

// pattern plays timed on/off sequences on a line from a background
// goroutine. At most one sequence runs at a time.
type pattern struct {
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// start cancels any running sequence and begins a new one. write is
// called from the pattern goroutine.
func (p *pattern) start(on, off time.Duration, n int, write func(bool)) {
	p.cancel()
	if n <= 0 {
		return
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	p.mu.Lock()
	p.stop, p.done = stop, done
	p.mu.Unlock()

	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			write(true)
			if !sleepUnless(stop, on) {
				write(false)
				return
			}
			write(false)
			if !sleepUnless(stop, off) {
				return
			}
		}
	}()
}

// cancel stops the running sequence, if any, and waits for it to exit.
func (p *pattern) cancel() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// wait blocks until the running sequence finishes on its own.
func (p *pattern) wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// sleepUnless sleeps for d unless stop is closed first. Returns false if stopped.
func sleepUnless(stop <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}
