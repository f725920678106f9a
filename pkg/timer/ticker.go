package timer

import (
	"sync"
	"time"
)

// Ticker calls a function on a fixed interval from its own goroutine until
// stopped. A Ticker is single-use.
type Ticker struct {
	stopCh chan struct{}
	once   sync.Once
}

// StartTicker begins calling fn every interval.
func StartTicker(interval time.Duration, fn func()) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	t := &Ticker{stopCh: make(chan struct{})}
	go t.run(interval, fn)
	return t
}

func (t *Ticker) run(interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			select {
			case <-t.stopCh:
				return
			default:
			}
			fn()
		}
	}
}

// Stop ends the loop. It does not wait for an in-flight call to fn, so it is
// safe to call while holding a lock fn acquires. Stop is idempotent.
func (t *Ticker) Stop() {
	if t == nil {
		return
	}
	t.once.Do(func() { close(t.stopCh) })
}
