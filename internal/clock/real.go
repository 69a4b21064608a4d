package clock

import (
	"sync"
	"time"
)

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realClock) Every(interval time.Duration, f func()) Timer {
	if interval <= 0 {
		panic("clock: non-positive interval for Every")
	}
	t := &realTicker{ticker: time.NewTicker(interval), done: make(chan struct{})}
	go t.loop(f)
	return t
}

// realTicker runs f on its own goroutine for every tick. A slow f delays
// the next call; ticks that arrive meanwhile are dropped by time.Ticker.
type realTicker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *realTicker) loop(f func()) {
	for {
		select {
		case <-t.ticker.C:
			f()
		case <-t.done:
			return
		}
	}
}

func (t *realTicker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
