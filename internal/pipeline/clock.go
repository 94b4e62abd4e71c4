package pipeline

import (
	"sync"
	"time"
)

// DefaultFrameRate is the display refresh the ticker clock emulates.
const DefaultFrameRate = 60

// Clock schedules the per-frame callback.
type Clock interface {
	// Start begins invoking fn once per frame until Cancel.
	Start(fn func(now time.Time))
	// Cancel stops the callbacks. It is idempotent and returns only once fn
	// can no longer run. It must not be called from inside fn.
	Cancel()
}

// TickerClock drives frames from a time.Ticker.
type TickerClock struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewTickerClock returns a clock running at fps frames per second.
func NewTickerClock(fps int) *TickerClock {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return &TickerClock{interval: time.Second / time.Duration(fps)}
}

// Interval is the time between frames.
func (c *TickerClock) Interval() time.Duration { return c.interval }

func (c *TickerClock) Start(fn func(now time.Time)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != nil {
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop, c.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				// Cancel may have raced the tick.
				select {
				case <-stop:
					return
				default:
				}
				fn(now)
			}
		}
	}()
}

func (c *TickerClock) Cancel() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}
