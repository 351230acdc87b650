package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RefreshCoordinator collapses bursts of change notifications into single
// refresh executions. Three rules stack:
//
//   - a request only fires after the debounce window of quiescence;
//   - two executions are always at least MinGap apart, damping feedback
//     loops from the notification fan-out;
//   - a periodic safety-net run fires on a long interval, skipped when a
//     refresh already executed recently.
type RefreshCoordinator struct {
	refresh func(context.Context)
	log     zerolog.Logger

	debounce   time.Duration
	minGap     time.Duration
	periodic   time.Duration
	recentSkip time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	lastExec time.Time
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type RefreshConfig struct {
	Debounce   time.Duration
	MinGap     time.Duration
	Periodic   time.Duration
	RecentSkip time.Duration
}

func NewRefreshCoordinator(cfg RefreshConfig, refresh func(context.Context), log zerolog.Logger) *RefreshCoordinator {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 800 * time.Millisecond
	}
	if cfg.MinGap <= 0 {
		cfg.MinGap = 2 * time.Second
	}
	if cfg.Periodic <= 0 {
		cfg.Periodic = 10 * time.Minute
	}
	if cfg.RecentSkip <= 0 {
		cfg.RecentSkip = 3 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &RefreshCoordinator{
		refresh:    refresh,
		log:        log,
		debounce:   cfg.Debounce,
		minGap:     cfg.MinGap,
		periodic:   cfg.Periodic,
		recentSkip: cfg.RecentSkip,
		ctx:        ctx,
		cancel:     cancel,
	}

	c.wg.Add(1)
	go c.periodicLoop()

	return c
}

// Request schedules a refresh after the debounce window. Calls inside the
// window reset the timer.
func (c *RefreshCoordinator) Request() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.fire)
}

// fire runs when the debounce window elapses. If the minimum gap since the
// last execution has not passed, the run is pushed out to the gap boundary
// instead of being dropped.
func (c *RefreshCoordinator) fire() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	wait := c.minGap - time.Since(c.lastExec)
	if wait > 0 {
		c.timer = time.AfterFunc(wait, c.fire)
		c.mu.Unlock()
		return
	}
	c.lastExec = time.Now()
	c.mu.Unlock()

	c.refresh(c.ctx)
}

func (c *RefreshCoordinator) periodicLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.periodic)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.closed || time.Since(c.lastExec) < c.recentSkip {
				c.mu.Unlock()
				continue
			}
			c.lastExec = time.Now()
			c.mu.Unlock()

			c.log.Debug().Msg("periodic safety-net refresh")
			c.refresh(c.ctx)
		}
	}
}

// LastExecution reports when a refresh last ran.
func (c *RefreshCoordinator) LastExecution() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastExec
}

// Close stops the pending debounce timer and the periodic loop. No refresh
// fires after Close returns.
func (c *RefreshCoordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
