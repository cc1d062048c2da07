package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	metrics "github.com/Maynkbisht/AI-Router/pkg/observability"
	"github.com/Maynkbisht/AI-Router/pkg/security"
	"github.com/Maynkbisht/AI-Router/pkg/session"
	rcron "github.com/robfig/cron/v3"
)

// Drainer periodically processes pending prompts in the background. Each
// tick takes at most one prompt from every session, then evicts idle
// sessions and stale rate limiter keys.
type Drainer struct {
	router   *Router
	sessions *session.Manager
	schedule string
	idle     time.Duration
	timeout  time.Duration

	limiter     *security.RateLimiter
	limiterIdle time.Duration

	mu      sync.Mutex
	cron    *rcron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.Mutex
}

// DrainerOption configures a Drainer.
type DrainerOption func(*Drainer)

// WithLimiterPrune makes every tick forget limiter keys unseen for idle.
func WithLimiterPrune(l *security.RateLimiter, idle time.Duration) DrainerOption {
	return func(d *Drainer) {
		d.limiter = l
		d.limiterIdle = idle
	}
}

// NewDrainer creates a drainer. schedule is a standard cron spec or a
// descriptor such as "@every 30s".
func NewDrainer(r *Router, sessions *session.Manager, schedule string, idle time.Duration, opts ...DrainerOption) *Drainer {
	d := &Drainer{
		router:   r,
		sessions: sessions,
		schedule: schedule,
		idle:     idle,
		timeout:  2 * time.Minute,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start registers the job and starts the scheduler. It stops when ctx ends.
func (d *Drainer) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cron != nil {
		return errors.New("drainer already started")
	}
	if d.schedule == "" {
		log.Printf("[Drainer] disabled (no schedule)")
		return nil
	}

	c := rcron.New()
	if _, err := c.AddFunc(d.schedule, func() { d.Tick() }); err != nil {
		return fmt.Errorf("invalid drain schedule %q: %w", d.schedule, err)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.cron = c
	c.Start()
	log.Printf("[Drainer] started (schedule %s)", d.schedule)

	go func(done <-chan struct{}) {
		<-done
		d.Stop()
	}(d.ctx.Done())

	return nil
}

// Stop halts the scheduler and waits for a running tick to finish.
func (d *Drainer) Stop() {
	d.mu.Lock()
	c := d.cron
	cancel := d.cancel
	d.cron = nil
	d.cancel = nil
	d.mu.Unlock()

	if c == nil {
		return
	}
	cancel()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		log.Printf("[Drainer] stop timeout waiting for running tick")
	}
	log.Printf("[Drainer] stopped")
}

// Tick runs one drain pass and returns the number of prompts processed.
// Overlapping ticks are skipped.
func (d *Drainer) Tick() int {
	if !d.running.TryLock() {
		return 0
	}
	defer d.running.Unlock()

	d.mu.Lock()
	ctx := d.ctx
	d.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	processed := 0
	d.sessions.Range(func(s *session.Session) bool {
		if ctx.Err() != nil {
			return false
		}
		if s.Stats().Pending == 0 {
			return true
		}

		tctx, cancel := context.WithTimeout(ctx, d.timeout)
		_, err := d.router.ProcessPending(tctx, s)
		cancel()
		switch {
		case err == nil:
			processed++
		case errors.Is(err, session.ErrQueueEmpty):
		default:
			log.Printf("[Drainer] session %s: %v", s.ID(), err)
		}
		return true
	})

	if pruned := d.sessions.Prune(d.idle); pruned > 0 {
		log.Printf("[Drainer] evicted %d idle sessions", pruned)
	}
	if n := d.limiter.Prune(d.limiterIdle); n > 0 {
		log.Printf("[Drainer] forgot %d idle rate limit keys", n)
	}
	metrics.SetActiveSessions(d.sessions.Len())

	return processed
}
