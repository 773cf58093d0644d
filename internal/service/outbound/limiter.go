package outbound

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Limiter is the soft rate limit on the human-triggered send path: a single
// worker with at least one second between task starts, so no more than one
// submission is in flight at a time. It predates the durable queue and is
// kept layered on top of it; queue workers do not pass through it.
type Limiter struct {
	mu      sync.Mutex
	started bool
	tasks   chan limiterTask
	lim     *rate.Limiter
	log     zerolog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

type limiterTask struct {
	fn   func() error
	done chan error
}

func NewLimiter(log zerolog.Logger) *Limiter {
	return &Limiter{
		// Interval gate: one token per second, burst 1.
		lim: rate.NewLimiter(rate.Every(time.Second), 1),
		log: log.With().Str("component", "send_limiter").Logger(),
	}
}

func (l *Limiter) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.tasks = make(chan limiterTask, 64)
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	l.started = true

	go l.loop(ctx)
}

func (l *Limiter) Stop() {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return
	}
	l.started = false
	close(l.stopCh)
	l.mu.Unlock()
	<-l.doneCh
}

// Run executes fn through the single-flight gate and returns its error.
// Tasks submitted before Start execute immediately inline so nothing is
// silently dropped.
func (l *Limiter) Run(ctx context.Context, fn func() error) error {
	l.mu.Lock()
	started := l.started
	tasks := l.tasks
	l.mu.Unlock()

	if !started {
		return fn()
	}

	t := limiterTask{fn: fn, done: make(chan error, 1)}
	select {
	case tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Limiter) loop(ctx context.Context) {
	defer close(l.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case t := <-l.tasks:
			if err := l.lim.Wait(ctx); err != nil {
				t.done <- err
				return
			}
			t.done <- t.fn()
		}
	}
}
