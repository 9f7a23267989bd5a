package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Janitor sweeps abandoned entries out of the queue on an interval.
// Callers who hang up while holding never get a dequeue event from the
// transport, so age is the only reliable signal.
type Janitor struct {
	svc      *Service
	interval time.Duration
	maxAge   time.Duration
	log      *slog.Logger

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewJanitor(svc *Service, interval, maxAge time.Duration, log *slog.Logger) (*Janitor, error) {
	if svc == nil {
		return nil, fmt.Errorf("queue: janitor needs a service")
	}
	if interval <= 0 || maxAge <= 0 {
		return nil, fmt.Errorf("queue: janitor interval and max age must be > 0")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Janitor{
		svc:      svc,
		interval: interval,
		maxAge:   maxAge,
		log:      log,
		done:     make(chan struct{}),
	}, nil
}

// Start launches the sweep loop; it returns false when already running.
func (j *Janitor) Start() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	j.done = make(chan struct{})
	j.running.Store(true)

	go func() {
		defer close(j.done)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.log.Info("queue janitor started",
			"interval", j.interval.String(),
			"max_age", j.maxAge.String())

		for {
			select {
			case <-ctx.Done():
				j.log.Info("queue janitor stopping")
				return
			case <-ticker.C:
				j.sweep(ctx)
			}
		}
	}()

	return true
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (j *Janitor) Stop() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running.Load() {
		return false
	}

	j.cancel()
	<-j.done
	j.running.Store(false)

	j.log.Info("queue janitor stopped")
	return true
}

func (j *Janitor) IsRunning() bool {
	return j.running.Load()
}

func (j *Janitor) sweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			j.log.Error("queue janitor sweep panic recovered", "panic", r)
		}
	}()

	removed, err := j.svc.Sweep(ctx, j.maxAge)
	if err != nil {
		j.log.Error("queue janitor sweep failed", "error", err)
		return
	}
	if removed > 0 {
		j.log.Info("queue janitor removed stale entries", "count", removed)
	}
}
