package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultBuffer   = 64
	defaultWorkers  = 1
	defaultDelivery = 10 * time.Second
)

type DispatcherConfig struct {
	Buffer   int           // queued deliveries before new ones are dropped
	Workers  int           // concurrent delivery goroutines
	Delivery time.Duration // timeout per delivery attempt
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Buffer <= 0 {
		c.Buffer = defaultBuffer
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.Delivery <= 0 {
		c.Delivery = defaultDelivery
	}
	return c
}

// Dispatcher runs deliveries on background workers so the call path never
// waits on the messaging backend. Delivery is best effort: a failed send is
// logged, and when the buffer is full new work is dropped rather than
// blocking the caller.
type Dispatcher struct {
	sender   Sender
	tasks    chan task
	quit     chan struct{}
	delivery time.Duration
	log      *slog.Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

type task struct {
	kind string
	run  func(ctx context.Context) error
}

func NewDispatcher(sender Sender, cfg DispatcherConfig, log *slog.Logger) *Dispatcher {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		sender:   sender,
		tasks:    make(chan task, cfg.Buffer),
		quit:     make(chan struct{}),
		delivery: cfg.Delivery,
		log:      log,
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// SendConfirmation queues a confirmation text. It never blocks.
func (d *Dispatcher) SendConfirmation(msg Confirmation) {
	d.enqueue(task{kind: "confirmation", run: func(ctx context.Context) error {
		return d.sender.SendConfirmation(ctx, msg)
	}})
}

// TriggerRedistribution queues a redistribution request. It never blocks.
func (d *Dispatcher) TriggerRedistribution(req Redistribution) {
	d.enqueue(task{kind: "redistribution", run: func(ctx context.Context) error {
		return d.sender.TriggerRedistribution(ctx, req)
	}})
}

func (d *Dispatcher) enqueue(t task) {
	if d.closed.Load() {
		d.log.Warn("notify dispatcher closed, dropping", "kind", t.kind)
		return
	}
	select {
	case d.tasks <- t:
	default:
		d.log.Warn("notify buffer full, dropping", "kind", t.kind)
	}
}

// Close stops accepting work, lets the workers drain what is already
// queued, and waits for them up to the context deadline.
func (d *Dispatcher) Close(ctx context.Context) error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(d.quit)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.quit:
			for {
				select {
				case t := <-d.tasks:
					d.deliver(t)
				default:
					return
				}
			}
		case t := <-d.tasks:
			d.deliver(t)
		}
	}
}

func (d *Dispatcher) deliver(t task) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notify delivery panicked", "kind", t.kind, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.delivery)
	defer cancel()

	if err := t.run(ctx); err != nil {
		d.log.Warn("notify delivery failed", "kind", t.kind, "error", err)
	}
}
