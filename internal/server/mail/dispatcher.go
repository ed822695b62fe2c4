package mail

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/storegate/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

const (
	DefaultQueueSize = 256
	DefaultWorkers   = 2
)

var mailDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storegate_mail_dropped_total",
	Help: "Outgoing messages discarded before a delivery attempt.",
}, []string{"reason"})

type job struct {
	ctx context.Context
	msg Message
}

// Dispatcher sends mail in the background through a bounded queue drained by
// a fixed set of workers. Dispatch never blocks: when the queue is full the
// message is dropped and logged. Failures are logged and never retried. Sends
// are throttled by a token bucket limiter shared by all workers.
type Dispatcher struct {
	sender  Sender
	limiter *rate.Limiter
	logger  logging.Logger

	queue   chan job
	pending sync.WaitGroup
	workers sync.WaitGroup

	mu     sync.Mutex
	closed bool

	abort     context.Context
	abortSend context.CancelFunc
}

type dispatcherOptions struct {
	perSecond float64
	burst     int
	queueSize int
	workers   int
}

// DispatcherOption tunes a Dispatcher.
type DispatcherOption func(*dispatcherOptions)

// WithRate throttles sends to perSecond with a burst of burst. A non-positive
// perSecond disables throttling.
func WithRate(perSecond float64, burst int) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.perSecond = perSecond
		o.burst = burst
	}
}

// WithQueue sets how many messages may wait for a worker and how many
// workers deliver them. Non-positive values keep the defaults.
func WithQueue(size, workers int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if size > 0 {
			o.queueSize = size
		}
		if workers > 0 {
			o.workers = workers
		}
	}
}

// NewDispatcher starts the worker pool. Without options sends are not
// throttled and the queue holds DefaultQueueSize messages.
func NewDispatcher(sender Sender, logger logging.Logger, opts ...DispatcherOption) *Dispatcher {
	o := dispatcherOptions{burst: 1, queueSize: DefaultQueueSize, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(&o)
	}

	limit := rate.Inf
	if o.perSecond > 0 {
		limit = rate.Limit(o.perSecond)
	}
	if o.burst < 1 {
		o.burst = 1
	}

	abort, abortSend := context.WithCancel(context.Background())
	d := &Dispatcher{
		sender:    sender,
		limiter:   rate.NewLimiter(limit, o.burst),
		logger:    logger.With("module", "mail"),
		queue:     make(chan job, o.queueSize),
		abort:     abort,
		abortSend: abortSend,
	}

	d.workers.Add(o.workers)
	for i := 0; i < o.workers; i++ {
		go d.work()
	}
	return d
}

// Dispatch queues msg for delivery and reports whether it was accepted. The
// send outlives ctx cancellation but keeps its values. Messages are refused
// once the queue is full or Shutdown has been called.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) bool {
	ctx = context.WithoutCancel(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		mailDropped.WithLabelValues("closed").Inc()
		d.logger.Warn(ctx, "mail dispatcher closed, message dropped", "to", msg.To, "subject", msg.Subject)
		return false
	}

	d.pending.Add(1)
	select {
	case d.queue <- job{ctx: ctx, msg: msg}:
		return true
	default:
		d.pending.Done()
		mailDropped.WithLabelValues("queue_full").Inc()
		d.logger.Warn(ctx, "mail queue full, message dropped", "to", msg.To, "subject", msg.Subject)
		return false
	}
}

func (d *Dispatcher) work() {
	defer d.workers.Done()
	for j := range d.queue {
		d.deliver(j)
		d.pending.Done()
	}
}

func (d *Dispatcher) deliver(j job) {
	if d.abort.Err() != nil {
		mailDropped.WithLabelValues("shutdown").Inc()
		d.logger.Warn(j.ctx, "mail dropped at shutdown", "to", j.msg.To, "subject", j.msg.Subject)
		return
	}

	ctx, cancel := context.WithCancel(j.ctx)
	defer cancel()
	stop := context.AfterFunc(d.abort, cancel)
	defer stop()

	if err := d.limiter.Wait(ctx); err != nil {
		d.logger.Error(ctx, "mail throttle failed", "to", j.msg.To, "error", err)
		return
	}
	if err := d.sender.Send(ctx, j.msg); err != nil {
		d.logger.Error(ctx, "mail delivery failed", "to", j.msg.To, "subject", j.msg.Subject, "error", err)
		return
	}
	d.logger.Info(ctx, "mail delivered", "to", j.msg.To, "subject", j.msg.Subject)
}

// Wait blocks until every accepted message has been attempted. It must not
// race with Dispatch calls made from an idle state; use Shutdown to stop
// intake first.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Shutdown stops accepting messages and waits for the queue to drain. When
// ctx ends first, in-flight sends are cancelled, the remaining queue is
// discarded and ctx.Err() is returned without waiting for the workers.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.abortSend()
		return nil
	case <-ctx.Done():
		d.abortSend()
		return ctx.Err()
	}
}
