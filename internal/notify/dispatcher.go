package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/blog-comments-api/internal/metrics"
	"github.com/blog-comments-api/internal/models"
)

const (
	defaultSendTimeout = 10 * time.Second
	defaultQueueSize   = 100
)

type queuedNotice struct {
	ctx    context.Context
	notice models.RejectionNotice
}

// Dispatcher sends rejection notices from a bounded queue on a fixed pool
// of workers. Notify never blocks; notices that do not fit are dropped.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	stopped bool
	queue   chan queuedNotice
	wg      sync.WaitGroup
}

// NewDispatcher starts workers goroutines draining a queue of queueSize notices
func NewDispatcher(sender Sender, workers, queueSize int, timeout time.Duration, log zerolog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = defaultQueueSize
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	d := &Dispatcher{
		sender:  sender,
		timeout: timeout,
		log:     log.With().Str("component", "notify").Logger(),
		queue:   make(chan queuedNotice, queueSize),
	}

	d.log.Info().Int("workers", workers).Int("queue_size", queueSize).Msg("Starting notification dispatcher")
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Notify enqueues notice for delivery. The send outlives ctx's
// cancellation but keeps its values.
func (d *Dispatcher) Notify(ctx context.Context, notice models.RejectionNotice) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("comment_id", notice.CommentID).Msg("Dispatcher stopped, rejection notice dropped")
		return
	}

	select {
	case d.queue <- queuedNotice{ctx: context.WithoutCancel(ctx), notice: notice}:
	default:
		metrics.NotificationsTotal.WithLabelValues("overflow").Inc()
		d.log.Warn().Str("comment_id", notice.CommentID).Msg("Notification queue full, rejection notice dropped")
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for item := range d.queue {
		d.process(item)
	}
}

// process sends one notice; a panicking sender does not kill the worker
func (d *Dispatcher) process(item queuedNotice) {
	metrics.NotificationsInFlight.Inc()
	defer metrics.NotificationsInFlight.Dec()

	defer func() {
		if r := recover(); r != nil {
			metrics.NotificationsTotal.WithLabelValues("panic").Inc()
			d.log.Error().
				Interface("panic", r).
				Str("comment_id", item.notice.CommentID).
				Msg("Rejection notice panicked - recovered")
		}
	}()

	d.send(item.ctx, item.notice)
}

func (d *Dispatcher) send(ctx context.Context, notice models.RejectionNotice) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res := d.sender.Send(ctx, notice)
	if !res.Success {
		metrics.NotificationsTotal.WithLabelValues("failure").Inc()
		d.log.Warn().
			Err(res.Err).
			Str("comment_id", notice.CommentID).
			Msg("Failed to send rejection notice")
		return
	}

	metrics.NotificationsTotal.WithLabelValues("success").Inc()
	d.log.Info().
		Str("comment_id", notice.CommentID).
		Str("email_id", res.EmailID).
		Msg("Rejection notice sent")
}

// Stop rejects new notices and waits until queued ones are sent, or until
// ctx is done. It may be called again to keep waiting.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("Notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
