package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Summary counts the outcome of one dispatched batch.
type Summary struct {
	Sent    int
	Failed  int
	Skipped int
}

// DispatchAll sends the batch sequentially, at most one message per interval.
// Failures are logged and counted, never returned. A cancelled context skips the
// remaining messages.
func DispatchAll(ctx context.Context, notifier Notifier, batch Batch, interval time.Duration) Summary {
	return dispatch(ctx, notifier, batch, newLimiter(interval))
}

func newLimiter(interval time.Duration) *rate.Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return rate.NewLimiter(limit, 1)
}

func dispatch(ctx context.Context, notifier Notifier, batch Batch, limiter *rate.Limiter) Summary {
	var sum Summary

	for i, msg := range batch.Messages {
		if err := limiter.Wait(ctx); err != nil {
			sum.Skipped = len(batch.Messages) - i
			log.Warn().Err(err).Str("batch", batch.ID).Int("skipped", sum.Skipped).
				Msg("notification dispatch interrupted")

			break
		}

		if err := notifier.Notify(ctx, msg); err != nil {
			sum.Failed++
			messagesTotal.WithLabelValues(resultFailed).Inc()
			log.Error().Err(err).Str("batch", batch.ID).Str("id", msg.DedupID).
				Msg("failed to send notification")

			continue
		}

		sum.Sent++
		messagesTotal.WithLabelValues(resultSent).Inc()
	}

	log.Debug().Str("batch", batch.ID).Int("sent", sum.Sent).Int("failed", sum.Failed).
		Msg("notification batch dispatched")

	return sum
}

// Dispatcher decouples producers from the throttled sending of batches. One worker
// goroutine drains a buffered queue so request latency does not grow with batch size.
type Dispatcher struct {
	notifier Notifier
	// shared by all batches so the quota also holds across batch boundaries
	limiter *rate.Limiter

	mu     sync.RWMutex
	closed bool
	queue  chan Batch

	ctx    context.Context //nolint:containedctx
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDispatcher starts a dispatcher holding up to buffer pending batches.
func NewDispatcher(notifier Notifier, interval time.Duration, buffer int) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		notifier: notifier,
		limiter:  newLimiter(interval),
		queue:    make(chan Batch, buffer),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go d.run()

	return d
}

// Enqueue hands a batch to the worker without blocking. It reports false when the
// batch was dropped because the buffer is full or the dispatcher is closed.
func (d *Dispatcher) Enqueue(b Batch) bool {
	if len(b.Messages) == 0 {
		return true
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		log.Warn().Str("batch", b.ID).Msg("dispatcher closed, notification batch dropped")
		messagesTotal.WithLabelValues(resultDropped).Add(float64(len(b.Messages)))

		return false
	}

	select {
	case d.queue <- b:
		return true
	default:
		log.Warn().Str("batch", b.ID).Int("messages", len(b.Messages)).
			Msg("dispatcher queue full, notification batch dropped")
		messagesTotal.WithLabelValues(resultDropped).Add(float64(len(b.Messages)))

		return false
	}
}

// Close stops accepting batches and waits until the pending ones are sent or ctx
// is done, in which case the remaining messages are skipped.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.cancel()
		<-d.done

		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	defer d.cancel()

	for b := range d.queue {
		dispatch(d.ctx, d.notifier, b, d.limiter)
	}
}
