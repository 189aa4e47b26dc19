// Package jobs runs the asynq worker that turns queued onboarding notifications
// into mails.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/rollcall-admin/rollcall/internal/logger/adapter/stdlogger"
	"github.com/rollcall-admin/rollcall/internal/notify"
)

const defaultConcurrency = 5

// ErrNotConfigured is returned by Run on a nil worker.
var ErrNotConfigured = errors.New("worker: not configured")

// WorkerConfig collects what the worker needs.
type WorkerConfig struct {
	Redis       asynq.RedisClientOpt
	Concurrency int
	Mailer      Mailer
}

// Worker wraps the asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker creates a worker consuming the mail queue.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}

	if cfg.Mailer == nil {
		cfg.Mailer = LogMailer{}
	}

	srv := asynq.NewServer(cfg.Redis, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			notify.QueueMail: 1,
		},
		Logger: stdlogger.NewComponent("asynq"),
	})

	mux := asynq.NewServeMux()
	mux.Handle(notify.TaskOnboarding, NewOnboardingHandler(cfg.Mailer))

	return &Worker{server: srv, mux: mux}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return ErrNotConfigured
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- w.server.Run(w.mux)
	}()

	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// NewOnboardingHandler renders and sends the mail of an onboarding task. Payloads
// that cannot be decoded or rendered are not retried.
func NewOnboardingHandler(mailer Mailer) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		msg, err := notify.ParseOnboardingTask(t)
		if err != nil {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}

		m, err := Render(msg)
		if err != nil {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}

		if err := mailer.Send(ctx, m); err != nil {
			log.Warn().Err(err).Str("to", msg.Address).Str("record", msg.DedupID).Msg("onboarding mail failed")
			return err
		}

		return nil
	})
}
