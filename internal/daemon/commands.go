package daemon

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/rollcall-admin/rollcall/internal/awscfg"
	"github.com/rollcall-admin/rollcall/internal/config"
	"github.com/rollcall-admin/rollcall/internal/ingest"
	"github.com/rollcall-admin/rollcall/internal/jobs"
	"github.com/rollcall-admin/rollcall/internal/notify"
	"github.com/rollcall-admin/rollcall/internal/validate"
)

// Import runs one bulk import outside the web service. Notifications are drained
// before it returns.
func Import(ctx context.Context, cfg *config.Config, actor, path string, kind ingest.Kind) (ingest.Result, error) {
	conn, err := OpenDB(cfg)
	if err != nil {
		return ingest.Result{}, err
	}

	if sqlDB, err := conn.DB(); err == nil {
		defer sqlDB.Close()
	}

	notifier, closeNotifier, err := NewNotifier(ctx, cfg)
	if err != nil {
		return ingest.Result{}, err
	}
	defer closeNotifier()

	_, images, err := NewImages(ctx, cfg)
	if err != nil {
		return ingest.Result{}, err
	}

	var generator ingest.ImageGenerator
	if images != nil {
		generator = images
	}

	dispatcher := notify.NewDispatcher(notifier, cfg.Notify.Interval, cfg.Notify.BufferSize)

	res, importErr := NewPipeline(conn, validate.New(), dispatcher, generator).Import(ctx, actor, path, kind)

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := dispatcher.Close(drainCtx); err != nil {
		log.Warn().Err(err).Msg("pending notifications dropped")
	}

	return res, importErr
}

// ErrWorkerNeedsRedis is returned when the worker is started without a redis address.
var ErrWorkerNeedsRedis = errors.New("worker: notify redis address is empty")

// RunWorker consumes queued notifications until ctx is cancelled. Mails go out
// through SES when enabled and to the log otherwise.
func RunWorker(ctx context.Context, cfg *config.Config) error {
	if cfg.Notify.RedisAddr == "" {
		return ErrWorkerNeedsRedis
	}

	var mailer jobs.Mailer = jobs.LogMailer{}

	if cfg.Notify.MailEnabled {
		awsConfig, err := awscfg.Load(ctx, cfg.Notify.Region, "", "")
		if err != nil {
			return err
		}

		mailer = jobs.NewSESMailer(sesv2.NewFromConfig(awsConfig), cfg.Notify.MailFrom)
	}

	worker := jobs.NewWorker(jobs.WorkerConfig{
		Redis:  asynq.RedisClientOpt{Addr: cfg.Notify.RedisAddr},
		Mailer: mailer,
	})

	log.Info().Str("redis", cfg.Notify.RedisAddr).Bool("ses", cfg.Notify.MailEnabled).Msg("worker started")

	err := worker.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
