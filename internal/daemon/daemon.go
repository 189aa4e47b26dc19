// Package daemon wires the store, the auth services, the notification dispatcher,
// the object storage and the web service into one running process.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/auth"
	"github.com/rollcall-admin/rollcall/internal/config"
	"github.com/rollcall-admin/rollcall/internal/ingest"
	"github.com/rollcall-admin/rollcall/internal/logger/adapter/stdlogger"
	"github.com/rollcall-admin/rollcall/internal/notify"
	"github.com/rollcall-admin/rollcall/internal/validate"
	"github.com/rollcall-admin/rollcall/internal/web"
	"github.com/rollcall-admin/rollcall/internal/web/handler"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
	dispatcher *notify.Dispatcher
	scheduler  *cron.Cron
	closers    []func() error
}

// New creates a new Daemon instance with the provided configuration.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	d := &Daemon{cfg: cfg, db: db}

	notifier, closeNotifier, err := NewNotifier(ctx, cfg)
	if err != nil {
		return nil, err
	}

	d.closers = append(d.closers, closeNotifier)
	d.dispatcher = notify.NewDispatcher(notifier, cfg.Notify.Interval, cfg.Notify.BufferSize)

	uploader, images, err := NewImages(ctx, cfg)
	if err != nil {
		return nil, err
	}

	codec := auth.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	sessions := auth.NewSessionService(db, codec, cfg.Auth.Rehydrate)
	transport := auth.NewTransport(&cfg.Auth, cfg.DevMode)
	policy := auth.NewPolicy(auth.DefaultPolicies(), cfg.Auth.PolicyCacheSize)
	v := validate.New()

	// typed nil pointers must not end up in the interfaces
	var generator ingest.ImageGenerator
	if images != nil {
		generator = images
	}

	deps := &handler.Deps{
		DB:        db,
		Validator: v,
		Sessions:  sessions,
		Transport: transport,
		Gate:      auth.NewMiddleware(transport, sessions, policy),
		Pipeline:  NewPipeline(db, v, d.dispatcher, generator),
		Notifier:  d.dispatcher,
		QR:        images,
	}

	if uploader != nil {
		deps.Storage = uploader
	}

	d.scheduler, err = newScheduler(cfg, sessions)
	if err != nil {
		return nil, err
	}

	d.webService = web.New(cfg, deps)

	return d, nil
}

// Start runs the web service until SIGINT or SIGTERM and then shuts everything down.
func (d *Daemon) Start() error {
	d.scheduler.Start()

	go func() {
		if err := d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port)); err != nil {
			log.Error().Err(err).Msg("web service stopped")
		}
	}()

	log.Info().Int("port", d.cfg.Webserver.Port).Msg("rollcall started")

	d.webService.WaitShutdown()

	return d.Close()
}

// Close stops the scheduler, drains pending notifications and releases the store.
func (d *Daemon) Close() error {
	<-d.scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := d.dispatcher.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("pending notifications dropped on shutdown")
	}

	for _, closeFn := range d.closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("failed to close notifier")
		}
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

const drainTimeout = 30 * time.Second

// newScheduler registers the expired session purge.
func newScheduler(cfg *config.Config, sessions *auth.SessionService) (*cron.Cron, error) {
	c := cron.New(cron.WithLogger(cron.PrintfLogger(stdlogger.NewComponent("cron"))))

	purge := func() {
		n, err := sessions.PurgeExpired(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("failed to purge expired sessions")
			return
		}

		if n > 0 {
			log.Info().Int64("sessions", n).Msg("expired sessions purged")
		}
	}

	if _, err := c.AddFunc(cfg.Auth.PurgeSchedule, purge); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", cfg.Auth.PurgeSchedule, err)
	}

	return c, nil
}

// NewPipeline builds the import pipeline. images may be nil.
func NewPipeline(db *gorm.DB, v *validate.Validator, notifier ingest.Enqueuer, images ingest.ImageGenerator) *ingest.Pipeline {
	opts := []ingest.Option{ingest.WithNotifier(notifier)}
	if images != nil {
		opts = append(opts, ingest.WithImages(images, 0))
	}

	return ingest.NewPipeline(db, v, opts...)
}
