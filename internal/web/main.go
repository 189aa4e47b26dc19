// Package web is the JSON HTTP API.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/auth"
	"github.com/rollcall-admin/rollcall/internal/config"
	fiberlogger "github.com/rollcall-admin/rollcall/internal/logger/adapter/fiber"
	"github.com/rollcall-admin/rollcall/internal/validate"
	"github.com/rollcall-admin/rollcall/internal/web/handler"
	"github.com/rollcall-admin/rollcall/internal/web/handler/login"
	"github.com/rollcall-admin/rollcall/internal/web/handler/logout"
	"github.com/rollcall-admin/rollcall/internal/web/handler/person"
	"github.com/rollcall-admin/rollcall/internal/web/handler/users"
	authmiddleware "github.com/rollcall-admin/rollcall/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers load balancer probes.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"

	bodyLimit = 16 << 20
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown blocks until SIGINT or SIGTERM and stops the http server.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown fails the check alive probe for ShutDownTime seconds, then stops the server.
func (s *Service) Shutdown() {
	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// ErrorHandler renders every error as {"message": ...}. Internal detail is added in
// dev mode only.
func ErrorHandler(devMode bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := apperr.Status(err)
		message := err.Error()

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		}

		body := fiber.Map{"message": message}

		var verr *validate.Error
		if errors.As(err, &verr) {
			body["fields"] = verr.Fields
		}

		if status >= fiber.StatusInternalServerError && fe == nil {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")

			body["message"] = http.StatusText(status)
			if devMode {
				body["error"] = err.Error()
			}
		}

		return c.Status(status).JSON(body)
	}
}

// New creates the web service with every route registered.
func New(cfg *config.Config, deps *handler.Deps) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if deps == nil || deps.DB == nil || deps.Gate == nil {
		panic("deps, db and gate cannot be nil")
	}

	appName := cfg.Title
	if appName == "" {
		appName = "rollcall"
	}

	app := fiber.New(
		fiber.Config{
			AppName:       appName,
			CaseSensitive: true,
			Prefork:       false,
			Immutable:     true,
			BodyLimit:     bodyLimit,
			ProxyHeader:   cfg.Webserver.ProxyHeader,
			ErrorHandler:  ErrorHandler(cfg.DevMode),
		},
	)

	service := &Service{
		cfg: cfg,
		App: app,
	}
	service.alive.Store(true)

	app.Use(recover.New())

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
		Actor: func(c *fiber.Ctx) string {
			id, _ := auth.FromCtx(c)
			return id.Username
		},
	}))

	if cfg.Webserver.CORSOrigin != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Webserver.CORSOrigin,
			AllowCredentials: cfg.Webserver.CORSOrigin != "*",
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		}))
	}

	if cfg.Webserver.LoginRateLimit > 0 {
		app.Use(login.LoginPath, limiter.New(limiter.Config{
			Max:        cfg.Webserver.LoginRateLimit,
			Expiration: time.Minute,
			LimitReached: func(_ *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "too many login attempts")
			},
		}))
	}

	app.Use(authmiddleware.New(authmiddleware.Config{
		Public:       []string{login.LoginPath, logout.Path, CheckAlivePath, MetricsPath},
		SessionOnly:  []string{login.Path},
		Authenticate: deps.Gate.Authenticate(),
		Authorize:    deps.Gate.Authorize(),
	}))

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	for _, h := range []handler.Service{new(login.Service), new(logout.Service), new(users.Service), new(person.Service)} {
		if err := h.Init(app, cfg, deps); err != nil {
			log.Fatal().Err(err).Msg("failed to init handler")
		}
	}

	return service
}
