// Package fiber provides a zerolog based access log middleware for fiber.
package fiber

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rollcall-admin/rollcall/internal/logger"
)

const headerPerformance = "X-Performance"

// Config implements fiber middleware struct.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Config of the logger.
	Config logger.Log

	// CacheControlError is sent when the error handler itself fails.
	CacheControlError string

	// CheckAliveURI is not logged when Config.DisableCheckAlive is set.
	CheckAliveURI string

	// Actor returns the acting username of the request, if any.
	//
	// Optional. Default: nil
	Actor func(c *fiber.Ctx) string
}

// ConfigDefault is the default config for fiber.
var ConfigDefault = Config{
	CacheControlError: "max-age=0",
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]
	if cfg.CacheControlError == "" {
		cfg.CacheControlError = ConfigDefault.CacheControlError
	}

	return cfg
}

// New creates a new fiber access logging middleware using zerolog.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	access := zerolog.New(zerolog.MultiLevelWriter(writers(cfg.Config)...)).
		With().
		Timestamp().
		Logger().
		Level(zerolog.NoLevel)

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		start := time.Now()

		// the error is rendered here so the logged status is the one sent
		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
				c.Set(fiber.HeaderCacheControl, cfg.CacheControlError)
			}
		}

		elapsed := time.Since(start).Seconds()
		c.Set(headerPerformance, strconv.FormatFloat(elapsed, 'f', 6, 64))

		if cfg.skip(c) {
			return nil
		}

		entry(access, c, elapsed, cfg.actor(c), chainErr).Send()

		return nil
	}
}

func (cfg *Config) skip(c *fiber.Ctx) bool {
	return cfg.Config.DisableCheckAlive && cfg.CheckAliveURI != "" && c.Path() == cfg.CheckAliveURI
}

func (cfg *Config) actor(c *fiber.Ctx) string {
	if cfg.Actor == nil {
		return ""
	}

	return cfg.Actor(c)
}

func entry(l zerolog.Logger, c *fiber.Ctx, elapsed float64, actor string, chainErr error) *zerolog.Event {
	// fasthttp normalizes the path, the raw request uri keeps it as sent
	e := l.Log().
		Str("IP", c.IP()).
		Int("status", c.Response().StatusCode()).
		Float64(headerPerformance, elapsed).
		Str("URI", string(c.Request().RequestURI())).
		Str("method", c.Method()).
		Bytes("host", c.Request().Host()).
		Str(fiber.HeaderXForwardedFor, c.Get(fiber.HeaderXForwardedFor)).
		Str(fiber.HeaderUserAgent, c.Get(fiber.HeaderUserAgent))

	if actor != "" {
		e = e.Str("user", actor)
	}

	if chainErr != nil {
		e = e.Err(chainErr)
	}

	return e
}

// writers returns the access log outputs: the rolling access file and stdout.
func writers(cfg logger.Log) []io.Writer {
	var out []io.Writer

	if file := cfg.File; file.Enabled {
		if err := logger.EnsureDir(file.Path); err != nil {
			log.Error().Err(err).Msg("access log file disabled")
		} else {
			out = append(out, file.Access.Writer(file.Path, "access.log"))
		}
	}

	if !cfg.Console.Enabled || !cfg.EnableAccessLogToConsole {
		return out
	}

	if cfg.Console.UseConsoleWriter {
		return append(out, zerolog.ConsoleWriter{
			Out:          os.Stdout,
			TimeFormat:   zerolog.TimeFieldFormat,
			PartsExclude: []string{zerolog.LevelFieldName},
		})
	}

	return append(out, os.Stdout)
}
