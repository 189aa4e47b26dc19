// Package logger configures the zerolog based application, access and audit logging.
package logger

import (
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logDirPerm = 0o750

// LevelWriter routes entries to one stream per level group: trace, info (debug and
// info), warn and error (error and above).
type LevelWriter struct {
	Trace io.Writer
	Info  io.Writer
	Warn  io.Writer
	Error io.Writer
}

// Write sends level-less output to the info stream.
func (lw *LevelWriter) Write(p []byte) (int, error) {
	return lw.Info.Write(p) //nolint:wrapcheck
}

// WriteLevel implements zerolog.LevelWriter.
func (lw *LevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l == zerolog.Disabled {
		return 0, nil
	}

	return lw.stream(l).Write(p) //nolint:wrapcheck
}

func (lw *LevelWriter) stream(l zerolog.Level) io.Writer {
	switch {
	case l == zerolog.TraceLevel:
		return lw.Trace
	case l == zerolog.WarnLevel:
		return lw.Warn
	case l > zerolog.WarnLevel && l <= zerolog.PanicLevel:
		return lw.Error
	default:
		return lw.Info
	}
}

// Writer returns the rolling file of r inside dir. fallback names the file when
// r.File is empty.
func (r Rotation) Writer(dir, fallback string) *lumberjack.Logger {
	name := r.File
	if name == "" {
		name = fallback
	}

	return &lumberjack.Logger{
		Filename:   path.Join(dir, name),
		MaxSize:    r.MaxSize,
		MaxAge:     r.MaxAge,
		MaxBackups: r.MaxBackups,
	}
}

// EnsureDir creates the log directory.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}

	return errors.Wrapf(os.MkdirAll(dir, logDirPerm), "can't create log directory %s", dir)
}

// Init sets up the global logger. With neither console nor file output enabled
// nothing is written.
func Init(cfg Log) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "loglevel %s is not supported", cfg.LogLevel)
	}

	if cfg.ServiceName == "" {
		return ErrServiceNameIsEmpty
	}

	if cfg.AppName == "" {
		return ErrAppNameIsEmpty
	}

	// stacks are only marshalled at trace level
	stack := level == zerolog.TraceLevel
	if stack {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack //nolint:reassign
	}

	zerolog.SetGlobalLevel(level)
	zerolog.ErrorHandler = ErrorHandler //nolint:reassign

	lc := zerolog.New(zerolog.MultiLevelWriter(outputs(cfg)...)).
		Hook(NewPrometheusHook(cfg.ServiceName)).
		With().
		Timestamp()

	if cfg.ReportCaller {
		lc = lc.Caller()

		if stack {
			lc = lc.Stack()
		}
	}

	log.Logger = lc.Logger()

	initAudit(cfg)

	return nil
}

func outputs(cfg Log) []io.Writer {
	var writers []io.Writer

	if cfg.Console.Enabled {
		writers = append(writers, NewConsoleWriter(cfg.Console.UseConsoleWriter))
	}

	if cfg.File.Enabled {
		if err := EnsureDir(cfg.File.Path); err != nil {
			// nothing else is set up yet
			ErrorHandler(err)
		} else {
			writers = append(writers, newFileWriter(cfg.File))
		}
	}

	return writers
}

func newFileWriter(f LogFile) io.Writer {
	return &LevelWriter{
		Trace: f.Trace.Writer(f.Path, "trace.log"),
		Info:  f.Info.Writer(f.Path, "info.log"),
		Warn:  f.Warn.Writer(f.Path, "warn.log"),
		Error: f.Error.Writer(f.Path, "error.log"),
	}
}

// NewConsoleWriter writes info to stdout and every other stream to stderr.
func NewConsoleWriter(pretty bool) io.Writer {
	out, errOut := consoleOut(os.Stdout, pretty), consoleOut(os.Stderr, pretty)

	return &LevelWriter{
		Trace: errOut,
		Info:  out,
		Warn:  errOut,
		Error: errOut,
	}
}

func consoleOut(f *os.File, pretty bool) io.Writer {
	if !pretty {
		return f
	}

	return zerolog.ConsoleWriter{Out: f, TimeFormat: zerolog.TimeFieldFormat}
}
