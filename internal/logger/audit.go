package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Audit actions.
const (
	ActionCreate     = "CREATE"
	ActionUpdate     = "UPDATE"
	ActionDelete     = "DELETE"
	ActionBulkCreate = "BULK_CREATE"
	ActionLogin      = "LOGIN"
	ActionLogout     = "LOGOUT"
)

var (
	auditMu     sync.RWMutex
	auditLogger = zerolog.Nop()
)

// initAudit builds the audit logger. It is silent unless cfg.Audit is set.
func initAudit(cfg Log) {
	var writers []io.Writer

	if !cfg.Audit {
		SetAuditLogger(zerolog.Nop())
		return
	}

	if cfg.Console.Enabled {
		writers = append(writers, consoleOut(os.Stdout, cfg.Console.UseConsoleWriter))
	}

	if cfg.File.Enabled && EnsureDir(cfg.File.Path) == nil {
		writers = append(writers, cfg.File.Audit.Writer(cfg.File.Path, "audit.log"))
	}

	l := zerolog.Nop()
	if len(writers) > 0 {
		l = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().
			Timestamp().
			Str("type", "audit").
			Logger()
	}

	SetAuditLogger(l)
}

// SetAuditLogger replaces the audit logger, mainly for tests.
func SetAuditLogger(l zerolog.Logger) {
	auditMu.Lock()
	defer auditMu.Unlock()

	auditLogger = l
}

func auditEvent(actor, action, resource string) *zerolog.Event {
	auditMu.RLock()
	defer auditMu.RUnlock()

	// audit entries bypass the global level filter
	return auditLogger.Log().
		Str("actor", actor).
		Str("action", action).
		Str("resource", resource)
}

// Audit records a mutating action on a single resource.
func Audit(actor, action, resource, subject string) {
	auditEvent(actor, action, resource).
		Str("subject", subject).
		Msgf("%s %s %s by %s", action, resource, subject, actor)
}

// AuditBulk records a bulk action together with the number of affected records.
func AuditBulk(actor, action, resource string, count int) {
	auditEvent(actor, action, resource).
		Int("count", count).
		Msgf("%s %s x%d by %s", action, resource, count, actor)
}
