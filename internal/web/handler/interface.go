package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/auth"
	"github.com/rollcall-admin/rollcall/internal/config"
	"github.com/rollcall-admin/rollcall/internal/ingest"
	"github.com/rollcall-admin/rollcall/internal/qr"
	"github.com/rollcall-admin/rollcall/internal/storage"
	"github.com/rollcall-admin/rollcall/internal/validate"
)

// Deps are the collaborators shared by the handlers.
type Deps struct {
	DB        *gorm.DB
	Validator *validate.Validator
	Sessions  *auth.SessionService
	Transport *auth.Transport
	Gate      *auth.Middleware
	Pipeline  *ingest.Pipeline

	// Optional. Nil disables onboarding notifications of single creates.
	Notifier ingest.Enqueuer
	// Optional. Nil disables avatar uploads.
	Storage storage.Uploader
	// Optional. Nil disables person QR codes.
	QR *qr.Generator
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, deps *Deps) error
}
