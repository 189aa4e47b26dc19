// Package person provides the /person endpoints: CRUD, bulk import and reports.
package person

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/auth"
	"github.com/rollcall-admin/rollcall/internal/config"
	"github.com/rollcall-admin/rollcall/internal/db/controller/person"
	"github.com/rollcall-admin/rollcall/internal/ingest"
	"github.com/rollcall-admin/rollcall/internal/logger"
	"github.com/rollcall-admin/rollcall/internal/qr"
	"github.com/rollcall-admin/rollcall/internal/validate"
	"github.com/rollcall-admin/rollcall/internal/web/handler"
)

const (
	// Path is the base path of the person endpoints.
	Path = "/person"

	resource = "PERSON"
)

// Service provides the person endpoints.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validate.Validator
	pipeline  *ingest.Pipeline
	notifier  ingest.Enqueuer
	qr        *qr.Generator
}

type createRequest struct {
	ingest.PersonFields
	Registered bool `json:"registered"`
}

// the name is the source of the person id and cannot change
type updateRequest struct {
	PersonID   string  `json:"personId" validate:"required"`
	Email      *string `json:"email" validate:"omitempty,max=255"`
	Gender     *string `json:"gender" validate:"omitempty,max=20"`
	Cellphone  *string `json:"cellphone" validate:"omitempty,max=50"`
	Illness    *string `json:"illness" validate:"omitempty,max=255"`
	Tutor      *string `json:"tutor" validate:"omitempty,max=255"`
	Zone       *string `json:"zone" validate:"omitempty,max=100"`
	Branch     *string `json:"branch" validate:"omitempty,max=100"`
	Room       *string `json:"room" validate:"omitempty,max=50"`
	Registered *bool   `json:"registered"`
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = deps.DB
	s.validator = deps.Validator
	s.pipeline = deps.Pipeline
	s.notifier = deps.Notifier
	s.qr = deps.QR

	// fixed paths are registered before :personId
	app.Route(Path, func(router fiber.Router) {
		router.Post("/bulkcreate", s.BulkCreate)
		router.Get("/category", s.Category)
		router.Get("/stats", s.Stats)
		router.Post(handler.RootPath, s.Create)
		router.Get(handler.RootPath, s.List)
		router.Put(handler.RootPath, s.Update)
		router.Get("/:personId", s.Get)
		router.Delete("/:personId", s.Delete)
	})

	return nil
}

func actor(c *fiber.Ctx) string {
	id, _ := auth.FromCtx(c)
	return id.Username
}

// Create registers one person.
func (s *Service) Create(c *fiber.Ctx) error {
	in := new(createRequest)
	if err := c.BodyParser(in); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err) //nolint: errorlint
	}

	p, err := ingest.BuildPerson(s.validator, in.PersonFields)
	if err != nil {
		return err
	}

	p.Registered = in.Registered

	ctx := c.UserContext()
	if err := person.Create(s.db.WithContext(ctx), p); err != nil {
		return err
	}

	by := actor(c)
	logger.Audit(by, logger.ActionCreate, resource, p.PersonID)
	log.Info().Str("user", by).Str("person", p.PersonID).Msg("person created")

	s.generateQR(ctx, p.PersonID)

	if s.notifier != nil {
		s.notifier.Enqueue(ingest.Messages(uuid.NewString(), []ingest.Record{{Kind: ingest.KindPerson, Person: p}}))
	}

	return handler.JSON(c, fiber.StatusCreated, "person "+p.PersonID+" created successfully", fiber.Map{"person": p})
}

// List returns every person.
func (s *Service) List(c *fiber.Ctx) error {
	persons, err := person.GetAll(s.db.WithContext(c.UserContext()))
	if err != nil {
		return err
	}

	return handler.JSON(c, fiber.StatusOK, fmt.Sprintf("fetched %d persons", len(persons)), fiber.Map{"persons": persons})
}

// Get returns one person.
func (s *Service) Get(c *fiber.Ctx) error {
	p, err := person.Get(s.db.WithContext(c.UserContext()), c.Params("personId"))
	if err != nil {
		return err
	}

	return handler.JSON(c, fiber.StatusOK, "fetched "+p.Name, fiber.Map{"person": p})
}

// Update edits a person. Name and person id are immutable.
func (s *Service) Update(c *fiber.Ctx) error {
	in := new(updateRequest)
	if err := c.BodyParser(in); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err) //nolint: errorlint
	}

	if err := s.validator.Struct(in); err != nil {
		return err
	}

	patch := person.Patch{
		Gender:     upper(in.Gender),
		Cellphone:  trim(in.Cellphone),
		Illness:    trim(in.Illness),
		Tutor:      trim(in.Tutor),
		Zone:       trim(in.Zone),
		Branch:     trim(in.Branch),
		Room:       trim(in.Room),
		Registered: in.Registered,
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != "" {
			if err := s.validator.Var("email", email, "email"); err != nil {
				return err
			}
		}

		patch.Email = &email
	}

	updated, err := person.Update(s.db.WithContext(c.UserContext()), in.PersonID, patch)
	if err != nil {
		return err
	}

	logger.Audit(actor(c), logger.ActionUpdate, resource, updated.PersonID)

	return handler.JSON(c, fiber.StatusOK, "person "+updated.PersonID+" updated", fiber.Map{"person": updated})
}

// Delete removes a person and their QR code.
func (s *Service) Delete(c *fiber.Ctx) error {
	ctx := c.UserContext()

	deleted, err := person.Delete(s.db.WithContext(ctx), c.Params("personId"))
	if err != nil {
		return err
	}

	logger.Audit(actor(c), logger.ActionDelete, resource, deleted.PersonID)

	if s.qr != nil {
		if err := s.qr.Delete(ctx, deleted.PersonID); err != nil {
			log.Warn().Err(err).Str("person", deleted.PersonID).Msg("failed to delete qr code")
		}
	}

	return handler.JSON(c, fiber.StatusOK, "person "+deleted.PersonID+" deleted successfully", nil)
}

// BulkCreate imports the persons of the uploaded CSV file.
func (s *Service) BulkCreate(c *fiber.Ctx) error {
	path, cleanup, err := handler.SaveUpload(c, handler.FormFieldCSV)
	defer cleanup()

	if err != nil {
		return err
	}

	res, err := s.pipeline.Import(c.UserContext(), actor(c), path, ingest.KindPerson)
	if err != nil {
		return err
	}

	return handler.JSON(c, fiber.StatusCreated, fmt.Sprintf("%d persons created successfully", res.Count), fiber.Map{
		"count":   res.Count,
		"batchId": res.BatchID,
	})
}

// Category returns the distinct values of ?name= with their counts.
func (s *Service) Category(c *fiber.Ctx) error {
	name := c.Query("name")

	values, err := person.Category(s.db.WithContext(c.UserContext()), name)
	if err != nil {
		return err
	}

	return handler.JSON(c, fiber.StatusOK, "fetched category "+name, fiber.Map{
		"category": name,
		"values":   values,
	})
}

// Stats returns the person totals.
func (s *Service) Stats(c *fiber.Ctx) error {
	stats, err := person.GetStats(s.db.WithContext(c.UserContext()))
	if err != nil {
		return err
	}

	return handler.JSON(c, fiber.StatusOK, "fetched stats", fiber.Map{"stats": stats})
}

func (s *Service) generateQR(ctx context.Context, personID string) {
	if s.qr == nil {
		return
	}

	if err := s.qr.Generate(ctx, personID); err != nil {
		log.Error().Err(err).Str("person", personID).Msg("failed to generate qr code")
	}
}

func trim(v *string) *string {
	if v == nil {
		return nil
	}

	out := strings.TrimSpace(*v)

	return &out
}

func upper(v *string) *string {
	if v == nil {
		return nil
	}

	out := strings.ToUpper(strings.TrimSpace(*v))

	return &out
}
