// Package users provides the /users endpoints: staff accounts, their avatars and
// the bulk account import.
package users

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
	"github.com/rollcall-admin/rollcall/internal/db/controller/user"
	"github.com/rollcall-admin/rollcall/internal/db/models"
	"github.com/rollcall-admin/rollcall/internal/ingest"
	"github.com/rollcall-admin/rollcall/internal/logger"
	"github.com/rollcall-admin/rollcall/internal/storage"
	"github.com/rollcall-admin/rollcall/internal/validate"
	"github.com/rollcall-admin/rollcall/internal/web/handler"
)

const (
	// Path is the base path of the user endpoints.
	Path = "/users"

	// FormFieldAvatar is the multipart field of avatar uploads.
	FormFieldAvatar = "avatar"

	resource = "USER"
)

var (
	// ErrSelfDelete is returned when a user tries to delete their own account.
	ErrSelfDelete = fmt.Errorf("%w: you cannot delete yourself", apperr.ErrForbidden)
	// ErrRootProtected is returned when the root account would be deleted, demoted
	// or edited by another account.
	ErrRootProtected = fmt.Errorf("%w: the root account cannot be changed this way", apperr.ErrForbidden)
	// ErrOthersAccount is returned when an operator edits someone else.
	ErrOthersAccount = fmt.Errorf("%w: operators can only edit themselves", apperr.ErrForbidden)
	// ErrRoleChange is returned when an operator changes a role.
	ErrRoleChange = fmt.Errorf("%w: operators cannot change roles", apperr.ErrForbidden)
	// ErrStorageDisabled is returned for avatar uploads without object storage.
	ErrStorageDisabled = errors.New("object storage is disabled")
	// ErrNotAnImage is returned for avatar uploads of other content types.
	ErrNotAnImage = fmt.Errorf("%w: avatar must be an image", apperr.ErrValidation)
)

// Service provides the user endpoints.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validate.Validator
	sessions  *auth.SessionService
	transport *auth.Transport
	pipeline  *ingest.Pipeline
	notifier  ingest.Enqueuer
	storage   storage.Uploader
}

type createRequest struct {
	ingest.UserFields
	Password string      `json:"password" validate:"omitempty,min=8,max=72"`
	Role     models.Role `json:"role" validate:"omitempty,role"`
}

type updateRequest struct {
	Username string       `json:"username" validate:"required"`
	Name     *string      `json:"name" validate:"omitempty,max=255"`
	Email    *string      `json:"email" validate:"omitempty,max=255"`
	Password *string      `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *models.Role `json:"role" validate:"omitempty,role"`
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) error {
	if app == nil || cfg == nil || deps == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = deps.DB
	s.validator = deps.Validator
	s.sessions = deps.Sessions
	s.transport = deps.Transport
	s.pipeline = deps.Pipeline
	s.notifier = deps.Notifier
	s.storage = deps.Storage

	// bulkcreate is registered before the :username routes
	app.Route(Path, func(router fiber.Router) {
		router.Post("/bulkcreate", s.BulkCreate)
		router.Post(handler.RootPath, s.Create)
		router.Get(handler.RootPath, s.List)
		router.Put(handler.RootPath, s.Update)
		router.Get("/:username", s.Get)
		router.Delete("/:username", s.Delete)
		router.Post("/:username", s.Avatar)
	})

	return nil
}

func actor(c *fiber.Ctx) auth.Identity {
	id, _ := auth.FromCtx(c)
	return id
}

// Create creates one account. Without a password a random one is generated and sent
// with the onboarding notification.
func (s *Service) Create(c *fiber.Ctx) error {
	in := new(createRequest)
	if err := c.BodyParser(in); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err) //nolint: errorlint
	}

	if err := s.validator.Struct(in); err != nil {
		return err
	}

	role := in.Role
	if role == "" {
		role = models.RoleOperator
	}

	u, password, err := ingest.BuildUser(s.validator, in.UserFields, role)
	if err != nil {
		return err
	}

	if in.Password != "" {
		u.Password = models.HashPassword(in.Password)
		password = ""
	}

	if err := user.Create(s.db.WithContext(c.UserContext()), u); err != nil {
		return err
	}

	by := actor(c).Username
	logger.Audit(by, logger.ActionCreate, resource, u.Username)
	log.Info().Str("user", by).Str("created", u.Username).Msg("user created")

	if password != "" && s.notifier != nil {
		s.notifier.Enqueue(ingest.Messages(uuid.NewString(), []ingest.Record{
			{Kind: ingest.KindUser, User: u, Password: password},
		}))
	}

	return handler.JSON(c, fiber.StatusCreated, "user "+u.Username+" created successfully", fiber.Map{"user": u})
}

// List returns every account.
func (s *Service) List(c *fiber.Ctx) error {
	users, err := user.GetAll(s.db.WithContext(c.UserContext()))
	if err != nil {
		return err
	}

	return handler.JSON(c, fiber.StatusOK, fmt.Sprintf("fetched %d users", len(users)), fiber.Map{"users": users})
}

// Get returns one account.
func (s *Service) Get(c *fiber.Ctx) error {
	u, err := user.Get(s.db.WithContext(c.UserContext()), c.Params("username"))
	if err != nil {
		return err
	}

	return handler.JSON(c, fiber.StatusOK, "fetched "+u.Username, fiber.Map{"user": u})
}

// Update edits an account. Operators may only edit themselves and never a role.
func (s *Service) Update(c *fiber.Ctx) error {
	in := new(updateRequest)
	if err := c.BodyParser(in); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err) //nolint: errorlint
	}

	if err := s.validator.Struct(in); err != nil {
		return err
	}

	me := actor(c)
	self := me.Username == in.Username

	if me.Role == models.RoleOperator {
		if !self {
			return ErrOthersAccount
		}

		if in.Role != nil {
			return ErrRoleChange
		}
	}

	ctx := c.UserContext()

	target, err := user.Get(s.db.WithContext(ctx), in.Username)
	if err != nil {
		return err
	}

	if target.Role == models.RoleRoot && (me.Role != models.RoleRoot || in.Role != nil) {
		return ErrRootProtected
	}

	patch, err := s.patch(in)
	if err != nil {
		return err
	}

	updated, err := user.Update(s.db.WithContext(ctx), in.Username, patch)
	if err != nil {
		return err
	}

	logger.Audit(me.Username, logger.ActionUpdate, resource, updated.Username)

	body := fiber.Map{"user": updated}

	switch {
	case self:
		if err := s.reissue(c, updated, body); err != nil {
			return err
		}
	case patch.Role != nil || patch.Password != nil:
		// role and password changes apply from the next login
		s.revokeAll(ctx, updated.Username)
	}

	return handler.JSON(c, fiber.StatusOK, "user "+updated.Username+" updated", body)
}

func (s *Service) patch(in *updateRequest) (user.Patch, error) {
	var p user.Patch

	if in.Name != nil {
		name := ingest.NormalizeName(*in.Name)
		if !models.NamePattern.MatchString(name) {
			return p, &validate.Error{Fields: []validate.FieldError{{Field: "name", Tag: "personname", Value: *in.Name}}}
		}

		p.Name = &name
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != "" {
			if err := s.validator.Var("email", email, "email"); err != nil {
				return p, err
			}
		}

		p.Email = &email
	}

	if in.Password != nil {
		hashed := models.HashPassword(*in.Password)
		p.Password = &hashed
	}

	p.Role = in.Role

	return p, nil
}

// reissue swaps the caller's token for one carrying the updated snapshot.
func (s *Service) reissue(c *fiber.Ctx, u *models.User, body fiber.Map) error {
	old := auth.TokenFromCtx(c)
	if old == "" {
		return nil
	}

	token, expires, err := s.sessions.Reissue(c.UserContext(), old, auth.IdentityOf(u))
	if err != nil {
		return err
	}

	if s.transport.Attach(c, token, expires) {
		body["token"] = token
	}

	return nil
}

func (s *Service) revokeAll(ctx context.Context, username string) {
	n, err := s.sessions.RevokeAll(ctx, username)
	if err != nil {
		log.Error().Err(err).Str("target", username).Msg("failed to revoke sessions")
		return
	}

	log.Info().Str("target", username).Int64("sessions", n).Msg("sessions revoked")
}

// Delete removes an account with its sessions and avatar.
func (s *Service) Delete(c *fiber.Ctx) error {
	username := c.Params("username")
	me := actor(c)

	if username == me.Username {
		return ErrSelfDelete
	}

	ctx := c.UserContext()

	target, err := user.Get(s.db.WithContext(ctx), username)
	if err != nil {
		return err
	}

	if target.Role == models.RoleRoot {
		return ErrRootProtected
	}

	deleted, err := user.Delete(s.db.WithContext(ctx), username)
	if err != nil {
		return err
	}

	logger.Audit(me.Username, logger.ActionDelete, resource, deleted.Username)

	if deleted.Avatar != "" && s.storage != nil {
		if err := s.storage.Delete(ctx, deleted.Avatar); err != nil {
			log.Warn().Err(err).Str("target", username).Msg("failed to delete avatar")
		}
	}

	return handler.JSON(c, fiber.StatusOK, "user "+deleted.Username+" deleted successfully", nil)
}

// BulkCreate imports the accounts of the uploaded CSV file.
func (s *Service) BulkCreate(c *fiber.Ctx) error {
	path, cleanup, err := handler.SaveUpload(c, handler.FormFieldCSV)
	defer cleanup()

	if err != nil {
		return err
	}

	res, err := s.pipeline.Import(c.UserContext(), actor(c).Username, path, ingest.KindUser)
	if err != nil {
		return err
	}

	return handler.JSON(c, fiber.StatusCreated, fmt.Sprintf("%d users created successfully", res.Count), fiber.Map{
		"count":   res.Count,
		"batchId": res.BatchID,
	})
}

// Avatar stores the uploaded image as the avatar of the account.
func (s *Service) Avatar(c *fiber.Ctx) error {
	if s.storage == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, ErrStorageDisabled.Error())
	}

	username := c.Params("username")
	me := actor(c)
	ctx := c.UserContext()

	target, err := user.Get(s.db.WithContext(ctx), username)
	if err != nil {
		return err
	}

	if target.Role == models.RoleRoot && me.Role != models.RoleRoot {
		return ErrRootProtected
	}

	fh, err := c.FormFile(FormFieldAvatar)
	if err != nil {
		return fmt.Errorf("%w: missing file field %q", apperr.ErrValidation, FormFieldAvatar)
	}

	contentType := fh.Header.Get(fiber.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open avatar: %w", err)
	}
	defer f.Close()

	key := storage.AvatarKey(username)
	if err := s.storage.Put(ctx, key, f, contentType); err != nil {
		return err
	}

	updated, err := user.Update(s.db.WithContext(ctx), username, user.Patch{Avatar: &key})
	if err != nil {
		return err
	}

	logger.Audit(me.Username, logger.ActionUpdate, resource, username)

	body := fiber.Map{"user": updated}
	if me.Username == username {
		if err := s.reissue(c, updated, body); err != nil {
			return err
		}
	}

	return handler.JSON(c, fiber.StatusOK, "avatar of "+username+" updated", body)
}
