package handler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/rollcall-admin/rollcall/internal/apperr"
)

// SaveUpload stores the multipart file of field in a private temp directory. The
// original base name is kept so the extension can be checked. The returned cleanup
// removes the directory and must be called on every path.
func SaveUpload(c *fiber.Ctx, field string) (string, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", func() {}, fmt.Errorf("%w: missing file field %q", apperr.ErrValidation, field)
	}

	dir, err := os.MkdirTemp("", "upload-")
	if err != nil {
		return "", func() {}, fmt.Errorf("create upload dir: %w", err)
	}

	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("failed to remove upload dir")
		}
	}

	name := filepath.Base(fh.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = field
	}

	path := filepath.Join(dir, name)
	if err := c.SaveFile(fh, path); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("save upload: %w", err)
	}

	return path, cleanup, nil
}
