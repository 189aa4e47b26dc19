package login

import (
	"fmt"

	"github.com/rollcall-admin/rollcall/internal/apperr"
)

// ErrInvalidFormData is returned when the login body cannot be parsed.
var ErrInvalidFormData = fmt.Errorf("%w: invalid form data", apperr.ErrValidation)
