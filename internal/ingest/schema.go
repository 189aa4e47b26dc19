// Package ingest turns uploaded CSV files into validated user or person records
// and persists them as one batch.
//
// The pipeline is parse, transform, validate, persist, audit and then the
// post-commit side effects (onboarding notifications, person QR codes). Parsing and
// validation complete before anything is written, and the batch insert is one
// transaction: a single conflicting row leaves the store untouched.
package ingest

import (
	"fmt"
	"slices"

	"github.com/rollcall-admin/rollcall/internal/apperr"
)

// Kind is the entity a file holds.
type Kind string

// Entity kinds.
const (
	KindUser   Kind = "user"
	KindPerson Kind = "person"
)

var columns = map[Kind][]string{
	KindUser:   {"name", "email"},
	KindPerson: {"name", "email", "gender", "cellphone", "illness", "tutor", "zone", "branch", "room"},
}

// ErrUnknownKind is returned for kinds other than user and person.
var ErrUnknownKind = fmt.Errorf("%w: unknown import kind", apperr.ErrValidation)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := columns[k]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownKind, s)
	}

	return k, nil
}

// Columns returns the exact ordered header of kind.
func (k Kind) Columns() []string {
	return slices.Clone(columns[k])
}

// UserFields are the input fields of a user, from a CSV row or a request body.
type UserFields struct {
	// Username is derived from the name when empty. CSV rows never carry one.
	Username string `json:"username" validate:"omitempty,username"`
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
}

// PersonFields are the input fields of a person, from a CSV row or a request body.
type PersonFields struct {
	Name      string `json:"name" validate:"required,max=255"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Gender    string `json:"gender" validate:"max=20"`
	Cellphone string `json:"cellphone" validate:"max=50"`
	Illness   string `json:"illness" validate:"max=255"`
	Tutor     string `json:"tutor" validate:"max=255"`
	Zone      string `json:"zone" validate:"max=100"`
	Branch    string `json:"branch" validate:"max=100"`
	Room      string `json:"room" validate:"max=50"`
}

func userFields(r Row) UserFields {
	return UserFields{Name: r["name"], Email: r["email"]}
}

func personFields(r Row) PersonFields {
	return PersonFields{
		Name:      r["name"],
		Email:     r["email"],
		Gender:    r["gender"],
		Cellphone: r["cellphone"],
		Illness:   r["illness"],
		Tutor:     r["tutor"],
		Zone:      r["zone"],
		Branch:    r["branch"],
		Room:      r["room"],
	}
}
