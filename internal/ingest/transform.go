package ingest

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rollcall-admin/rollcall/internal/db/models"
	"github.com/rollcall-admin/rollcall/internal/random"
	"github.com/rollcall-admin/rollcall/internal/validate"
)

// placeholder stands in for Ñ while diacritics are stripped.
const placeholder = '\uE000'

// Record is the canonical form of one row.
type Record struct {
	Kind   Kind
	Line   int
	User   *models.User
	Person *models.Person
	// Password is the generated plaintext credential of a user, for the onboarding notification only.
	Password string
}

// Key identifies the record in notifications and logs.
func (r Record) Key() string {
	if r.User != nil {
		return r.User.Username
	}

	if r.Person != nil {
		return r.Person.PersonID
	}

	return ""
}

// Email returns the contact address of the record.
func (r Record) Email() string {
	if r.User != nil {
		return r.User.EmailAddress()
	}

	if r.Person != nil {
		return r.Person.EmailAddress()
	}

	return ""
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	return out
}

// CreatePersonID derives the person id: diacritics stripped, lowercased and
// whitespace removed. Punctuation is kept.
func CreatePersonID(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, stripDiacritics(name))
}

// NormalizeName strips diacritics except Ñ, uppercases and collapses whitespace.
func NormalizeName(name string) string {
	s := norm.NFC.String(name)
	s = strings.NewReplacer("ñ", string(placeholder), "Ñ", string(placeholder)).Replace(s)
	s = stripDiacritics(s)
	s = strings.ReplaceAll(s, string(placeholder), "Ñ")

	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// CreateUsername derives a login handle from the first initial and the surname, the
// word after the first name. Single word names use the whole word. Only a-z is kept.
func CreateUsername(name string) string {
	words := strings.Fields(stripDiacritics(name))

	var handle string

	switch len(words) {
	case 0:
		return ""
	case 1:
		handle = words[0]
	default:
		first := []rune(words[0])
		handle = string(first[0]) + words[1]
	}

	return strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, handle)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	return &s
}

// NewUser builds a user with a generated password from validated fields. The
// plaintext password is returned for the onboarding notification.
func NewUser(f UserFields, role models.Role) (*models.User, string) {
	password := random.Password(random.PasswordLen)

	var email *string
	if e := optional(f.Email); e != nil {
		lower := strings.ToLower(*e)
		email = &lower
	}

	username := f.Username
	if username == "" {
		username = CreateUsername(f.Name)
	}

	return &models.User{
		Username: username,
		Name:     NormalizeName(f.Name),
		Email:    email,
		Password: models.HashPassword(password),
		Role:     role,
	}, password
}

// NewPerson builds a person from validated fields.
func NewPerson(f PersonFields) *models.Person {
	var email *string
	if e := optional(f.Email); e != nil {
		lower := strings.ToLower(*e)
		email = &lower
	}

	return &models.Person{
		PersonID:  CreatePersonID(f.Name),
		Name:      NormalizeName(f.Name),
		Email:     email,
		Gender:    strings.ToUpper(strings.TrimSpace(f.Gender)),
		Cellphone: strings.TrimSpace(f.Cellphone),
		Illness:   strings.TrimSpace(f.Illness),
		Tutor:     strings.TrimSpace(f.Tutor),
		Zone:      strings.TrimSpace(f.Zone),
		Branch:    strings.TrimSpace(f.Branch),
		Room:      strings.TrimSpace(f.Room),
	}
}

// derived holds the generated fields checked with the same rules as single creation.
type derived struct {
	Username string `json:"username" validate:"required,username"`
	Name     string `json:"name" validate:"required,personname"`
}

type derivedPerson struct {
	PersonID string `json:"personId" validate:"required,personid"`
	Name     string `json:"name" validate:"required,personname"`
}

// BuildUser validates user fields and derives the account, as in a bulk import. The
// plaintext password is returned for the onboarding notification.
func BuildUser(v *validate.Validator, f UserFields, role models.Role) (*models.User, string, error) {
	if err := v.Struct(f); err != nil {
		return nil, "", err
	}

	u, password := NewUser(f, role)
	if err := v.Struct(derived{Username: u.Username, Name: u.Name}); err != nil {
		return nil, "", err
	}

	return u, password, nil
}

// BuildPerson validates person fields and derives the record, as in a bulk import.
func BuildPerson(v *validate.Validator, f PersonFields) (*models.Person, error) {
	if err := v.Struct(f); err != nil {
		return nil, err
	}

	p := NewPerson(f)
	if err := v.Struct(derivedPerson{PersonID: p.PersonID, Name: p.Name}); err != nil {
		return nil, err
	}

	return p, nil
}

// Transform validates a raw row and derives the canonical record.
func Transform(v *validate.Validator, row Row, kind Kind) (Record, error) {
	switch kind {
	case KindUser:
		u, password, err := BuildUser(v, userFields(row), models.RoleOperator)
		if err != nil {
			return Record{}, err
		}

		return Record{Kind: kind, User: u, Password: password}, nil
	case KindPerson:
		p, err := BuildPerson(v, personFields(row))
		if err != nil {
			return Record{}, err
		}

		return Record{Kind: kind, Person: p}, nil
	default:
		return Record{}, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
}
