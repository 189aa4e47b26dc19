// Package person provides CRUD and reporting operations for person records.
package person

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/db/models"
)

const (
	personIDQueryPattern = "person_id = ?"
)

var (
	// ErrPersonNotFound is returned when a person is not found.
	ErrPersonNotFound = fmt.Errorf("person %w", apperr.ErrNotFound)
	// ErrPersonIDEmpty is returned when a person id is required but empty.
	ErrPersonIDEmpty = fmt.Errorf("%w: person id cannot be empty", apperr.ErrValidation)
	// ErrPersonAlreadyExists is returned when id, name or email collides with an existing person.
	ErrPersonAlreadyExists = fmt.Errorf("person %w", apperr.ErrConflict)
	// ErrUnknownCategory is returned when grouping by a column that is not a category.
	ErrUnknownCategory = fmt.Errorf("%w: unknown category", apperr.ErrValidation)
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Patch holds the mutable fields of a person. Nil fields are left untouched.
type Patch struct {
	Name       *string
	Email      *string
	Gender     *string
	Cellphone  *string
	Illness    *string
	Tutor      *string
	Zone       *string
	Branch     *string
	Room       *string
	Registered *bool
}

// CategoryCount is one distinct value of a category column.
type CategoryCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Stats summarises the person table.
type Stats struct {
	Total      int64            `json:"total"`
	Registered int64            `json:"registered"`
	ByGender   map[string]int64 `json:"byGender"`
}

// Get retrieves a person by person id.
func Get(db *gorm.DB, personID string) (*models.Person, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if personID == "" {
		return nil, ErrPersonIDEmpty
	}

	var p models.Person
	result := db.Where(personIDQueryPattern, personID).First(&p)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPersonNotFound
		}
		return nil, result.Error
	}

	return &p, nil
}

// GetAll retrieves all persons ordered by name.
func GetAll(db *gorm.DB) ([]models.Person, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var persons []models.Person
	result := db.Order("name").Find(&persons)
	if result.Error != nil {
		return nil, result.Error
	}

	return persons, nil
}

// Create inserts a new person.
func Create(db *gorm.DB, p *models.Person) error {
	if db == nil {
		return ErrDBNil
	}
	if p.PersonID == "" {
		return ErrPersonIDEmpty
	}

	if err := db.Create(p).Error; err != nil {
		return translate(err)
	}

	return nil
}

// CreateBatch inserts all persons with a single statement.
func CreateBatch(db *gorm.DB, persons []models.Person) error {
	if db == nil {
		return ErrDBNil
	}
	if len(persons) == 0 {
		return nil
	}

	if err := db.Create(&persons).Error; err != nil {
		return translate(err)
	}

	return nil
}

// Update applies the patch to the person identified by person id.
func Update(db *gorm.DB, personID string, p Patch) (*models.Person, error) {
	existing, err := Get(db, personID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	setString := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}

	setString("name", p.Name)
	setString("gender", p.Gender)
	setString("cellphone", p.Cellphone)
	setString("illness", p.Illness)
	setString("tutor", p.Tutor)
	setString("zone", p.Zone)
	setString("branch", p.Branch)
	setString("room", p.Room)

	if p.Email != nil {
		if *p.Email == "" {
			updates["email"] = nil
		} else {
			updates["email"] = *p.Email
		}
	}
	if p.Registered != nil {
		updates["registered"] = *p.Registered
	}

	if len(updates) == 0 {
		return existing, nil
	}

	if err := db.Model(existing).Updates(updates).Error; err != nil {
		return nil, translate(err)
	}

	return Get(db, personID)
}

// Delete removes a person and returns the deleted record.
func Delete(db *gorm.DB, personID string) (*models.Person, error) {
	p, err := Get(db, personID)
	if err != nil {
		return nil, err
	}

	if err := db.Delete(p).Error; err != nil {
		return nil, err
	}

	return p, nil
}

// Category returns the distinct values of a category column with their counts.
func Category(db *gorm.DB, name string) ([]CategoryCount, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	column, ok := models.CategoryColumns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}

	var out []CategoryCount
	result := db.Model(&models.Person{}).
		Select(column + " AS value, COUNT(*) AS count").
		Group(column).
		Order(column).
		Scan(&out)
	if result.Error != nil {
		return nil, result.Error
	}

	return out, nil
}

// GetStats counts all, registered and per gender persons.
func GetStats(db *gorm.DB) (Stats, error) {
	if db == nil {
		return Stats{}, ErrDBNil
	}

	stats := Stats{ByGender: map[string]int64{}}

	if err := db.Model(&models.Person{}).Count(&stats.Total).Error; err != nil {
		return Stats{}, err
	}

	if err := db.Model(&models.Person{}).Where("registered = ?", true).Count(&stats.Registered).Error; err != nil {
		return Stats{}, err
	}

	genders, err := Category(db, "gender")
	if err != nil {
		return Stats{}, err
	}

	for _, g := range genders {
		stats.ByGender[g.Value] = g.Count
	}

	return stats, nil
}

func translate(err error) error {
	if apperr.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrPersonAlreadyExists, err) //nolint: errorlint
	}

	return err
}
