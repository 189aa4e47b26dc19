package models

import (
	"regexp"
	"time"
)

// PersonIDPattern matches derived person ids: lowercase name characters without whitespace,
// starting with a letter or digit.
var PersonIDPattern = regexp.MustCompile(`^[\p{Ll}\p{Lo}\p{N}][\p{Ll}\p{Lo}\p{N}'.-]*$`)

// Person is an attendee or member record.
type Person struct {
	ID         uint64    `gorm:"primaryKey" json:"-"`
	PersonID   string    `gorm:"uniqueIndex;size:255;not null" json:"personId"`
	Name       string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Email      *string   `gorm:"uniqueIndex;size:255" json:"email,omitempty"`
	Gender     string    `gorm:"size:20" json:"gender,omitempty"`
	Cellphone  string    `gorm:"size:50" json:"cellphone,omitempty"`
	Illness    string    `gorm:"size:255" json:"illness,omitempty"`
	Tutor      string    `gorm:"size:255" json:"tutor,omitempty"`
	Zone       string    `gorm:"size:100" json:"zone,omitempty"`
	Branch     string    `gorm:"size:100" json:"branch,omitempty"`
	Room       string    `gorm:"size:50" json:"room,omitempty"`
	Registered bool      `gorm:"not null;default:false" json:"registered"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// EmailAddress returns the email or an empty string.
func (p *Person) EmailAddress() string {
	if p.Email == nil {
		return ""
	}

	return *p.Email
}

// CategoryColumns lists the person columns that can be grouped by.
var CategoryColumns = map[string]string{
	"gender": "gender",
	"zone":   "zone",
	"branch": "branch",
	"room":   "room",
	"tutor":  "tutor",
}
