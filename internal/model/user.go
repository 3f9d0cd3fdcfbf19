package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role controls endpoint access and data visibility.  Values are stored
// upper-case; NormalizeRole should be applied to anything read from a
// token or request before comparing.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

// NormalizeRole trims and upper-cases a role string.  Older clients sent
// lower-case roles ("patient"), so comparisons always go through here.
func NormalizeRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// User represents a row in the `users` table.  Doctors, patients and
// administrators share the table and are told apart by Role.
//
// Fields:
//
//	ID              – UUID primary key.
//	Name            – display name.
//	Email           – unique, stored lower-case.
//	Password        – bcrypt hash, never serialized.
//	Role            – ADMIN, DOCTOR or PATIENT; immutable after creation.
//	Phone ... ImageURL – optional profile fields.
//	Specialty       – doctors only; JSON array column.
type User struct {
	ID              string                      `gorm:"primaryKey;size:36"`
	Name            string                      `gorm:"size:191;not null"`
	Email           string                      `gorm:"size:191;not null;uniqueIndex"`
	Password        string                      `gorm:"size:191;not null"`
	Role            Role                        `gorm:"size:16;not null;default:'PATIENT';index"`
	Phone           *string                     `gorm:"size:32"`
	BirthDate       *time.Time
	Gender          *string                     `gorm:"size:32"`
	Insurance       *string                     `gorm:"size:191"`
	InsuranceNumber *string                     `gorm:"size:191"`
	ImageURL        *string                     `gorm:"column:image_url;size:512"`
	Specialty       datatypes.JSONSlice[string] `gorm:"type:json"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Role = NormalizeRole(string(u.Role))
	return nil
}
