package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment records a scheduled visit between a doctor and a patient.
// Cancelling an appointment deletes the row; there is no retained
// cancelled state.
//
// Fields:
//
//	ID        – UUID primary key.
//	Date      – when the visit takes place (UTC).
//	Specialty – medical field of the visit, e.g. Cardiologia.
//	DoctorID  – users.id of a DOCTOR.
//	PatientID – users.id of a PATIENT.
type Appointment struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Date      time.Time `gorm:"not null;index"`
	Specialty string    `gorm:"size:191;not null"`
	DoctorID  string    `gorm:"size:36;not null;index"`
	PatientID string    `gorm:"size:36;not null;index"`
	Doctor    User      `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE"`
	Patient   User      `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
