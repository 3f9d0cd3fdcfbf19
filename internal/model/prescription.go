package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Prescription is a drug order written during an appointment.  DoctorID is
// always copied from the appointment, never taken from the request.
// Prescriptions are immutable once created.
type Prescription struct {
	ID            string      `gorm:"primaryKey;size:36"`
	Farmaco       string      `gorm:"size:191;not null"`
	Dose          string      `gorm:"size:191;not null"`
	Frequencia    string      `gorm:"size:191;not null"`
	Observacoes   string      `gorm:"type:text"`
	PatientID     string      `gorm:"size:36;not null;index"`
	DoctorID      string      `gorm:"size:36;not null;index"`
	AppointmentID string      `gorm:"size:36;not null;index"`
	Patient       User        `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`
	Doctor        User        `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE"`
	Appointment   Appointment `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time   `gorm:"index"`
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (p *Prescription) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
