package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LabResult points at an uploaded exam file for a patient.
type LabResult struct {
	ID         string    `gorm:"primaryKey;size:36"`
	PatientID  string    `gorm:"size:36;not null;index"`
	Type       string    `gorm:"size:191;not null"`
	FileName   string    `gorm:"size:255;not null"`
	FileURL    string    `gorm:"column:file_url;size:1024;not null"`
	Patient    User      `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`
	UploadedAt time.Time `gorm:"autoCreateTime;index"`
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (l *LabResult) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
