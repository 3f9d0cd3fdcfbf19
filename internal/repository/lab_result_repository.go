package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/clinic-api/internal/model"
)

// LabResultRepo persists lab result metadata.  File bytes live outside the
// database.
type LabResultRepo struct{ DB *gorm.DB }

func NewLabResultRepo(db *gorm.DB) *LabResultRepo { return &LabResultRepo{DB: db} }

func (r *LabResultRepo) Create(ctx context.Context, l *model.LabResult) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(l).Error
}

// ListByPatient returns the patient's results newest first.
func (r *LabResultRepo) ListByPatient(ctx context.Context, patientID string) ([]model.LabResult, error) {
	var out []model.LabResult
	err := r.DB.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("uploaded_at DESC").
		Find(&out).Error
	return out, err
}
