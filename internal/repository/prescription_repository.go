package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/clinic-api/internal/model"
)

// PrescriptionRepo persists prescriptions.  There is no update or delete.
type PrescriptionRepo struct{ DB *gorm.DB }

func NewPrescriptionRepo(db *gorm.DB) *PrescriptionRepo { return &PrescriptionRepo{DB: db} }

func (r *PrescriptionRepo) Create(ctx context.Context, p *model.Prescription) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// ListByPatient returns the patient's prescriptions newest first with the
// prescribing doctor loaded.
func (r *PrescriptionRepo) ListByPatient(ctx context.Context, patientID string) ([]model.Prescription, error) {
	var out []model.Prescription
	err := r.DB.WithContext(ctx).Preload("Doctor").
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}
