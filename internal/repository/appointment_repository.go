package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/clinic-api/internal/model"
)

// AppointmentFilter narrows List.  Empty fields do not filter.
type AppointmentFilter struct {
	DoctorID  string
	PatientID string
}

// AppointmentRepo persists appointments.  No uniqueness is enforced on
// (doctor_id, date); two bookings for the same slot both succeed.
type AppointmentRepo struct{ DB *gorm.DB }

func NewAppointmentRepo(db *gorm.DB) *AppointmentRepo { return &AppointmentRepo{DB: db} }

// Create inserts a.  Doctor and Patient are not written.
func (r *AppointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

// GetByID fetches an appointment with doctor and patient loaded.
func (r *AppointmentRepo) GetByID(ctx context.Context, id string) (model.Appointment, error) {
	var a model.Appointment
	err := r.DB.WithContext(ctx).Preload("Doctor").Preload("Patient").Where("id = ?", id).Take(&a).Error
	return a, notFound(err)
}

// List returns the matching appointments newest first, with doctor and
// patient loaded for name denormalization.
func (r *AppointmentRepo) List(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	q := r.DB.WithContext(ctx).Preload("Doctor").Preload("Patient")
	if f.DoctorID != "" {
		q = q.Where("doctor_id = ?", f.DoctorID)
	}
	if f.PatientID != "" {
		q = q.Where("patient_id = ?", f.PatientID)
	}
	var out []model.Appointment
	err := q.Order("date DESC").Find(&out).Error
	return out, err
}

// Delete hard-deletes the appointment.  Prescriptions written for it go
// with it through the cascade.
func (r *AppointmentRepo) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Appointment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BookedSlots returns the dates of the doctor's appointments at or after
// from, earliest first.
func (r *AppointmentRepo) BookedSlots(ctx context.Context, doctorID string, from time.Time) ([]time.Time, error) {
	var out []time.Time
	err := r.DB.WithContext(ctx).Model(&model.Appointment{}).
		Where("doctor_id = ? AND date >= ?", doctorID, from).
		Order("date ASC").
		Pluck("date", &out).Error
	return out, err
}

// ListBetween returns appointments with from <= date < to, earliest first,
// with doctor and patient loaded.
func (r *AppointmentRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	var out []model.Appointment
	err := r.DB.WithContext(ctx).Preload("Doctor").Preload("Patient").
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC").
		Find(&out).Error
	return out, err
}
