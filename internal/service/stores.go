package service

import (
	"context"
	"time"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/repository"
	"github.com/iliyamo/clinic-api/internal/utils"
)

// UserStore is the subset of repository.UserRepo the services use.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByIDAndRole(ctx context.Context, id string, role model.Role) (model.User, error)
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	DeleteByIDAndRole(ctx context.Context, id string, role model.Role) error
}

// AppointmentStore is implemented by repository.AppointmentRepo.
type AppointmentStore interface {
	Create(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id string) (model.Appointment, error)
	List(ctx context.Context, f repository.AppointmentFilter) ([]model.Appointment, error)
	Delete(ctx context.Context, id string) error
	BookedSlots(ctx context.Context, doctorID string, from time.Time) ([]time.Time, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
}

// PrescriptionStore is implemented by repository.PrescriptionRepo.
type PrescriptionStore interface {
	Create(ctx context.Context, p *model.Prescription) error
	ListByPatient(ctx context.Context, patientID string) ([]model.Prescription, error)
}

// LabResultStore is implemented by repository.LabResultRepo.
type LabResultStore interface {
	Create(ctx context.Context, l *model.LabResult) error
	ListByPatient(ctx context.Context, patientID string) ([]model.LabResult, error)
}

// TokenIssuer is implemented by utils.TokenService.
type TokenIssuer interface {
	Issue(userID string, role model.Role) (utils.AccessToken, error)
}

// Actor is the verified caller of a service method.
type Actor = utils.Identity

var (
	_ UserStore         = (*repository.UserRepo)(nil)
	_ AppointmentStore  = (*repository.AppointmentRepo)(nil)
	_ PrescriptionStore = (*repository.PrescriptionRepo)(nil)
	_ LabResultStore    = (*repository.LabResultRepo)(nil)
	_ TokenIssuer       = (*utils.TokenService)(nil)
)
