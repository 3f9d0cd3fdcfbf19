package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/queue"
	"github.com/iliyamo/clinic-api/internal/repository"
)

const (
	MsgBookingRequired      = "Todos os campos obrigatórios devem ser preenchidos."
	msgBookingOtherPatient  = "Acesso negado. Pacientes só podem marcar consultas para si próprios."
	msgBookingBadDate       = "Data inválida. Use o formato ISO 8601."
	msgBookingPastDate      = "A data da consulta deve ser no futuro."
	msgAppointmentNotFound  = "Consulta não encontrada."
	msgCancelOtherDoctor    = "Acesso negado. Médicos só podem cancelar suas próprias consultas."
	msgAccessDenied         = "Acesso negado."
	msgCancelPast           = "Não é possível cancelar consultas passadas. Contacte a administração."
	msgAppointmentForbidden = "Não autorizado, papel insuficiente."
)

// BookingInput is the appointment creation payload.  Date is RFC 3339.
type BookingInput struct {
	DoctorID  string
	PatientID string
	Date      string
	Specialty string
}

// AppointmentQuery carries the optional listing filters.
type AppointmentQuery struct {
	DoctorID  string
	PatientID string
}

// AppointmentService is the booking flow: creation, role-scoped listing
// and cancellation.
//
// Double booking is not prevented: two requests for the same doctor and
// date both succeed.  Clients consult DoctorService.Availability to avoid
// overlaps.
type AppointmentService struct {
	users        UserStore
	appointments AppointmentStore
	events       events
	now          func() time.Time
}

func NewAppointmentService(users UserStore, appointments AppointmentStore, pub Publisher, log zerolog.Logger) *AppointmentService {
	return &AppointmentService{
		users:        users,
		appointments: appointments,
		events:       newEvents(pub, log),
		now:          time.Now,
	}
}

// Create books an appointment.  Checks run in order: required fields (400),
// role and ownership (403), date (400), referenced users (404).
func (s *AppointmentService) Create(ctx context.Context, actor Actor, in BookingInput) (model.Appointment, error) {
	in.DoctorID = strings.TrimSpace(in.DoctorID)
	in.PatientID = strings.TrimSpace(in.PatientID)
	in.Specialty = strings.TrimSpace(in.Specialty)
	in.Date = strings.TrimSpace(in.Date)
	if in.DoctorID == "" || in.PatientID == "" || in.Date == "" || in.Specialty == "" {
		return model.Appointment{}, Validation(MsgBookingRequired)
	}

	switch actor.Role {
	case model.RoleAdmin:
	case model.RolePatient:
		if in.PatientID != actor.UserID {
			return model.Appointment{}, Forbidden(msgBookingOtherPatient)
		}
	default:
		return model.Appointment{}, Forbidden(msgAppointmentForbidden)
	}

	date, err := time.Parse(time.RFC3339, in.Date)
	if err != nil {
		return model.Appointment{}, Validation(msgBookingBadDate)
	}
	date = date.UTC()
	if actor.Role != model.RoleAdmin && !date.After(s.now()) {
		return model.Appointment{}, Validation(msgBookingPastDate)
	}

	doctor, err := getWithRole(ctx, s.users, in.DoctorID, model.RoleDoctor, msgDoctorNotFound)
	if err != nil {
		return model.Appointment{}, err
	}
	patient, err := getWithRole(ctx, s.users, in.PatientID, model.RolePatient, msgPatientNotFound)
	if err != nil {
		return model.Appointment{}, err
	}

	a := model.Appointment{
		Date:      date,
		Specialty: in.Specialty,
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
	}
	if err := s.appointments.Create(ctx, &a); err != nil {
		return model.Appointment{}, Internal(err)
	}
	a.Doctor = doctor
	a.Patient = patient

	s.events.emit(ctx, queue.AppointmentCreated(a, actor.UserID, s.now()))
	return a, nil
}

// List returns appointments visible to actor, newest first.  Patients see
// only their own; doctors see only theirs, optionally narrowed to one
// patient; admins see all, optionally filtered by doctor and patient.
func (s *AppointmentService) List(ctx context.Context, actor Actor, q AppointmentQuery) ([]model.Appointment, error) {
	var f repository.AppointmentFilter
	switch actor.Role {
	case model.RolePatient:
		f.PatientID = actor.UserID
	case model.RoleDoctor:
		f.DoctorID = actor.UserID
		f.PatientID = strings.TrimSpace(q.PatientID)
	case model.RoleAdmin:
		f.DoctorID = strings.TrimSpace(q.DoctorID)
		f.PatientID = strings.TrimSpace(q.PatientID)
	default:
		return nil, Forbidden(msgAppointmentForbidden)
	}
	out, err := s.appointments.List(ctx, f)
	if err != nil {
		return nil, Internal(err)
	}
	return out, nil
}

// Cancel deletes an appointment.  Checks run in order: existence (404),
// ownership (403), past-date guard for non-admins (403).
func (s *AppointmentService) Cancel(ctx context.Context, actor Actor, id string) (model.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Appointment{}, NotFound(msgAppointmentNotFound)
		}
		return model.Appointment{}, Internal(err)
	}

	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		if a.DoctorID != actor.UserID {
			return model.Appointment{}, Forbidden(msgCancelOtherDoctor)
		}
	case model.RolePatient:
		if a.PatientID != actor.UserID {
			return model.Appointment{}, Forbidden(msgAccessDenied)
		}
	default:
		return model.Appointment{}, Forbidden(msgAppointmentForbidden)
	}

	if actor.Role != model.RoleAdmin && a.Date.Before(s.now()) {
		return model.Appointment{}, Forbidden(msgCancelPast)
	}

	if err := s.appointments.Delete(ctx, a.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Appointment{}, NotFound(msgAppointmentNotFound)
		}
		return model.Appointment{}, Internal(err)
	}

	s.events.emit(ctx, queue.AppointmentCancelled(a, actor.UserID, s.now()))
	return a, nil
}
