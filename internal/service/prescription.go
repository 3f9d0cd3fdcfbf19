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
	MsgPrescriptionRequired   = "Todos os campos obrigatórios devem ser preenchidos."
	msgPrescriptionBadAppt    = "Consulta inválida ou não pertence ao paciente especificado."
	msgPrescriptionOtherDoc   = "Acesso negado. Só pode prescrever em consultas que lhe pertencem."
	msgPatientIDRequired      = "ID do paciente obrigatório."
	msgPrescriptionOtherOwner = "Acesso negado. Só pode ver suas prescrições."
)

// PrescriptionInput is the creation payload.  The prescribing doctor is
// never taken from the request.
type PrescriptionInput struct {
	PatientID     string
	AppointmentID string
	Farmaco       string
	Dose          string
	Frequencia    string
	Observacoes   *string
}

// PrescriptionService writes and lists prescriptions.
type PrescriptionService struct {
	appointments  AppointmentStore
	prescriptions PrescriptionStore
	events        events
	now           func() time.Time
}

func NewPrescriptionService(appointments AppointmentStore, prescriptions PrescriptionStore, pub Publisher, log zerolog.Logger) *PrescriptionService {
	return &PrescriptionService{
		appointments:  appointments,
		prescriptions: prescriptions,
		events:        newEvents(pub, log),
		now:           time.Now,
	}
}

// Create records a prescription against an existing appointment of the
// given patient.  Doctors may only prescribe on their own appointments.
// The appointment read and the insert are separate statements.
func (s *PrescriptionService) Create(ctx context.Context, actor Actor, in PrescriptionInput) (model.Prescription, error) {
	in.PatientID = strings.TrimSpace(in.PatientID)
	in.AppointmentID = strings.TrimSpace(in.AppointmentID)
	if in.PatientID == "" || in.AppointmentID == "" ||
		strings.TrimSpace(in.Farmaco) == "" || strings.TrimSpace(in.Dose) == "" || strings.TrimSpace(in.Frequencia) == "" {
		return model.Prescription{}, Validation(MsgPrescriptionRequired)
	}

	appt, err := s.appointments.GetByID(ctx, in.AppointmentID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return model.Prescription{}, Internal(err)
	}
	if err != nil || appt.PatientID != in.PatientID {
		return model.Prescription{}, NotFound(msgPrescriptionBadAppt)
	}
	if actor.Role == model.RoleDoctor && appt.DoctorID != actor.UserID {
		return model.Prescription{}, Forbidden(msgPrescriptionOtherDoc)
	}

	p := model.Prescription{
		Farmaco:       strings.TrimSpace(in.Farmaco),
		Dose:          strings.TrimSpace(in.Dose),
		Frequencia:    strings.TrimSpace(in.Frequencia),
		PatientID:     in.PatientID,
		AppointmentID: appt.ID,
		DoctorID:      appt.DoctorID,
	}
	if in.Observacoes != nil {
		p.Observacoes = *in.Observacoes
	}
	if err := s.prescriptions.Create(ctx, &p); err != nil {
		return model.Prescription{}, Internal(err)
	}
	p.Doctor = appt.Doctor

	s.events.emit(ctx, queue.PrescriptionCreated(p, actor.UserID, s.now()))
	return p, nil
}

// ListByPatient returns a patient's prescriptions newest first.  Patients
// may only list their own.
func (s *PrescriptionService) ListByPatient(ctx context.Context, actor Actor, patientID string) ([]model.Prescription, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, Validation(msgPatientIDRequired)
	}
	if actor.Role == model.RolePatient && actor.UserID != patientID {
		return nil, Forbidden(msgPrescriptionOtherOwner)
	}
	out, err := s.prescriptions.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, Internal(err)
	}
	return out, nil
}
