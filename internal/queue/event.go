// Package queue defines the clinic event payloads exchanged over the
// message broker and the consumer that records them.
package queue

import (
	"time"

	"github.com/iliyamo/clinic-api/internal/model"
)

// Event types published to the events queue.
const (
	TypeAppointmentCreated   = "appointment.created"
	TypeAppointmentCancelled = "appointment.cancelled"
	TypeAppointmentReminder  = "appointment.reminder"
	TypePrescriptionCreated  = "prescription.created"
	TypeLabResultUploaded    = "lab_result.uploaded"
)

// Event is published whenever clinic data changes in a way downstream
// consumers may care about.  It carries enough context to log or notify
// without querying the primary database; fields that do not apply to
// Type are omitted.
type Event struct {
	Type       string `json:"type"`
	OccurredAt string `json:"occurred_at"`
	ActorID    string `json:"actor_id,omitempty"`

	AppointmentID string `json:"appointment_id,omitempty"`
	DoctorID      string `json:"doctor_id,omitempty"`
	DoctorName    string `json:"doctor_name,omitempty"`
	PatientID     string `json:"patient_id,omitempty"`
	PatientName   string `json:"patient_name,omitempty"`
	Specialty     string `json:"specialty,omitempty"`
	Date          string `json:"date,omitempty"`

	PrescriptionID string `json:"prescription_id,omitempty"`
	Farmaco        string `json:"farmaco,omitempty"`

	LabResultID string `json:"lab_result_id,omitempty"`
	ExamType    string `json:"exam_type,omitempty"`
	FileName    string `json:"file_name,omitempty"`
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func appointmentEvent(typ string, a model.Appointment, at time.Time) Event {
	return Event{
		Type:          typ,
		OccurredAt:    stamp(at),
		AppointmentID: a.ID,
		DoctorID:      a.DoctorID,
		DoctorName:    a.Doctor.Name,
		PatientID:     a.PatientID,
		PatientName:   a.Patient.Name,
		Specialty:     a.Specialty,
		Date:          stamp(a.Date),
	}
}

// AppointmentCreated describes a new booking.  Doctor and Patient names are
// included when loaded on a.
func AppointmentCreated(a model.Appointment, actorID string, at time.Time) Event {
	ev := appointmentEvent(TypeAppointmentCreated, a, at)
	ev.ActorID = actorID
	return ev
}

// AppointmentCancelled describes a deleted booking.
func AppointmentCancelled(a model.Appointment, actorID string, at time.Time) Event {
	ev := appointmentEvent(TypeAppointmentCancelled, a, at)
	ev.ActorID = actorID
	return ev
}

// AppointmentReminder is emitted by the reminder job ahead of a visit.
func AppointmentReminder(a model.Appointment, at time.Time) Event {
	return appointmentEvent(TypeAppointmentReminder, a, at)
}

// PrescriptionCreated describes a new prescription.
func PrescriptionCreated(p model.Prescription, actorID string, at time.Time) Event {
	return Event{
		Type:           TypePrescriptionCreated,
		OccurredAt:     stamp(at),
		ActorID:        actorID,
		PrescriptionID: p.ID,
		AppointmentID:  p.AppointmentID,
		DoctorID:       p.DoctorID,
		DoctorName:     p.Doctor.Name,
		PatientID:      p.PatientID,
		Farmaco:        p.Farmaco,
	}
}

// LabResultUploaded describes a stored lab result file.
func LabResultUploaded(l model.LabResult, actorID string, at time.Time) Event {
	return Event{
		Type:        TypeLabResultUploaded,
		OccurredAt:  stamp(at),
		ActorID:     actorID,
		LabResultID: l.ID,
		PatientID:   l.PatientID,
		ExamType:    l.Type,
		FileName:    l.FileName,
	}
}
