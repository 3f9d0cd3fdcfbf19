package service

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/queue"
)

const (
	MsgLabUploadRequired = "Por favor, selecione um arquivo e um tipo de exame."
	msgLabOtherOwner     = "Acesso negado. Pacientes só podem ver os seus próprios resultados."
	msgLabFileNotFound   = "Ficheiro não encontrado."
)

// LabUpload is a lab result file submitted by a doctor or admin.
type LabUpload struct {
	PatientID string
	Type      string
	FileName  string
	Body      io.Reader
}

// LabResultService stores lab result files and their metadata.
type LabResultService struct {
	users   UserStore
	results LabResultStore
	files   FileStore
	events  events
	now     func() time.Time
}

func NewLabResultService(users UserStore, results LabResultStore, files FileStore, pub Publisher, log zerolog.Logger) *LabResultService {
	return &LabResultService{
		users:   users,
		results: results,
		files:   files,
		events:  newEvents(pub, log),
		now:     time.Now,
	}
}

// Upload stores the file and records it for the patient.  If the insert
// fails the file stays on disk.
func (s *LabResultService) Upload(ctx context.Context, actor Actor, in LabUpload) (model.LabResult, error) {
	in.PatientID = strings.TrimSpace(in.PatientID)
	in.Type = strings.TrimSpace(in.Type)
	if in.PatientID == "" || in.Type == "" || strings.TrimSpace(in.FileName) == "" || in.Body == nil {
		return model.LabResult{}, Validation(MsgLabUploadRequired)
	}
	if _, err := getWithRole(ctx, s.users, in.PatientID, model.RolePatient, msgPatientNotFound); err != nil {
		return model.LabResult{}, err
	}

	url, err := s.files.Save(ctx, in.PatientID, in.FileName, in.Body)
	if err != nil {
		if errors.Is(err, ErrBadFileName) {
			return model.LabResult{}, Validation(MsgLabUploadRequired)
		}
		return model.LabResult{}, Internal(err)
	}

	l := model.LabResult{
		PatientID: in.PatientID,
		Type:      in.Type,
		FileName:  in.FileName,
		FileURL:   url,
	}
	if err := s.results.Create(ctx, &l); err != nil {
		return model.LabResult{}, Internal(err)
	}

	s.events.emit(ctx, queue.LabResultUploaded(l, actor.UserID, s.now()))
	return l, nil
}

// ListByPatient returns a patient's results newest first.  Patients may
// only list their own.
func (s *LabResultService) ListByPatient(ctx context.Context, actor Actor, patientID string) ([]model.LabResult, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, Validation(msgPatientIDRequired)
	}
	if err := s.canRead(actor, patientID); err != nil {
		return nil, err
	}
	out, err := s.results.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, Internal(err)
	}
	return out, nil
}

// FilePath resolves a stored file under the same ownership rule as
// ListByPatient.
func (s *LabResultService) FilePath(actor Actor, patientID, storedName string) (string, error) {
	if err := s.canRead(actor, patientID); err != nil {
		return "", err
	}
	p, err := s.files.Path(patientID, storedName)
	if err != nil {
		if errors.Is(err, ErrBadFileName) || errors.Is(err, fs.ErrNotExist) {
			return "", NotFound(msgLabFileNotFound)
		}
		return "", Internal(err)
	}
	return p, nil
}

func (s *LabResultService) canRead(actor Actor, patientID string) error {
	if actor.Role == model.RolePatient && actor.UserID != patientID {
		return Forbidden(msgLabOtherOwner)
	}
	return nil
}
