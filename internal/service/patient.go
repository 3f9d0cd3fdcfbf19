package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/repository"
	"github.com/iliyamo/clinic-api/internal/utils"
)

const (
	MsgPatientRequired = "Nome, email e password são obrigatórios."
	msgPatientNotFound = "Paciente não encontrado."
)

// PatientInput creates a patient account on behalf of the clinic.
type PatientInput struct {
	Name            string
	Email           string
	Password        string
	Phone           *string
	BirthDate       *time.Time
	Gender          *string
	Insurance       *string
	InsuranceNumber *string
	ImageURL        *string
}

// PatientUpdate is a partial admin update.
type PatientUpdate struct {
	Name            *string
	Email           *string
	Password        *string
	Phone           *string
	BirthDate       *time.Time
	Gender          *string
	Insurance       *string
	InsuranceNumber *string
	ImageURL        *string
}

// PatientService manages patient records.
type PatientService struct {
	users      UserStore
	bcryptCost int
}

func NewPatientService(users UserStore, bcryptCost int) *PatientService {
	return &PatientService{users: users, bcryptCost: bcryptCost}
}

func (s *PatientService) List(ctx context.Context) ([]model.User, error) {
	out, err := s.users.ListByRole(ctx, model.RolePatient)
	if err != nil {
		return nil, Internal(err)
	}
	return out, nil
}

func (s *PatientService) Get(ctx context.Context, id string) (model.User, error) {
	return getWithRole(ctx, s.users, id, model.RolePatient, msgPatientNotFound)
}

func (s *PatientService) Create(ctx context.Context, in PatientInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := repository.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return model.User{}, Validation(MsgPatientRequired)
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, Internal(err)
	}
	u := model.User{Name: name, Email: email, Password: hash, Role: model.RolePatient}
	applyProfile(&u, profileFields{
		ImageURL:        in.ImageURL,
		Insurance:       in.Insurance,
		InsuranceNumber: in.InsuranceNumber,
		Phone:           in.Phone,
		Gender:          in.Gender,
		BirthDate:       in.BirthDate,
	})
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, Conflict(msgEmailInUse)
		}
		return model.User{}, Internal(err)
	}
	return u, nil
}

func (s *PatientService) Update(ctx context.Context, id string, in PatientUpdate) (model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if err := applyAccount(&u, in.Name, in.Email, in.Password, s.bcryptCost); err != nil {
		return model.User{}, err
	}
	applyProfile(&u, profileFields{
		ImageURL:        in.ImageURL,
		Insurance:       in.Insurance,
		InsuranceNumber: in.InsuranceNumber,
		Phone:           in.Phone,
		Gender:          in.Gender,
		BirthDate:       in.BirthDate,
	})
	return u, saveUser(ctx, s.users, &u)
}

// Delete removes the patient with their appointments, prescriptions and
// lab results.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	return deleteWithRole(ctx, s.users, id, model.RolePatient, msgPatientNotFound)
}
