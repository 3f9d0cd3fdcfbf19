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
	MsgDoctorRequired = "Nome, email, password e especialidade são obrigatórios."
	msgDoctorNotFound = "Médico não encontrado."
)

// DoctorInput creates a doctor account.
type DoctorInput struct {
	Name      string
	Email     string
	Password  string
	Specialty []string
	ImageURL  *string
}

// DoctorUpdate is a partial admin update.  A nil Specialty keeps the
// current list.
type DoctorUpdate struct {
	Name      *string
	Email     *string
	Password  *string
	ImageURL  *string
	Specialty []string
}

// DoctorService manages the doctor directory.
type DoctorService struct {
	users        UserStore
	appointments AppointmentStore
	bcryptCost   int
	now          func() time.Time
}

func NewDoctorService(users UserStore, appointments AppointmentStore, bcryptCost int) *DoctorService {
	return &DoctorService{users: users, appointments: appointments, bcryptCost: bcryptCost, now: time.Now}
}

func (s *DoctorService) List(ctx context.Context) ([]model.User, error) {
	out, err := s.users.ListByRole(ctx, model.RoleDoctor)
	if err != nil {
		return nil, Internal(err)
	}
	return out, nil
}

func (s *DoctorService) Get(ctx context.Context, id string) (model.User, error) {
	return getWithRole(ctx, s.users, id, model.RoleDoctor, msgDoctorNotFound)
}

func (s *DoctorService) Create(ctx context.Context, in DoctorInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := repository.NormalizeEmail(in.Email)
	specialty := cleanList(in.Specialty)
	if name == "" || email == "" || in.Password == "" || len(specialty) == 0 {
		return model.User{}, Validation(MsgDoctorRequired)
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, Internal(err)
	}
	u := model.User{
		Name:      name,
		Email:     email,
		Password:  hash,
		Role:      model.RoleDoctor,
		Specialty: specialty,
		ImageURL:  in.ImageURL,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, Conflict(msgEmailInUse)
		}
		return model.User{}, Internal(err)
	}
	return u, nil
}

func (s *DoctorService) Update(ctx context.Context, id string, in DoctorUpdate) (model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if err := applyAccount(&u, in.Name, in.Email, in.Password, s.bcryptCost); err != nil {
		return model.User{}, err
	}
	if in.ImageURL != nil {
		u.ImageURL = in.ImageURL
	}
	if in.Specialty != nil {
		if list := cleanList(in.Specialty); len(list) > 0 {
			u.Specialty = list
		}
	}
	return u, saveUser(ctx, s.users, &u)
}

// Delete removes the doctor together with their appointments and
// prescriptions.
func (s *DoctorService) Delete(ctx context.Context, id string) error {
	return deleteWithRole(ctx, s.users, id, model.RoleDoctor, msgDoctorNotFound)
}

// Availability lists the start times already booked for the doctor from
// now on.  The list is advisory; booking does not consult it.
func (s *DoctorService) Availability(ctx context.Context, id string) ([]time.Time, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	slots, err := s.appointments.BookedSlots(ctx, id, s.now().UTC())
	if err != nil {
		return nil, Internal(err)
	}
	return slots, nil
}

func getWithRole(ctx context.Context, users UserStore, id string, role model.Role, msg string) (model.User, error) {
	u, err := users.GetByIDAndRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, NotFound(msg)
		}
		return model.User{}, Internal(err)
	}
	return u, nil
}

func deleteWithRole(ctx context.Context, users UserStore, id string, role model.Role, msg string) error {
	if err := users.DeleteByIDAndRole(ctx, id, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound(msg)
		}
		return Internal(err)
	}
	return nil
}

// applyAccount sets name, email and password when provided.  Empty strings
// keep the current value.
func applyAccount(u *model.User, name, email, password *string, cost int) error {
	if name != nil && strings.TrimSpace(*name) != "" {
		u.Name = strings.TrimSpace(*name)
	}
	if email != nil && repository.NormalizeEmail(*email) != "" {
		u.Email = repository.NormalizeEmail(*email)
	}
	if password != nil && *password != "" {
		hash, err := utils.HashPassword(*password, cost)
		if err != nil {
			return Internal(err)
		}
		u.Password = hash
	}
	return nil
}

func saveUser(ctx context.Context, users UserStore, u *model.User) error {
	if err := users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return Conflict(msgEmailInUse)
		}
		return Internal(err)
	}
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
