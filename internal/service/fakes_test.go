package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/queue"
	"github.com/iliyamo/clinic-api/internal/repository"
	"github.com/iliyamo/clinic-api/internal/utils"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu   sync.Mutex
	rows map[string]model.User
	err  error
}

func newMemUsers(users ...model.User) *memUsers {
	m := &memUsers{rows: map[string]model.User{}}
	for _, u := range users {
		m.rows[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, r := range m.rows {
		if r.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.rows[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.User{}, m.err
	}
	u, ok := m.rows[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.User{}, m.err
	}
	for _, u := range m.rows {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByIDAndRole(ctx context.Context, id string, role model.Role) (model.User, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if u.Role != role {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) ListByRole(_ context.Context, role model.Role) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.rows {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memUsers) Update(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rows {
		if id != u.ID && r.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	m.rows[u.ID] = *u
	return nil
}

func (m *memUsers) DeleteByIDAndRole(_ context.Context, id string, role model.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok || u.Role != role {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// memAppointments is an in-memory AppointmentStore.  Like the real table
// it has no uniqueness on (doctor, date).
type memAppointments struct {
	mu    sync.Mutex
	rows  []model.Appointment
	users *memUsers
}

func (m *memAppointments) Create(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.rows = append(m.rows, *a)
	return nil
}

func (m *memAppointments) withUsers(a model.Appointment) model.Appointment {
	if m.users != nil {
		a.Doctor = m.users.rows[a.DoctorID]
		a.Patient = m.users.rows[a.PatientID]
	}
	return a
}

func (m *memAppointments) GetByID(_ context.Context, id string) (model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.ID == id {
			return m.withUsers(a), nil
		}
	}
	return model.Appointment{}, repository.ErrNotFound
}

func (m *memAppointments) List(_ context.Context, f repository.AppointmentFilter) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.rows {
		if f.DoctorID != "" && a.DoctorID != f.DoctorID {
			continue
		}
		if f.PatientID != "" && a.PatientID != f.PatientID {
			continue
		}
		out = append(out, m.withUsers(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memAppointments) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.rows {
		if a.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memAppointments) BookedSlots(_ context.Context, doctorID string, from time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []time.Time
	for _, a := range m.rows {
		if a.DoctorID == doctorID && !a.Date.Before(from) {
			out = append(out, a.Date)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (m *memAppointments) ListBetween(_ context.Context, from, to time.Time) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.rows {
		if !a.Date.Before(from) && a.Date.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

// memPrescriptions is an in-memory PrescriptionStore.
type memPrescriptions struct {
	rows []model.Prescription
}

func (m *memPrescriptions) Create(_ context.Context, p *model.Prescription) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.rows = append(m.rows, *p)
	return nil
}

func (m *memPrescriptions) ListByPatient(_ context.Context, patientID string) ([]model.Prescription, error) {
	var out []model.Prescription
	for _, p := range m.rows {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, nil
}

// memLabResults is an in-memory LabResultStore.
type memLabResults struct {
	rows []model.LabResult
}

func (m *memLabResults) Create(_ context.Context, l *model.LabResult) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	m.rows = append(m.rows, *l)
	return nil
}

func (m *memLabResults) ListByPatient(_ context.Context, patientID string) ([]model.LabResult, error) {
	var out []model.LabResult
	for _, l := range m.rows {
		if l.PatientID == patientID {
			out = append(out, l)
		}
	}
	return out, nil
}

// stubFiles is a FileStore that records what it was given.
type stubFiles struct {
	saved map[string]string
	err   error
}

func (s *stubFiles) Save(_ context.Context, patientID, fileName string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, _ := io.ReadAll(r)
	if s.saved == nil {
		s.saved = map[string]string{}
	}
	url := LabResultsURLPrefix + "/" + patientID + "/1-" + fileName
	s.saved[url] = string(b)
	return url, nil
}

func (s *stubFiles) Path(patientID, storedName string) (string, error) {
	return "/tmp/" + patientID + "/" + storedName, nil
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// fakeTokens issues deterministic tokens.
type fakeTokens struct{ err error }

func (f fakeTokens) Issue(userID string, role model.Role) (utils.AccessToken, error) {
	if f.err != nil {
		return utils.AccessToken{}, f.err
	}
	return utils.AccessToken{Token: "tok-" + userID + "-" + string(role), Exp: time.Now().Add(time.Hour)}, nil
}

var errStore = errors.New("store unavailable")

func mustHash(plain string) string {
	h, err := utils.HashPassword(plain, 4)
	if err != nil {
		panic(err)
	}
	return h
}

func strPtr(s string) *string { return &s }
