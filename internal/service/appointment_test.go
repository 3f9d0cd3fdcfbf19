package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/queue"
)

var clinicNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type bookingFixture struct {
	users  *memUsers
	appts  *memAppointments
	events *recorder
	svc    *AppointmentService
}

func newBookingFixture() *bookingFixture {
	users := newMemUsers(
		model.User{ID: "admin", Name: "Admin", Role: model.RoleAdmin},
		model.User{ID: "doc1", Name: "Dr. Silva", Role: model.RoleDoctor},
		model.User{ID: "doc2", Name: "Dr. Costa", Role: model.RoleDoctor},
		model.User{ID: "patA", Name: "Ana", Role: model.RolePatient},
		model.User{ID: "patB", Name: "Bruno", Role: model.RolePatient},
	)
	appts := &memAppointments{users: users}
	ev := &recorder{}
	svc := NewAppointmentService(users, appts, ev, zerolog.Nop())
	svc.now = func() time.Time { return clinicNow }
	return &bookingFixture{users: users, appts: appts, events: ev, svc: svc}
}

func (f *bookingFixture) seed(id, doctorID, patientID string, date time.Time) {
	f.appts.rows = append(f.appts.rows, model.Appointment{ID: id, DoctorID: doctorID, PatientID: patientID, Date: date, Specialty: "Geral"})
}

var (
	patientA = Actor{UserID: "patA", Role: model.RolePatient}
	patientB = Actor{UserID: "patB", Role: model.RolePatient}
	doctor1  = Actor{UserID: "doc1", Role: model.RoleDoctor}
	admin    = Actor{UserID: "admin", Role: model.RoleAdmin}
)

func tomorrow() string { return clinicNow.Add(24 * time.Hour).Format(time.RFC3339) }

func TestCreateAppointment_PatientBooksAndSeesIt(t *testing.T) {
	f := newBookingFixture()

	a, err := f.svc.Create(context.Background(), patientA, BookingInput{DoctorID: "doc1", PatientID: "patA", Date: tomorrow(), Specialty: "Cardiologia"})
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	assert.Equal(t, "Dr. Silva", a.Doctor.Name)
	assert.Equal(t, "Ana", a.Patient.Name)

	list, err := f.svc.List(context.Background(), patientA, AppointmentQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, []string{queue.TypeAppointmentCreated}, f.events.types())
}

func TestCreateAppointment_Checks(t *testing.T) {
	cases := []struct {
		name  string
		actor Actor
		in    BookingInput
		kind  Kind
		msg   string
	}{
		{"missing specialty", patientA, BookingInput{DoctorID: "doc1", PatientID: "patA", Date: tomorrow()}, KindValidation, MsgBookingRequired},
		{"other patient", patientA, BookingInput{DoctorID: "doc1", PatientID: "patB", Date: tomorrow(), Specialty: "X"}, KindAuthorization, msgBookingOtherPatient},
		{"doctor cannot book", doctor1, BookingInput{DoctorID: "doc1", PatientID: "patA", Date: tomorrow(), Specialty: "X"}, KindAuthorization, msgAppointmentForbidden},
		{"bad date", patientA, BookingInput{DoctorID: "doc1", PatientID: "patA", Date: "25/12/2026", Specialty: "X"}, KindValidation, msgBookingBadDate},
		{"past date", patientA, BookingInput{DoctorID: "doc1", PatientID: "patA", Date: clinicNow.Add(-time.Hour).Format(time.RFC3339), Specialty: "X"}, KindValidation, msgBookingPastDate},
		{"unknown doctor", patientA, BookingInput{DoctorID: "patB", PatientID: "patA", Date: tomorrow(), Specialty: "X"}, KindNotFound, msgDoctorNotFound},
		{"unknown patient", admin, BookingInput{DoctorID: "doc1", PatientID: "nobody", Date: tomorrow(), Specialty: "X"}, KindNotFound, msgPatientNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture()
			_, err := f.svc.Create(context.Background(), tc.actor, tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err))
			assert.Equal(t, tc.msg, err.(*Error).Message)
			assert.Empty(t, f.appts.rows)
		})
	}
}

func TestCreateAppointment_OtherPatientMessage(t *testing.T) {
	f := newBookingFixture()
	_, err := f.svc.Create(context.Background(), patientA, BookingInput{DoctorID: "doc1", PatientID: "patB", Date: tomorrow(), Specialty: "Cardiologia"})
	require.Error(t, err)
	assert.Contains(t, err.(*Error).Message, "Acesso negado")
}

func TestCreateAppointment_AdminMayBookInThePast(t *testing.T) {
	f := newBookingFixture()
	_, err := f.svc.Create(context.Background(), admin, BookingInput{DoctorID: "doc1", PatientID: "patB", Date: clinicNow.Add(-48 * time.Hour).Format(time.RFC3339), Specialty: "X"})
	assert.NoError(t, err)
}

// Same-slot bookings are not rejected.  This pins the known behavior.
func TestCreateAppointment_ConcurrentSameSlotBothSucceed(t *testing.T) {
	f := newBookingFixture()
	in := BookingInput{DoctorID: "doc1", PatientID: "patA", Date: tomorrow(), Specialty: "Cardiologia"}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), patientA, in)
		}(i)
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Len(t, f.appts.rows, 2)
}

func TestCreateAppointment_PublishFailureDoesNotFail(t *testing.T) {
	f := newBookingFixture()
	f.events.err = errStore
	_, err := f.svc.Create(context.Background(), patientA, BookingInput{DoctorID: "doc1", PatientID: "patA", Date: tomorrow(), Specialty: "X"})
	assert.NoError(t, err)
}

func TestListAppointments_RoleScoping(t *testing.T) {
	f := newBookingFixture()
	day := clinicNow.Add(24 * time.Hour)
	f.seed("a1", "doc1", "patA", day)
	f.seed("a2", "doc1", "patB", day.Add(time.Hour))
	f.seed("a3", "doc2", "patB", day.Add(2*time.Hour))

	ids := func(list []model.Appointment) []string {
		out := make([]string, len(list))
		for i, a := range list {
			out[i] = a.ID
		}
		return out
	}

	got, err := f.svc.List(context.Background(), patientA, AppointmentQuery{PatientID: "patB", DoctorID: "doc2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, ids(got))
	for _, a := range got {
		assert.Equal(t, "patA", a.PatientID)
	}

	got, err = f.svc.List(context.Background(), doctor1, AppointmentQuery{DoctorID: "doc2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a1"}, ids(got))

	got, err = f.svc.List(context.Background(), doctor1, AppointmentQuery{PatientID: "patB"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2"}, ids(got))

	got, err = f.svc.List(context.Background(), admin, AppointmentQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a2", "a1"}, ids(got))

	got, err = f.svc.List(context.Background(), admin, AppointmentQuery{PatientID: "patB", DoctorID: "doc2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a3"}, ids(got))
}

func TestCancelAppointment(t *testing.T) {
	future := clinicNow.Add(24 * time.Hour)
	past := clinicNow.Add(-24 * time.Hour)

	cases := []struct {
		name  string
		actor Actor
		id    string
		kind  Kind
		msg   string
	}{
		{"missing", admin, "nope", KindNotFound, msgAppointmentNotFound},
		{"other doctor", Actor{UserID: "doc2", Role: model.RoleDoctor}, "future", KindAuthorization, msgCancelOtherDoctor},
		{"other patient", patientB, "future", KindAuthorization, msgAccessDenied},
		{"past as owner patient", patientA, "past", KindAuthorization, msgCancelPast},
		{"past as owner doctor", doctor1, "past", KindAuthorization, msgCancelPast},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBookingFixture()
			f.seed("future", "doc1", "patA", future)
			f.seed("past", "doc1", "patA", past)

			_, err := f.svc.Cancel(context.Background(), tc.actor, tc.id)
			require.Error(t, err)
			assert.Equal(t, tc.kind, KindOf(err))
			assert.Equal(t, tc.msg, err.(*Error).Message)
			assert.Len(t, f.appts.rows, 2)
		})
	}

	for _, actor := range []Actor{patientA, doctor1, admin} {
		t.Run("owner "+string(actor.Role), func(t *testing.T) {
			f := newBookingFixture()
			f.seed("future", "doc1", "patA", future)
			_, err := f.svc.Cancel(context.Background(), actor, "future")
			require.NoError(t, err)
			assert.Empty(t, f.appts.rows)
			assert.Equal(t, []string{queue.TypeAppointmentCancelled}, f.events.types())
		})
	}

	t.Run("admin cancels past", func(t *testing.T) {
		f := newBookingFixture()
		f.seed("past", "doc1", "patA", past)
		_, err := f.svc.Cancel(context.Background(), admin, "past")
		assert.NoError(t, err)
	})
}
