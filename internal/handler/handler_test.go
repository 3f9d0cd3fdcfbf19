package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/clinic-api/internal/middleware"
	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/service"
	"github.com/iliyamo/clinic-api/internal/utils"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler(zerolog.Nop())
	return e
}

func jsonCtx(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func as(c echo.Context, id string, role model.Role) echo.Context {
	middleware.SetIdentity(c, utils.Identity{UserID: id, Role: role})
	return c
}

// run calls h the way echo's router would, routing errors through the
// error handler.
func run(e *echo.Echo, c echo.Context, h echo.HandlerFunc) {
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ----- fakes -----

type fakeAuth struct {
	register func(service.RegisterInput) (model.User, error)
	login    func(email, password string) (service.LoginResult, error)
	me       func(id string) (model.User, error)
	updateMe func(id string, in service.ProfileUpdate) (model.User, error)
}

func (f *fakeAuth) Register(_ context.Context, in service.RegisterInput) (model.User, error) {
	return f.register(in)
}
func (f *fakeAuth) Login(_ context.Context, email, password string) (service.LoginResult, error) {
	return f.login(email, password)
}
func (f *fakeAuth) Me(_ context.Context, id string) (model.User, error) { return f.me(id) }
func (f *fakeAuth) UpdateMe(_ context.Context, id string, in service.ProfileUpdate) (model.User, error) {
	return f.updateMe(id, in)
}

type fakeDoctors struct {
	DoctorService
	availability func(id string) ([]time.Time, error)
	del          func(id string) error
}

func (f *fakeDoctors) Availability(_ context.Context, id string) ([]time.Time, error) {
	return f.availability(id)
}
func (f *fakeDoctors) Delete(_ context.Context, id string) error { return f.del(id) }

type fakeAppointments struct {
	create func(service.Actor, service.BookingInput) (model.Appointment, error)
	list   func(service.Actor, service.AppointmentQuery) ([]model.Appointment, error)
	cancel func(service.Actor, string) (model.Appointment, error)
}

func (f *fakeAppointments) Create(_ context.Context, a service.Actor, in service.BookingInput) (model.Appointment, error) {
	return f.create(a, in)
}
func (f *fakeAppointments) List(_ context.Context, a service.Actor, q service.AppointmentQuery) ([]model.Appointment, error) {
	return f.list(a, q)
}
func (f *fakeAppointments) Cancel(_ context.Context, a service.Actor, id string) (model.Appointment, error) {
	return f.cancel(a, id)
}

type fakePrescriptions struct {
	PrescriptionService
	list func(service.Actor, string) ([]model.Prescription, error)
}

func (f *fakePrescriptions) ListByPatient(_ context.Context, a service.Actor, patientID string) ([]model.Prescription, error) {
	return f.list(a, patientID)
}

type fakeLabResults struct {
	upload   func(service.Actor, service.LabUpload) (model.LabResult, error)
	list     func(service.Actor, string) ([]model.LabResult, error)
	filePath func(service.Actor, string, string) (string, error)
}

func (f *fakeLabResults) Upload(_ context.Context, a service.Actor, in service.LabUpload) (model.LabResult, error) {
	return f.upload(a, in)
}
func (f *fakeLabResults) ListByPatient(_ context.Context, a service.Actor, patientID string) ([]model.LabResult, error) {
	return f.list(a, patientID)
}
func (f *fakeLabResults) FilePath(a service.Actor, patientID, name string) (string, error) {
	return f.filePath(a, patientID, name)
}

// ----- auth -----

func TestRegister(t *testing.T) {
	e := newEcho()
	var got service.RegisterInput
	h := NewAuthHandler(&fakeAuth{register: func(in service.RegisterInput) (model.User, error) {
		got = in
		return model.User{ID: "p1", Name: in.Name, Email: in.Email, Role: model.RolePatient, Password: "hash"}, nil
	}})

	c, rec := jsonCtx(e, http.MethodPost, "/api/auth/register", `{"name":"Ana","email":"a@x.com","password":"p1","role":"ADMIN"}`)
	run(e, c, h.Register)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "a@x.com", got.Email)
	body := decode(t, rec)
	assert.Equal(t, "Utilizador criado com sucesso!", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "PATIENT", user["role"])
	assert.NotContains(t, rec.Body.String(), "hash")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_MissingFields(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&fakeAuth{})
	c, rec := jsonCtx(e, http.MethodPost, "/api/auth/register", `{"email":"a@x.com"}`)
	run(e, c, h.Register)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgRegisterRequired, decode(t, rec)["message"])
}

func TestRegister_Conflict(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&fakeAuth{register: func(service.RegisterInput) (model.User, error) {
		return model.User{}, service.Conflict("Este email já está em uso.")
	}})
	c, rec := jsonCtx(e, http.MethodPost, "/api/auth/register", `{"name":"Ana","email":"a@x.com","password":"p1"}`)
	run(e, c, h.Register)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Este email já está em uso.", decode(t, rec)["message"])
}

func TestLogin(t *testing.T) {
	e := newEcho()
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewAuthHandler(&fakeAuth{login: func(email, password string) (service.LoginResult, error) {
		if password != "p1" {
			return service.LoginResult{}, service.Authentication("Credenciais inválidas.")
		}
		return service.LoginResult{
			Token: utils.AccessToken{Token: "tok", Exp: exp},
			User:  model.User{ID: "p1", Email: email, Role: model.RolePatient},
		}, nil
	}})

	c, rec := jsonCtx(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"p1"}`)
	run(e, c, h.Login)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, "Login bem-sucedido!", body["message"])

	c, rec = jsonCtx(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"nope"}`)
	run(e, c, h.Login)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Credenciais inválidas.", decode(t, rec)["message"])
}

func TestMe_RoleVisibleFields(t *testing.T) {
	e := newEcho()
	phone := "912"
	h := NewAuthHandler(&fakeAuth{me: func(id string) (model.User, error) {
		return model.User{ID: id, Name: "Dr", Role: model.RoleDoctor, Phone: &phone, Specialty: []string{"Cardiologia"}}, nil
	}})
	c, rec := jsonCtx(e, http.MethodGet, "/api/auth/me", "")
	run(e, as(c, "d1", model.RoleDoctor), h.Me)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{"Cardiologia"}, body["specialty"])
	assert.NotContains(t, body, "phone")
}

func TestMe_WithoutIdentity(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&fakeAuth{})
	c, rec := jsonCtx(e, http.MethodGet, "/api/auth/me", "")
	run(e, c, h.Me)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateMe(t *testing.T) {
	e := newEcho()
	var got service.ProfileUpdate
	h := NewAuthHandler(&fakeAuth{updateMe: func(id string, in service.ProfileUpdate) (model.User, error) {
		got = in
		return model.User{ID: id, Role: model.RolePatient, BirthDate: in.BirthDate}, nil
	}})

	c, rec := jsonCtx(e, http.MethodPut, "/api/auth/me", `{"birthDate":"1990-05-17","currentPassword":"p1","newPassword":"p2"}`)
	run(e, as(c, "p1", model.RolePatient), h.UpdateMe)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.BirthDate)
	assert.Equal(t, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), *got.BirthDate)
	assert.Equal(t, "p1", got.CurrentPassword)
	assert.Equal(t, "p2", got.NewPassword)

	c, rec = jsonCtx(e, http.MethodPut, "/api/auth/me", `{"birthDate":"17/05/1990"}`)
	run(e, as(c, "p1", model.RolePatient), h.UpdateMe)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgBadBirthDate, decode(t, rec)["message"])
}

// ----- doctors -----

func TestDoctorAvailability(t *testing.T) {
	e := newEcho()
	slot := time.Date(2030, 3, 4, 9, 30, 0, 0, time.UTC)
	h := NewDoctorHandler(&fakeDoctors{availability: func(id string) ([]time.Time, error) {
		if id != "d1" {
			return nil, service.NotFound("Médico não encontrado.")
		}
		return []time.Time{slot}, nil
	}})

	c, rec := jsonCtx(e, http.MethodGet, "/api/doctors/d1/availability", "")
	c.SetParamNames("id")
	c.SetParamValues("d1")
	run(e, c, h.Availability)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["2030-03-04T09:30:00Z"]`, rec.Body.String())

	c, rec = jsonCtx(e, http.MethodGet, "/api/doctors/x/availability", "")
	c.SetParamNames("id")
	c.SetParamValues("x")
	run(e, c, h.Availability)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDoctorCreate_RequiresSpecialty(t *testing.T) {
	e := newEcho()
	h := NewDoctorHandler(&fakeDoctors{})
	c, rec := jsonCtx(e, http.MethodPost, "/api/doctors", `{"name":"Dr","email":"d@x.com","password":"p","specialty":[]}`)
	run(e, c, h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgDoctorRequired, decode(t, rec)["message"])
}

func TestDoctorDelete(t *testing.T) {
	e := newEcho()
	h := NewDoctorHandler(&fakeDoctors{del: func(string) error { return nil }})
	c, rec := jsonCtx(e, http.MethodDelete, "/api/doctors/d1", "")
	c.SetParamNames("id")
	c.SetParamValues("d1")
	run(e, c, h.Delete)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Médico removido com sucesso.", decode(t, rec)["message"])
}

// ----- appointments -----

func TestAppointmentCreate(t *testing.T) {
	e := newEcho()
	var gotActor service.Actor
	h := NewAppointmentHandler(&fakeAppointments{create: func(a service.Actor, in service.BookingInput) (model.Appointment, error) {
		gotActor = a
		if in.PatientID != a.UserID {
			return model.Appointment{}, service.Forbidden("Acesso negado. Só pode marcar consultas para si.")
		}
		d, _ := time.Parse(time.RFC3339, in.Date)
		return model.Appointment{
			ID: "a1", Date: d, Specialty: in.Specialty, DoctorID: in.DoctorID, PatientID: in.PatientID,
			Doctor: model.User{Name: "Dr"}, Patient: model.User{Name: "Ana"},
		}, nil
	}})

	body := `{"doctorId":"d1","patientId":"p1","date":"2030-01-01T10:00:00Z","specialty":"Cardiologia"}`
	c, rec := jsonCtx(e, http.MethodPost, "/api/appointments", body)
	run(e, as(c, "p1", model.RolePatient), h.Create)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "p1", gotActor.UserID)
	resp := decode(t, rec)
	assert.Equal(t, "a1", resp["id"])
	assert.Equal(t, "Dr", resp["doctorName"])
	assert.Equal(t, "Ana", resp["patientName"])

	body = `{"doctorId":"d1","patientId":"p2","date":"2030-01-01T10:00:00Z","specialty":"Cardiologia"}`
	c, rec = jsonCtx(e, http.MethodPost, "/api/appointments", body)
	run(e, as(c, "p1", model.RolePatient), h.Create)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, strings.HasPrefix(decode(t, rec)["message"].(string), "Acesso negado"))

	c, rec = jsonCtx(e, http.MethodPost, "/api/appointments", `{"doctorId":"d1"}`)
	run(e, as(c, "p1", model.RolePatient), h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgBookingRequired, decode(t, rec)["message"])
}

func TestAppointmentList_PassesQuery(t *testing.T) {
	e := newEcho()
	var got service.AppointmentQuery
	h := NewAppointmentHandler(&fakeAppointments{list: func(_ service.Actor, q service.AppointmentQuery) ([]model.Appointment, error) {
		got = q
		return nil, nil
	}})
	c, rec := jsonCtx(e, http.MethodGet, "/api/appointments?doctorId=d1&patientId=p1", "")
	run(e, as(c, "admin", model.RoleAdmin), h.List)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, service.AppointmentQuery{DoctorID: "d1", PatientID: "p1"}, got)
}

func TestAppointmentDelete(t *testing.T) {
	e := newEcho()
	h := NewAppointmentHandler(&fakeAppointments{cancel: func(_ service.Actor, id string) (model.Appointment, error) {
		if id == "past" {
			return model.Appointment{}, service.Forbidden("Não é possível cancelar consultas passadas.")
		}
		return model.Appointment{ID: id}, nil
	}})

	c, rec := jsonCtx(e, http.MethodDelete, "/api/appointments/a1", "")
	c.SetParamNames("id")
	c.SetParamValues("a1")
	run(e, as(c, "p1", model.RolePatient), h.Delete)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Consulta cancelada com sucesso.", decode(t, rec)["message"])

	c, rec = jsonCtx(e, http.MethodDelete, "/api/appointments/past", "")
	c.SetParamNames("id")
	c.SetParamValues("past")
	run(e, as(c, "p1", model.RolePatient), h.Delete)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ----- prescriptions -----

func TestPrescriptionList(t *testing.T) {
	e := newEcho()
	h := NewPrescriptionHandler(&fakePrescriptions{list: func(_ service.Actor, patientID string) ([]model.Prescription, error) {
		return []model.Prescription{{ID: "rx1", PatientID: patientID, Doctor: model.User{Name: "Dr"}}}, nil
	}})
	c, rec := jsonCtx(e, http.MethodGet, "/api/prescriptions?patientId=p1", "")
	run(e, as(c, "p1", model.RolePatient), h.List)

	require.Equal(t, http.StatusOK, rec.Code)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "p1", out[0]["patientId"])
	assert.Equal(t, map[string]any{"name": "Dr"}, out[0]["doctor"])
}

// ----- lab results -----

func multipartBody(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestLabResultUpload(t *testing.T) {
	e := newEcho()
	var got service.LabUpload
	var content string
	h := NewLabResultHandler(&fakeLabResults{upload: func(_ service.Actor, in service.LabUpload) (model.LabResult, error) {
		got = in
		b, _ := io.ReadAll(in.Body)
		content = string(b)
		return model.LabResult{ID: "l1", PatientID: in.PatientID, Type: in.Type, FileName: in.FileName,
			FileURL: "/uploads/lab-results/p1/1-hemo.pdf"}, nil
	}})

	body, ct := multipartBody(t, map[string]string{"patientId": "p1", "type": "Hemograma"}, "hemo.pdf", "%PDF")
	req := httptest.NewRequest(http.MethodPost, "/api/lab-results", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	run(e, as(c, "d1", model.RoleDoctor), h.Upload)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "p1", got.PatientID)
	assert.Equal(t, "Hemograma", got.Type)
	assert.Equal(t, "hemo.pdf", got.FileName)
	assert.Equal(t, "%PDF", content)
	assert.Equal(t, "/uploads/lab-results/p1/1-hemo.pdf", decode(t, rec)["fileUrl"])
}

func TestLabResultUpload_MissingFile(t *testing.T) {
	e := newEcho()
	h := NewLabResultHandler(&fakeLabResults{})
	body, ct := multipartBody(t, map[string]string{"patientId": "p1", "type": "Hemograma"}, "", "")
	req := httptest.NewRequest(http.MethodPost, "/api/lab-results", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	run(e, as(c, "d1", model.RoleDoctor), h.Upload)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgLabUploadRequired, decode(t, rec)["message"])
}

func TestLabResultFile_Forbidden(t *testing.T) {
	e := newEcho()
	h := NewLabResultHandler(&fakeLabResults{filePath: func(a service.Actor, patientID, _ string) (string, error) {
		if a.UserID != patientID {
			return "", service.Forbidden("Acesso negado.")
		}
		return "", service.NotFound("Ficheiro não encontrado.")
	}})
	c, rec := jsonCtx(e, http.MethodGet, "/uploads/lab-results/p2/1-x.pdf", "")
	c.SetParamNames("patientId", "file")
	c.SetParamValues("p2", "1-x.pdf")
	run(e, as(c, "p1", model.RolePatient), h.File)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ----- health and errors -----

func TestHealth(t *testing.T) {
	e := newEcho()
	down := NewHealthHandler(PingFunc(func(context.Context) error { return errors.New("down") }))
	up := NewHealthHandler(PingFunc(func(context.Context) error { return nil }))

	c, rec := jsonCtx(e, http.MethodGet, "/healthz", "")
	run(e, c, down.Healthz)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	c, rec = jsonCtx(e, http.MethodGet, "/healthz", "")
	run(e, c, up.Healthz)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = jsonCtx(e, http.MethodGet, "/", "")
	run(e, c, up.Root)
	assert.Equal(t, "API Clinic-App is running correctly!", rec.Body.String())

	c, rec = jsonCtx(e, http.MethodGet, "/api/test", "")
	run(e, c, up.Hello)
	assert.Equal(t, "Olá do backend da Clínica!", decode(t, rec)["message"])
}

func TestHTTPErrorHandler(t *testing.T) {
	e := newEcho()
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", service.Validation("bad"), http.StatusBadRequest, "bad"},
		{"internal hides cause", service.Internal(errors.New("dsn leaked")), http.StatusInternalServerError, service.InternalMessage},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, service.InternalMessage},
		{"echo not found", echo.ErrNotFound, http.StatusNotFound, "Recurso não encontrado."},
		{"wrapped conflict", errors.Join(errors.New("ctx"), service.Conflict("dup")), http.StatusConflict, "dup"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := jsonCtx(e, http.MethodGet, "/x", "")
			e.HTTPErrorHandler(tc.err, c)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.msg, decode(t, rec)["message"])
			assert.NotContains(t, rec.Body.String(), "dsn leaked")
		})
	}
}

func TestParseBirthDate(t *testing.T) {
	got, err := parseBirthDate(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	blank := "  "
	got, err = parseBirthDate(&blank)
	require.NoError(t, err)
	assert.Nil(t, got)

	rfc := "1990-05-17T10:00:00+01:00"
	got, err = parseBirthDate(&rfc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 5, 17, 9, 0, 0, 0, time.UTC), *got)
}
