package handler

// Request and response shapes for every endpoint.  Passwords never appear
// in a response type.

import (
	"strings"
	"time"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/service"
)

const msgBadBirthDate = "Data de nascimento inválida."

// ----- requests -----

type registerReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateMeReq struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	ImageURL        *string `json:"imageUrl"`
	Insurance       *string `json:"insurance"`
	InsuranceNumber *string `json:"insuranceNumber"`
	BirthDate       *string `json:"birthDate"`
	Phone           *string `json:"phone"`
	Gender          *string `json:"gender"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
}

type createDoctorReq struct {
	Name      string   `json:"name" validate:"required"`
	Email     string   `json:"email" validate:"required"`
	Password  string   `json:"password" validate:"required"`
	Specialty []string `json:"specialty" validate:"required,min=1,dive,required"`
	ImageURL  *string  `json:"imageUrl"`
}

type updateDoctorReq struct {
	Name      *string  `json:"name"`
	Email     *string  `json:"email"`
	Password  *string  `json:"password"`
	Specialty []string `json:"specialty"`
	ImageURL  *string  `json:"imageUrl"`
}

type patientFields struct {
	Phone           *string `json:"phone"`
	BirthDate       *string `json:"birthDate"`
	Gender          *string `json:"gender"`
	Insurance       *string `json:"insurance"`
	InsuranceNumber *string `json:"insuranceNumber"`
	ImageURL        *string `json:"imageUrl"`
}

type createPatientReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	patientFields
}

type updatePatientReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	patientFields
}

type createAppointmentReq struct {
	DoctorID  string `json:"doctorId" validate:"required"`
	PatientID string `json:"patientId" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Specialty string `json:"specialty" validate:"required"`
}

type appointmentQuery struct {
	DoctorID  string `query:"doctorId"`
	PatientID string `query:"patientId"`
}

type createPrescriptionReq struct {
	PatientID     string  `json:"patientId" validate:"required"`
	AppointmentID string  `json:"appointmentId" validate:"required"`
	Farmaco       string  `json:"farmaco" validate:"required"`
	Dose          string  `json:"dose" validate:"required"`
	Frequencia    string  `json:"frequencia" validate:"required"`
	Observacoes   *string `json:"observacoes"`
}

// ----- responses -----

type messageResp struct {
	Message string `json:"message"`
}

type userSummary struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
}

type registerResp struct {
	Message string      `json:"message"`
	User    userSummary `json:"user"`
}

type loginResp struct {
	Message   string      `json:"message"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      userSummary `json:"user"`
}

// profileResp is the caller's own profile.  Fields that do not apply to
// the role are omitted.
type profileResp struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            model.Role `json:"role"`
	ImageURL        *string    `json:"imageUrl"`
	Specialty       []string   `json:"specialty,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	BirthDate       *time.Time `json:"birthDate,omitempty"`
	Gender          *string    `json:"gender,omitempty"`
	Insurance       *string    `json:"insurance,omitempty"`
	InsuranceNumber *string    `json:"insuranceNumber,omitempty"`
}

type doctorResp struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Specialty []string `json:"specialty"`
	ImageURL  *string  `json:"imageUrl"`
}

type patientResp struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           *string    `json:"phone"`
	BirthDate       *time.Time `json:"birthDate"`
	Gender          *string    `json:"gender"`
	Insurance       *string    `json:"insurance"`
	InsuranceNumber *string    `json:"insuranceNumber"`
	ImageURL        *string    `json:"imageUrl"`
}

type appointmentResp struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Specialty   string    `json:"specialty"`
	DoctorID    string    `json:"doctorId"`
	PatientID   string    `json:"patientId"`
	DoctorName  string    `json:"doctorName"`
	PatientName string    `json:"patientName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type doctorName struct {
	Name string `json:"name"`
}

type prescriptionResp struct {
	ID            string     `json:"id"`
	Farmaco       string     `json:"farmaco"`
	Dose          string     `json:"dose"`
	Frequencia    string     `json:"frequencia"`
	Observacoes   string     `json:"observacoes"`
	PatientID     string     `json:"patientId"`
	DoctorID      string     `json:"doctorId"`
	AppointmentID string     `json:"appointmentId"`
	CreatedAt     time.Time  `json:"createdAt"`
	Doctor        doctorName `json:"doctor"`
}

type labResultResp struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patientId"`
	Type       string    `json:"type"`
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// ----- mapping -----

func toSummary(u model.User) userSummary {
	return userSummary{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func toProfile(u model.User) profileResp {
	p := profileResp{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, ImageURL: u.ImageURL}
	switch u.Role {
	case model.RoleDoctor:
		p.Specialty = specialtyList(u)
	case model.RolePatient:
		p.Phone = u.Phone
		p.BirthDate = u.BirthDate
		p.Gender = u.Gender
		p.Insurance = u.Insurance
		p.InsuranceNumber = u.InsuranceNumber
	}
	return p
}

func specialtyList(u model.User) []string {
	if u.Specialty == nil {
		return []string{}
	}
	return []string(u.Specialty)
}

func toDoctor(u model.User) doctorResp {
	return doctorResp{ID: u.ID, Name: u.Name, Email: u.Email, Specialty: specialtyList(u), ImageURL: u.ImageURL}
}

func toPatient(u model.User) patientResp {
	return patientResp{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		BirthDate:       u.BirthDate,
		Gender:          u.Gender,
		Insurance:       u.Insurance,
		InsuranceNumber: u.InsuranceNumber,
		ImageURL:        u.ImageURL,
	}
}

func toAppointment(a model.Appointment) appointmentResp {
	return appointmentResp{
		ID:          a.ID,
		Date:        a.Date.UTC(),
		Specialty:   a.Specialty,
		DoctorID:    a.DoctorID,
		PatientID:   a.PatientID,
		DoctorName:  a.Doctor.Name,
		PatientName: a.Patient.Name,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toPrescription(p model.Prescription) prescriptionResp {
	return prescriptionResp{
		ID:            p.ID,
		Farmaco:       p.Farmaco,
		Dose:          p.Dose,
		Frequencia:    p.Frequencia,
		Observacoes:   p.Observacoes,
		PatientID:     p.PatientID,
		DoctorID:      p.DoctorID,
		AppointmentID: p.AppointmentID,
		CreatedAt:     p.CreatedAt,
		Doctor:        doctorName{Name: p.Doctor.Name},
	}
}

func toLabResult(l model.LabResult) labResultResp {
	return labResultResp{
		ID:         l.ID,
		PatientID:  l.PatientID,
		Type:       l.Type,
		FileName:   l.FileName,
		FileURL:    l.FileURL,
		UploadedAt: l.UploadedAt,
	}
}

func mapSlice[T, R any](in []T, f func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

// parseBirthDate accepts YYYY-MM-DD or RFC 3339.  Nil or blank stays nil.
func parseBirthDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, service.Validation(msgBadBirthDate)
}
