package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/service"
)

// AppointmentService is implemented by *service.AppointmentService.
type AppointmentService interface {
	Create(ctx context.Context, actor service.Actor, in service.BookingInput) (model.Appointment, error)
	List(ctx context.Context, actor service.Actor, q service.AppointmentQuery) ([]model.Appointment, error)
	Cancel(ctx context.Context, actor service.Actor, id string) (model.Appointment, error)
}

// AppointmentHandler serves booking, listing and cancellation.
type AppointmentHandler struct {
	Appointments AppointmentService
}

func NewAppointmentHandler(s AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{Appointments: s}
}

func (h *AppointmentHandler) Create(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var req createAppointmentReq
	if err := bind(c, &req, service.MsgBookingRequired); err != nil {
		return err
	}
	a, err := h.Appointments.Create(c.Request().Context(), id, service.BookingInput{
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		Date:      req.Date,
		Specialty: req.Specialty,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAppointment(a))
}

// List returns appointments visible to the caller.  Admins may narrow the
// result with ?doctorId= and ?patientId=; other roles are always scoped to
// themselves.
func (h *AppointmentHandler) List(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var q appointmentQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return service.Validation("Pedido inválido.")
	}
	list, err := h.Appointments.List(c.Request().Context(), id, service.AppointmentQuery{
		DoctorID:  q.DoctorID,
		PatientID: q.PatientID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapSlice(list, toAppointment))
}

func (h *AppointmentHandler) Delete(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	if _, err := h.Appointments.Cancel(c.Request().Context(), id, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResp{Message: "Consulta cancelada com sucesso."})
}
