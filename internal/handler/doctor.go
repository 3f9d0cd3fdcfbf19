package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/service"
)

// DoctorService is implemented by *service.DoctorService.
type DoctorService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
	Create(ctx context.Context, in service.DoctorInput) (model.User, error)
	Update(ctx context.Context, id string, in service.DoctorUpdate) (model.User, error)
	Delete(ctx context.Context, id string) error
	Availability(ctx context.Context, id string) ([]time.Time, error)
}

// DoctorHandler serves the doctor directory.
type DoctorHandler struct {
	Doctors DoctorService
}

func NewDoctorHandler(s DoctorService) *DoctorHandler { return &DoctorHandler{Doctors: s} }

func (h *DoctorHandler) List(c echo.Context) error {
	list, err := h.Doctors.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapSlice(list, toDoctor))
}

func (h *DoctorHandler) Get(c echo.Context) error {
	u, err := h.Doctors.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDoctor(u))
}

func (h *DoctorHandler) Create(c echo.Context) error {
	var req createDoctorReq
	if err := bind(c, &req, service.MsgDoctorRequired); err != nil {
		return err
	}
	u, err := h.Doctors.Create(c.Request().Context(), service.DoctorInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Specialty: req.Specialty,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toDoctor(u))
}

func (h *DoctorHandler) Update(c echo.Context) error {
	var req updateDoctorReq
	if err := bind(c, &req, "Pedido inválido."); err != nil {
		return err
	}
	u, err := h.Doctors.Update(c.Request().Context(), c.Param("id"), service.DoctorUpdate{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Specialty: req.Specialty,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDoctor(u))
}

func (h *DoctorHandler) Delete(c echo.Context) error {
	if err := h.Doctors.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResp{Message: "Médico removido com sucesso."})
}

// Availability lists the ISO-8601 start times already booked for the
// doctor.  The web client uses it to warn about overlaps.
func (h *DoctorHandler) Availability(c echo.Context) error {
	slots, err := h.Doctors.Availability(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	out := make([]string, 0, len(slots))
	for _, t := range slots {
		out = append(out, t.UTC().Format(time.RFC3339))
	}
	return c.JSON(http.StatusOK, out)
}
