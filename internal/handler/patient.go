package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/service"
)

// PatientService is implemented by *service.PatientService.
type PatientService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
	Create(ctx context.Context, in service.PatientInput) (model.User, error)
	Update(ctx context.Context, id string, in service.PatientUpdate) (model.User, error)
	Delete(ctx context.Context, id string) error
}

// PatientHandler serves patient records to staff.
type PatientHandler struct {
	Patients PatientService
}

func NewPatientHandler(s PatientService) *PatientHandler { return &PatientHandler{Patients: s} }

func (h *PatientHandler) List(c echo.Context) error {
	list, err := h.Patients.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapSlice(list, toPatient))
}

func (h *PatientHandler) Get(c echo.Context) error {
	u, err := h.Patients.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPatient(u))
}

func (h *PatientHandler) Create(c echo.Context) error {
	var req createPatientReq
	if err := bind(c, &req, service.MsgPatientRequired); err != nil {
		return err
	}
	birth, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return err
	}
	u, err := h.Patients.Create(c.Request().Context(), service.PatientInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		Phone:           req.Phone,
		BirthDate:       birth,
		Gender:          req.Gender,
		Insurance:       req.Insurance,
		InsuranceNumber: req.InsuranceNumber,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPatient(u))
}

func (h *PatientHandler) Update(c echo.Context) error {
	var req updatePatientReq
	if err := bind(c, &req, "Pedido inválido."); err != nil {
		return err
	}
	birth, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return err
	}
	u, err := h.Patients.Update(c.Request().Context(), c.Param("id"), service.PatientUpdate{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		Phone:           req.Phone,
		BirthDate:       birth,
		Gender:          req.Gender,
		Insurance:       req.Insurance,
		InsuranceNumber: req.InsuranceNumber,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPatient(u))
}

func (h *PatientHandler) Delete(c echo.Context) error {
	if err := h.Patients.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResp{Message: "Paciente removido com sucesso."})
}
