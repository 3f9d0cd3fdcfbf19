package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/service"
)

// PrescriptionService is implemented by *service.PrescriptionService.
type PrescriptionService interface {
	Create(ctx context.Context, actor service.Actor, in service.PrescriptionInput) (model.Prescription, error)
	ListByPatient(ctx context.Context, actor service.Actor, patientID string) ([]model.Prescription, error)
}

type PrescriptionHandler struct {
	Prescriptions PrescriptionService
}

func NewPrescriptionHandler(s PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{Prescriptions: s}
}

func (h *PrescriptionHandler) Create(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var req createPrescriptionReq
	if err := bind(c, &req, service.MsgPrescriptionRequired); err != nil {
		return err
	}
	p, err := h.Prescriptions.Create(c.Request().Context(), id, service.PrescriptionInput{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Farmaco:       req.Farmaco,
		Dose:          req.Dose,
		Frequencia:    req.Frequencia,
		Observacoes:   req.Observacoes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPrescription(p))
}

// List expects ?patientId=.
func (h *PrescriptionHandler) List(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	list, err := h.Prescriptions.ListByPatient(c.Request().Context(), id, c.QueryParam("patientId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapSlice(list, toPrescription))
}
