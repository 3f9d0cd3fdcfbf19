package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/service"
)

// LabResultService is implemented by *service.LabResultService.
type LabResultService interface {
	Upload(ctx context.Context, actor service.Actor, in service.LabUpload) (model.LabResult, error)
	ListByPatient(ctx context.Context, actor service.Actor, patientID string) ([]model.LabResult, error)
	FilePath(actor service.Actor, patientID, storedName string) (string, error)
}

// LabResultHandler serves exam uploads and the stored files.
type LabResultHandler struct {
	Results LabResultService
}

func NewLabResultHandler(s LabResultService) *LabResultHandler {
	return &LabResultHandler{Results: s}
}

// Upload accepts multipart/form-data with fields patientId, type and file.
func (h *LabResultHandler) Upload(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return err
		}
		return service.Validation(service.MsgLabUploadRequired)
	}
	f, err := fh.Open()
	if err != nil {
		return service.Internal(err)
	}
	defer f.Close()

	lr, err := h.Results.Upload(c.Request().Context(), id, service.LabUpload{
		PatientID: c.FormValue("patientId"),
		Type:      c.FormValue("type"),
		FileName:  fh.Filename,
		Body:      f,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toLabResult(lr))
}

func (h *LabResultHandler) List(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	list, err := h.Results.ListByPatient(c.Request().Context(), id, c.QueryParam("patientId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapSlice(list, toLabResult))
}

// File streams a stored upload.  Only the owning patient and staff can
// read it.
func (h *LabResultHandler) File(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	p, err := h.Results.FilePath(id, c.Param("patientId"), c.Param("file"))
	if err != nil {
		return err
	}
	return c.File(p)
}
