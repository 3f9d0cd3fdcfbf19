package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-api/internal/handler"
	"github.com/iliyamo/clinic-api/internal/middleware"
	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/service"
)

const doctorsCache = "doctors"

// RegisterDoctors registers the doctor directory.  Reads are open to any
// authenticated caller and cached; writes are ADMIN only and purge the
// cache once they succeed.
func RegisterDoctors(e *echo.Echo, h *handler.DoctorHandler, d Deps) {
	g := e.Group("/api/doctors", middleware.JWTAuth(d.Tokens))
	cache := middleware.NewRedisCache(d.Cache, d.Redis, doctorsCache)
	admin := []echo.MiddlewareFunc{
		middleware.RequireRole(model.RoleAdmin),
		middleware.InvalidateCache(d.Cache, d.Redis, doctorsCache, d.Log),
	}

	g.GET("", h.List, cache)
	g.GET("/:id", h.Get, cache)
	g.GET("/:id/availability", h.Availability)
	g.POST("", h.Create, admin...)
	g.PUT("/:id", h.Update, admin...)
	g.DELETE("/:id", h.Delete, admin...)
}

// RegisterPatients registers patient records.  Staff can read them; only
// admins change them.
func RegisterPatients(e *echo.Echo, h *handler.PatientHandler, d Deps) {
	g := e.Group("/api/patients", middleware.JWTAuth(d.Tokens))
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleDoctor)
	admin := middleware.RequireRole(model.RoleAdmin)

	g.GET("", h.List, staff)
	g.GET("/:id", h.Get, staff)
	g.POST("", h.Create, admin)
	g.PUT("/:id", h.Update, admin)
	g.DELETE("/:id", h.Delete, admin)
}

// RegisterAppointments registers booking and cancellation.  Listing is
// open to every role and scoped inside the service.
func RegisterAppointments(e *echo.Echo, h *handler.AppointmentHandler, d Deps) {
	g := e.Group("/api/appointments", middleware.JWTAuth(d.Tokens))
	g.GET("", h.List)
	g.POST("", h.Create, middleware.RequireRole(model.RoleAdmin, model.RolePatient))
	g.DELETE("/:id", h.Delete, middleware.RequireRole(model.RoleAdmin, model.RoleDoctor, model.RolePatient))
}

func RegisterPrescriptions(e *echo.Echo, h *handler.PrescriptionHandler, d Deps) {
	g := e.Group("/api/prescriptions", middleware.JWTAuth(d.Tokens))
	g.GET("", h.List)
	g.POST("", h.Create, middleware.RequireRole(model.RoleAdmin, model.RoleDoctor))
}

// RegisterLabResults registers exam uploads plus the protected download
// path that fileUrl values point at.
func RegisterLabResults(e *echo.Echo, h *handler.LabResultHandler, d Deps) {
	g := e.Group("/api/lab-results", middleware.JWTAuth(d.Tokens))
	g.GET("", h.List)
	g.POST("", h.Upload, middleware.RequireRole(model.RoleAdmin, model.RoleDoctor))

	files := e.Group(service.LabResultsURLPrefix, middleware.JWTAuth(d.Tokens))
	files.GET("/:patientId/:file", h.File)
}
