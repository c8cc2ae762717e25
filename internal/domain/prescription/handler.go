package prescription

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carebridge/carebridge/internal/platform/auth"
	"github.com/carebridge/carebridge/internal/platform/middleware"
	"github.com/carebridge/carebridge/pkg/pagination"
)

// maxPageSize caps prescriptions returned per request.
const maxPageSize = 200

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /prescriptions. Writes need the doctor role; reads
// are checked per patient in the service.
func (h *Handler) RegisterRoutes(e *echo.Echo, authn echo.MiddlewareFunc, mw ...echo.MiddlewareFunc) {
	read := e.Group("/prescriptions/patient", append([]echo.MiddlewareFunc{authn}, mw...)...)
	read.GET("/:patient_user_id", h.ListForPatient)

	write := e.Group("/prescriptions", append([]echo.MiddlewareFunc{authn, auth.RequireRole(auth.RoleDoctor)}, mw...)...)
	write.POST("", h.Create)
	write.POST("/", h.Create)
	write.PUT("/:id", h.Update)
	write.DELETE("/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	c.Set(middleware.PatientIDKey, req.PatientUserID)
	ctx := c.Request().Context()
	p, err := h.svc.Create(ctx, auth.UserIDFromContext(ctx), req)
	if err != nil {
		return errorToHTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListForPatient(c echo.Context) error {
	ctx := c.Request().Context()
	caller, _ := auth.PrincipalFromContext(ctx)
	pg := pagination.FromContextWithMax(c, maxPageSize)

	items, total, err := h.svc.ListForPatient(ctx, caller, c.Param("patient_user_id"), pg.Limit, pg.Offset)
	if err != nil {
		return errorToHTTP(err)
	}
	if items == nil {
		items = []*Prescription{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Update(c echo.Context) error {
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	p, err := h.svc.Update(ctx, auth.UserIDFromContext(ctx), c.Param("id"), req)
	if err != nil {
		return errorToHTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.svc.Delete(ctx, auth.UserIDFromContext(ctx), c.Param("id")); err != nil {
		return errorToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func errorToHTTP(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Prescription not found")
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	case errors.Is(err, ErrCannotView):
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to view this patient's prescriptions")
	case errors.Is(err, ErrCannotModify):
		return echo.NewHTTPError(http.StatusForbidden, "Cannot modify another doctor's prescription")
	case errors.Is(err, ErrCannotDelete):
		return echo.NewHTTPError(http.StatusForbidden, "Cannot delete another doctor's prescription")
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
