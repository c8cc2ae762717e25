package symptom

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carebridge/carebridge/internal/platform/auth"
	"github.com/carebridge/carebridge/pkg/pagination"
)

// CheckRequest is the body of a symptom check.
type CheckRequest struct {
	Symptoms    []string `json:"symptoms"`
	Description string   `json:"description,omitempty"`
}

// Handler provides HTTP handlers for the symptom checker.
type Handler struct {
	svc *Service
}

// NewHandler creates a new symptom checker handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public checker and the patient-only history.
func (h *Handler) RegisterRoutes(e *echo.Echo, authn echo.MiddlewareFunc) {
	e.POST("/symptomchecker", h.Check)
	e.POST("/symptomchecker/", h.Check)

	records := e.Group("/symptomchecker/records", authn, auth.RequireRole(auth.RolePatient))
	records.POST("", h.CreateRecord)
	records.GET("", h.ListRecords)
}

func (h *Handler) Check(c echo.Context) error {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	result, err := h.svc.Check(req.Symptoms)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) CreateRecord(c echo.Context) error {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	rec, err := h.svc.Record(ctx, auth.UserIDFromContext(ctx), req.Symptoms, req.Description)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) ListRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	records, total, err := h.svc.History(ctx, auth.UserIDFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if records == nil {
		records = []*Record{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, pg))
}

func toHTTPError(err error) error {
	if errors.Is(err, ErrNoSymptoms) {
		return echo.NewHTTPError(http.StatusBadRequest, "No symptoms provided")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
