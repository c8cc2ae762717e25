package family

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carebridge/carebridge/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /family for callers with the family role.
func (h *Handler) RegisterRoutes(e *echo.Echo, authn echo.MiddlewareFunc, mw ...echo.MiddlewareFunc) {
	g := e.Group("/family", append([]echo.MiddlewareFunc{authn, auth.RequireRole(auth.RoleFamily)}, mw...)...)
	g.POST("/link", h.CreateLink)
	g.GET("/my-patients", h.MyPatients)
	g.DELETE("/link/:patient_user_id", h.DeleteLink)
}

func (h *Handler) CreateLink(c echo.Context) error {
	var req LinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	l, err := h.svc.Link(ctx, auth.UserIDFromContext(ctx), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Patient user not found")
		case errors.Is(err, ErrLinkExists):
			return echo.NewHTTPError(http.StatusBadRequest, "Link already exists")
		case errors.Is(err, ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) MyPatients(c echo.Context) error {
	ctx := c.Request().Context()
	patients, err := h.svc.MyPatients(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"linked_patients": patients})
}

func (h *Handler) DeleteLink(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.svc.Unlink(ctx, auth.UserIDFromContext(ctx), c.Param("patient_user_id")); err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Link not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
