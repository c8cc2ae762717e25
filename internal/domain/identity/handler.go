package identity

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carebridge/carebridge/internal/platform/auth"
)

// Handler provides HTTP handlers for registration and sessions.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /auth. limits apply to the unauthenticated
// credential endpoints.
func (h *Handler) RegisterRoutes(e *echo.Echo, authn echo.MiddlewareFunc, limits ...echo.MiddlewareFunc) {
	public := e.Group("/auth", limits...)
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)

	session := e.Group("/auth", authn)
	session.GET("/me", h.Me)
	session.POST("/logout", h.Logout)
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if _, err := h.svc.Register(c.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			return echo.NewHTTPError(http.StatusBadRequest, "User exists")
		case errors.Is(err, ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "Registered"})
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	resp, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		case errors.Is(err, ErrInvalidPassword):
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid password")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	u, err := h.svc.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	if err := h.svc.Logout(ctx, p); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "could not revoke token")
	}
	return c.NoContent(http.StatusNoContent)
}
