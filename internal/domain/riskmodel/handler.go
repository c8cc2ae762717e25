package riskmodel

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves risk predictions.
type Handler struct {
	model Model
}

// NewHandler creates a handler for model.
func NewHandler(model Model) *Handler {
	return &Handler{model: model}
}

// RegisterRoutes mounts the public prediction endpoint.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/predict/risk", h.Predict)
}

func (h *Handler) Predict(c echo.Context) error {
	in := DefaultInput()
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "resting_hr, sleep_hours and steps must be numbers")
	}
	return c.JSON(http.StatusOK, h.model.Predict(in))
}
