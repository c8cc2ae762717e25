package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Roles a user can register with.
const (
	RolePatient  = "patient"
	RoleFamily   = "family"
	RoleDoctor   = "doctor"
	RoleResearch = "research"
)

var knownRoles = map[string]bool{
	RolePatient:  true,
	RoleFamily:   true,
	RoleDoctor:   true,
	RoleResearch: true,
}

// ValidRole reports whether role is one of the registrable roles.
func ValidRole(role string) bool {
	return knownRoles[role]
}

// RequireRole returns middleware that checks if the caller has one of the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			has := RoleFromContext(c.Request().Context())
			for _, required := range roles {
				if has == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
