package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carebridge/carebridge/internal/platform/auth"
)

// Audit emits one "phi_access" log line per request that touches patient
// data: who did what to which collection, and the outcome. It must run after
// the JWT middleware so the caller is known.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			req := c.Request()
			p, _ := auth.PrincipalFromContext(req.Context())
			rid, _ := c.Get("request_id").(string)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}

			logger.Info().
				Str("type", "phi_access").
				Str("request_id", rid).
				Str("user_id", p.UserID).
				Str("role", p.Role).
				Str("resource", resourceFromPath(req.URL.Path)).
				Str("patient_id", auditPatientID(c, p)).
				Str("action", httpMethodToAction(req.Method)).
				Str("path", req.URL.Path).
				Int("status", status).
				Msg("phi_access")

			return err
		}
	}
}

// PatientIDKey is the echo context key a handler sets when the patient comes
// from the request body rather than the path.
const PatientIDKey = "patient_id"

// auditPatientID resolves the patient a request touched: the path param, then
// a value the handler recorded, then the caller when the caller is a patient.
func auditPatientID(c echo.Context, p auth.Principal) string {
	if id := c.Param("patient_user_id"); id != "" {
		return id
	}
	if id, ok := c.Get(PatientIDKey).(string); ok && id != "" {
		return id
	}
	if p.Role == auth.RolePatient {
		return p.UserID
	}
	return ""
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceFromPath returns the first path segment: /prescriptions/x -> prescriptions.
func resourceFromPath(path string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if seg == "" {
		return "unknown"
	}
	return seg
}
