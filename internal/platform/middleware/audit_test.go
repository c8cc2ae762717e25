package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carebridge/carebridge/internal/platform/auth"
)

func TestAudit_LogsAccess(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/prescriptions/patient/p-1", nil)
	req = req.WithContext(auth.NewContext(req.Context(), auth.Principal{UserID: "fam-1", Role: auth.RoleFamily}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("patient_user_id")
	c.SetParamValues("p-1")
	c.Set("request_id", "req-123")

	handler := func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "Not allowed")
	}

	err := Audit(zerolog.New(&buf))(handler)(c)
	if err == nil {
		t.Fatal("expected handler error to be returned")
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	want := map[string]interface{}{
		"type":       "phi_access",
		"request_id": "req-123",
		"user_id":    "fam-1",
		"role":       "family",
		"resource":   "prescriptions",
		"patient_id": "p-1",
		"action":     "read",
		"status":     float64(http.StatusForbidden),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: got %v, want %v", k, entry[k], v)
		}
	}
}

func TestHTTPMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:    "read",
		http.MethodHead:   "read",
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range tests {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("httpMethodToAction(%s) = %s, want %s", method, got, want)
		}
	}
}

func TestResourceFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/records", "records"},
		{"/prescriptions/abc", "prescriptions"},
		{"/symptomchecker/records", "symptomchecker"},
		{"/", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := resourceFromPath(tt.path); got != tt.want {
			t.Errorf("resourceFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestAudit_PatientIDFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		caller  auth.Principal
		handler echo.HandlerFunc
		want    string
	}{
		{
			name:    "patient caller without path param",
			caller:  auth.Principal{UserID: "pat-9", Role: auth.RolePatient},
			handler: func(c echo.Context) error { return c.NoContent(http.StatusOK) },
			want:    "pat-9",
		},
		{
			name:   "handler recorded patient",
			caller: auth.Principal{UserID: "doc-1", Role: auth.RoleDoctor},
			handler: func(c echo.Context) error {
				c.Set(PatientIDKey, "pat-3")
				return c.NoContent(http.StatusCreated)
			},
			want: "pat-3",
		},
		{
			name:    "non-patient caller without patient",
			caller:  auth.Principal{UserID: "fam-1", Role: auth.RoleFamily},
			handler: func(c echo.Context) error { return c.NoContent(http.StatusOK) },
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			req := httptest.NewRequest(http.MethodPost, "/records", nil)
			req = req.WithContext(auth.NewContext(req.Context(), tt.caller))
			c := echo.New().NewContext(req, httptest.NewRecorder())

			if err := Audit(zerolog.New(&buf))(tt.handler)(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("log line is not JSON: %v", err)
			}
			if entry["patient_id"] != tt.want {
				t.Errorf("patient_id = %v, want %q", entry["patient_id"], tt.want)
			}
		})
	}
}
