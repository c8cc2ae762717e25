// Package openapi derives an OpenAPI 3.0 document from the routes registered
// on an echo server.
package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

var documentedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Generator builds an OpenAPI spec from live routes.
type Generator struct {
	title   string
	version string
	routes  func() []*echo.Route
	public  map[string]bool
}

// NewGenerator creates a generator reading routes lazily, so it sees routes
// registered after it. public lists paths served without a bearer token.
func NewGenerator(title, version string, routes func() []*echo.Route, public ...string) *Generator {
	pub := make(map[string]bool, len(public))
	for _, p := range public {
		pub[normalizePath(p)] = true
	}
	return &Generator{title: title, version: version, routes: routes, public: pub}
}

// GenerateSpec produces the OpenAPI 3.0 spec as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	paths := make(map[string]map[string]interface{})
	tagSet := make(map[string]bool)

	for _, r := range g.routes() {
		if !documentedMethods[r.Method] || strings.Contains(r.Path, "*") {
			continue
		}
		path := normalizePath(r.Path)
		if path == "/openapi.json" || path == "/docs" {
			continue
		}
		oasPath, params := convertPath(path)
		method := strings.ToLower(r.Method)

		item, ok := paths[oasPath]
		if !ok {
			item = make(map[string]interface{})
			paths[oasPath] = item
		}
		if _, dup := item[method]; dup {
			continue
		}

		tag := tagFor(path)
		tagSet[tag] = true
		op := map[string]interface{}{
			"summary":     r.Method + " " + oasPath,
			"operationId": operationID(r.Method, path),
			"tags":        []string{tag},
			"responses":   responsesFor(r.Method),
		}
		if len(params) > 0 {
			op["parameters"] = params
		}
		if !g.public[path] {
			op["security"] = []map[string][]string{{"BearerAuth": {}}}
		}
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			op["requestBody"] = map[string]interface{}{
				"required": true,
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{
						"schema": map[string]string{"type": "object"},
					},
				},
			}
		}
		item[method] = op
	}

	tags := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	tagList := make([]map[string]string, 0, len(tags))
	for _, t := range tags {
		tagList = append(tagList, map[string]string{"name": t})
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   g.title,
			"version": g.version,
		},
		"tags":  tagList,
		"paths": paths,
		"components": map[string]interface{}{
			"securitySchemes": map[string]interface{}{
				"BearerAuth": map[string]string{
					"type":         "http",
					"scheme":       "bearer",
					"bearerFormat": "JWT",
				},
			},
			"schemas": map[string]interface{}{
				"Error": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"message": map[string]string{"type": "string"},
					},
				},
			},
		},
	}
}

// normalizePath drops a trailing slash so /x and /x/ document once.
func normalizePath(p string) string {
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}

// convertPath rewrites echo's :param segments to OpenAPI {param} form.
func convertPath(p string) (string, []map[string]interface{}) {
	segs := strings.Split(p, "/")
	var params []map[string]interface{}
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			name := s[1:]
			segs[i] = "{" + name + "}"
			params = append(params, map[string]interface{}{
				"name":     name,
				"in":       "path",
				"required": true,
				"schema":   map[string]string{"type": "string"},
			})
		}
	}
	return strings.Join(segs, "/"), params
}

func tagFor(p string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	if seg == "" {
		return "root"
	}
	return seg
}

// operationID builds e.g. "get_prescriptions_patient_by_patient_user_id".
func operationID(method, p string) string {
	parts := []string{strings.ToLower(method)}
	for _, s := range strings.Split(strings.Trim(p, "/"), "/") {
		switch {
		case s == "":
		case strings.HasPrefix(s, ":"):
			parts = append(parts, "by", s[1:])
		default:
			parts = append(parts, strings.NewReplacer("-", "_", ".", "_").Replace(s))
		}
	}
	return strings.Join(parts, "_")
}

func responsesFor(method string) map[string]interface{} {
	errResp := map[string]interface{}{
		"description": "Error",
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]string{"$ref": "#/components/schemas/Error"},
			},
		},
	}
	ok := map[string]interface{}{"description": "Success"}
	code := "200"
	switch method {
	case http.MethodPost:
		code = "201"
	case http.MethodDelete:
		code = "204"
	}
	return map[string]interface{}{code: ok, "default": errResp}
}

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>CareBridge API - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" >
  <style>
    body { margin: 0; background: #fafafa; }
  </style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/openapi.json",
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [SwaggerUIBundle.presets.apis],
      layout: "BaseLayout"
    })
  </script>
</body>
</html>`

// RegisterRoutes serves /openapi.json and a Swagger UI at /docs.
func (g *Generator) RegisterRoutes(e *echo.Echo) {
	e.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
	e.GET("/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, swaggerUIHTML)
	})
}
