package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/router"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON built from the route table
func RegisterSwagger(rg *gin.Engine, d *router.Dispatcher) {
	doc := openAPI(d.Prefix(), d.Routes())

	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, doc)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>pinpoint API docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

var errorResponses = gin.H{
	"400": gin.H{"description": "invalid input"},
	"401": gin.H{"description": "not logged in"},
	"403": gin.H{"description": "not allowed"},
	"404": gin.H{"description": "not found"},
}

func openAPI(prefix string, routes []router.Route) gin.H {
	paths := gin.H{
		"/health": gin.H{"get": gin.H{"summary": "Liveness check", "responses": gin.H{"200": gin.H{"description": "healthy"}}}},
		"/ready":  gin.H{"get": gin.H{"summary": "Readiness check", "responses": gin.H{"200": gin.H{"description": "ready"}, "503": gin.H{"description": "not ready"}}}},
		"/media": gin.H{"post": gin.H{
			"summary": "Upload a photo; the returned key is used as pinpoint content",
			"requestBody": gin.H{"content": gin.H{"multipart/form-data": gin.H{"schema": gin.H{
				"type": "object", "properties": gin.H{"file": gin.H{"type": "string", "format": "binary"}},
			}}}},
			"responses": gin.H{"200": gin.H{"description": "uploaded"}, "401": gin.H{"description": "not logged in"}},
		}},
	}

	for _, r := range routes {
		p := prefix + openAPIPath(r.Path)
		item, ok := paths[p].(gin.H)
		if !ok {
			item = gin.H{}
			paths[p] = item
		}
		op := gin.H{"summary": r.Summary}
		responses := gin.H{"200": gin.H{"description": "ok"}}
		for code, v := range errorResponses {
			responses[code] = v
		}
		op["responses"] = responses

		var params []gin.H
		fields := gin.H{}
		var required []string
		for _, prm := range r.Params {
			switch prm.Role {
			case router.RolePath:
				params = append(params, gin.H{"name": prm.Name, "in": "path", "required": true, "schema": gin.H{"type": "string"}})
			case router.RoleField, router.RoleJSON:
				schema := gin.H{"type": "string"}
				if prm.Role == router.RoleJSON {
					schema = gin.H{}
				}
				if r.Method == http.MethodGet {
					params = append(params, gin.H{"name": prm.Name, "in": "query", "required": !prm.Optional, "schema": schema})
					continue
				}
				fields[prm.Name] = schema
				if !prm.Optional {
					required = append(required, prm.Name)
				}
			}
		}
		if len(params) > 0 {
			op["parameters"] = params
		}
		if len(fields) > 0 {
			schema := gin.H{"type": "object", "properties": fields}
			if len(required) > 0 {
				schema["required"] = required
			}
			op["requestBody"] = gin.H{"content": gin.H{"application/json": gin.H{"schema": schema}}}
		}
		item[strings.ToLower(r.Method)] = op
	}

	return gin.H{
		"openapi": "3.0.0",
		"info":    gin.H{"title": "pinpoint", "version": "v0.1.0"},
		"paths":   paths,
	}
}

// openAPIPath rewrites :name placeholders as {name}.
func openAPIPath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			segs[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}
