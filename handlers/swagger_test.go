package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/router"
	"github.com/stretchr/testify/require"
)

func TestSwaggerEndpoints(t *testing.T) {
	noop := func(ctx context.Context, a router.Args) (any, error) { return nil, nil }
	d, err := router.New([]router.Route{
		{Method: http.MethodPost, Path: "/login", Params: []router.Param{router.SessionParam(), router.FieldParam("username"), router.FieldParam("password")}, Handler: noop, Summary: "Log in"},
		{Method: http.MethodGet, Path: "/users/:username", Params: []router.Param{router.PathParam("username")}, Handler: noop},
		{Method: http.MethodPatch, Path: "/collection/:name/pins/:pinid", Params: []router.Param{router.PathParam("name"), router.PathParam("pinid")}, Handler: noop},
	}, router.WithPrefix("/api"))
	require.NoError(t, err)

	g := gin.New()
	RegisterSwagger(g, d)

	req := httptest.NewRequest("GET", "/swagger/index.html", nil)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
	require.Contains(t, w.Body.String(), "swagger-ui")

	req2 := httptest.NewRequest("GET", "/swagger/doc.json", nil)
	w2 := httptest.NewRecorder()
	g.ServeHTTP(w2, req2)
	require.Equal(t, 200, w2.Code)

	var doc struct {
		OpenAPI string                                `json:"openapi"`
		Paths   map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &doc))
	require.Equal(t, "3.0.0", doc.OpenAPI)
	require.Contains(t, doc.Paths, "/api/login")
	require.Contains(t, doc.Paths["/api/login"], "post")
	require.Contains(t, string(doc.Paths["/api/login"]["post"]), `"password"`)
	require.Contains(t, doc.Paths, "/api/users/{username}")
	require.Contains(t, doc.Paths, "/api/collection/{name}/pins/{pinid}")
	require.Contains(t, doc.Paths["/api/collection/{name}/pins/{pinid}"], "patch")
	require.Contains(t, doc.Paths, "/media")
}
