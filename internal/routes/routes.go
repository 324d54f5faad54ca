// Package routes declares the HTTP API as a static route table.
package routes

import (
	"context"
	"net/http"

	"github.com/pinpoint/pinpoint/backend/go-services/internal/sessions"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/router"
)

type response map[string]any

// Table returns the route table served by the dispatcher.
func Table(s *Services) []router.Route {
	session := router.SessionParam()
	path := router.PathParam
	return []router.Route{
		{Method: http.MethodGet, Path: "/session", Params: []router.Param{session}, Handler: s.getSessionUser, Summary: "Current user"},

		{Method: http.MethodPost, Path: "/users", Params: []router.Param{session, router.FieldParam("username"), router.FieldParam("password")}, Handler: s.createUser, Summary: "Register"},
		{Method: http.MethodGet, Path: "/users", Handler: s.getUsers, Summary: "List users"},
		{Method: http.MethodGet, Path: "/users/:username", Params: []router.Param{path("username")}, Handler: s.getUser, Summary: "Find a user by name"},
		{Method: http.MethodPatch, Path: "/users", Params: []router.Param{session, router.JSONParam("update")}, Handler: s.updateUser, Summary: "Change username or password"},
		{Method: http.MethodPost, Path: "/login", Params: []router.Param{session, router.FieldParam("username"), router.FieldParam("password")}, Handler: s.logIn, Summary: "Log in"},
		{Method: http.MethodPost, Path: "/logout", Params: []router.Param{session}, Handler: s.logOut, Summary: "Log out"},

		{Method: http.MethodPost, Path: "/map", Params: []router.Param{session, router.OptionalJSON("locations"), router.OptionalJSON("pins"), router.OptionalField("currLocation")}, Handler: s.createMap, Summary: "Create a map"},
		{Method: http.MethodPatch, Path: "/map/:mapid/:x/:y", Params: []router.Param{session, path("mapid"), path("x"), path("y")}, Handler: s.selectLocation, Summary: "Select or deselect the location at x,y"},
		{Method: http.MethodPatch, Path: "/map/pin/:mapid", Params: []router.Param{session, path("mapid")}, Handler: s.dropPin, Summary: "Drop a pin at the selected location"},
		{Method: http.MethodDelete, Path: "/map/pin/:mapid/:pinid", Params: []router.Param{session, path("mapid"), path("pinid")}, Handler: s.deletePin, Summary: "Remove a pin from a map"},

		{Method: http.MethodGet, Path: "/pinpoints/user", Params: []router.Param{session}, Handler: s.getUserPinPoints, Summary: "My pinpoints"},
		{Method: http.MethodPost, Path: "/pinpoints/new/:pin/:content/:caption", Params: []router.Param{session, path("pin"), path("content"), path("caption")}, Handler: s.createPinPoint, Summary: "Post a pinpoint"},
		{Method: http.MethodPatch, Path: "/pinpoints/edit/:pinpointid/:caption", Params: []router.Param{session, path("pinpointid"), path("caption")}, Handler: s.editCaption, Summary: "Edit a pinpoint caption"},
		{Method: http.MethodDelete, Path: "/pinpoints/user/:_id", Params: []router.Param{session, path("_id")}, Handler: s.deletePinPoint, Summary: "Delete a pinpoint"},
		{Method: http.MethodGet, Path: "/pinpoints/:pinpointid/media", Params: []router.Param{path("pinpointid")}, Handler: s.getMediaURL, Summary: "Download URL of a pinpoint's media"},

		{Method: http.MethodGet, Path: "/collection", Params: []router.Param{session}, Handler: s.getCollections, Summary: "My collections"},
		{Method: http.MethodGet, Path: "/collection/:name", Params: []router.Param{session, path("name")}, Handler: s.getCollection, Summary: "One of my collections"},
		{Method: http.MethodPost, Path: "/collection/new/:name", Params: []router.Param{session, path("name")}, Handler: s.createCollection, Summary: "Create a collection"},
		{Method: http.MethodPatch, Path: "/collection/:name/pins/:pinid", Params: []router.Param{session, path("name"), path("pinid")}, Handler: s.addCollectionPin, Summary: "Add a pin to a collection"},
		{Method: http.MethodPatch, Path: "/collection/:name/users/:username", Params: []router.Param{session, path("name"), path("username")}, Handler: s.addCollectionUser, Summary: "Share a collection"},
		{Method: http.MethodDelete, Path: "/collection/:name/pins/:pinid", Params: []router.Param{session, path("name"), path("pinid")}, Handler: s.removeCollectionPin, Summary: "Remove a pin from a collection"},
		{Method: http.MethodDelete, Path: "/collection/:name", Params: []router.Param{session, path("name")}, Handler: s.deleteCollection, Summary: "Delete a collection"},
	}
}

func (s *Services) getSessionUser(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	return s.Users.GetByID(ctx, user)
}

func (s *Services) createUser(ctx context.Context, a router.Args) (any, error) {
	if err := sessions.RequireAnonymous(a.Session(0)); err != nil {
		return nil, err
	}
	u, err := s.Users.Create(ctx, a.String(1), a.String(2))
	if err != nil {
		return nil, err
	}
	return response{"msg": "User created successfully!", "user": u}, nil
}

func (s *Services) getUsers(ctx context.Context, a router.Args) (any, error) {
	return s.Users.List(ctx, "")
}

// getUser answers with the matching user or null.
func (s *Services) getUser(ctx context.Context, a router.Args) (any, error) {
	found, err := s.Users.List(ctx, a.String(0))
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (s *Services) updateUser(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	update, err := a.Map(1)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.Update(ctx, user, update)
	if err != nil {
		return nil, err
	}
	return response{"msg": "Updated user successfully!", "user": u}, nil
}

func (s *Services) logIn(ctx context.Context, a router.Args) (any, error) {
	u, err := s.Users.Authenticate(ctx, a.String(1), a.String(2))
	if err != nil {
		return nil, err
	}
	sessions.Start(a.Session(0), u.ID)
	return response{"msg": "Logged in!"}, nil
}

func (s *Services) logOut(ctx context.Context, a router.Args) (any, error) {
	sessions.End(a.Session(0))
	return response{"msg": "Logged out!"}, nil
}

func (s *Services) createMap(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	locations, err := a.Strings(1)
	if err != nil {
		return nil, err
	}
	pins, err := a.Strings(2)
	if err != nil {
		return nil, err
	}
	m, err := s.Maps.Create(ctx, user, locations, pins, a.String(3))
	if err != nil {
		return nil, err
	}
	return response{"msg": "Map created!", "map": m}, nil
}

func (s *Services) selectLocation(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	return s.Maps.SelectLocation(ctx, user, a.String(1), a.String(2), a.String(3))
}

func (s *Services) dropPin(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	p, err := s.Maps.DropPin(ctx, user, a.String(1))
	if err != nil {
		return nil, err
	}
	return response{"msg": "Pin dropped!", "pin": p}, nil
}

func (s *Services) deletePin(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	if err := s.Maps.DeletePin(ctx, user, a.String(1), a.String(2)); err != nil {
		return nil, err
	}
	return response{"msg": "Pin deleted!"}, nil
}

func (s *Services) getUserPinPoints(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	return s.PinPoints.ByUser(ctx, user)
}

func (s *Services) createPinPoint(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	p, err := s.PinPoints.Create(ctx, user, a.String(1), a.String(2), a.String(3))
	if err != nil {
		return nil, err
	}
	return response{"msg": "PinPoint successfully created!", "pinpoint": p}, nil
}

func (s *Services) editCaption(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	p, err := s.PinPoints.EditCaption(ctx, user, a.String(1), a.String(2))
	if err != nil {
		return nil, err
	}
	return response{"msg": "Caption updated!", "pinpoint": p}, nil
}

func (s *Services) deletePinPoint(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	if err := s.PinPoints.Delete(ctx, user, a.String(1)); err != nil {
		return nil, err
	}
	return response{"msg": "PinPoint deleted successfully!"}, nil
}

func (s *Services) getMediaURL(ctx context.Context, a router.Args) (any, error) {
	u, err := s.PinPoints.MediaURL(ctx, a.String(0))
	if err != nil {
		return nil, err
	}
	return response{"url": u}, nil
}

func (s *Services) getCollections(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	return s.Collections.ForUser(ctx, user)
}

func (s *Services) getCollection(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	return s.Collections.Get(ctx, user, a.String(1))
}

func (s *Services) createCollection(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	c, err := s.Collections.Create(ctx, user, a.String(1))
	if err != nil {
		return nil, err
	}
	return response{"msg": "Collection successfully created!", "collection": c}, nil
}

func (s *Services) addCollectionPin(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	return s.Collections.AddPin(ctx, user, a.String(1), a.String(2))
}

func (s *Services) addCollectionUser(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	return s.Collections.AddUser(ctx, user, a.String(1), a.String(2))
}

func (s *Services) removeCollectionPin(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	return s.Collections.RemovePin(ctx, user, a.String(1), a.String(2))
}

func (s *Services) deleteCollection(ctx context.Context, a router.Args) (any, error) {
	user, err := sessions.RequireAuthenticated(a.Session(0))
	if err != nil {
		return nil, err
	}
	if err := s.Collections.Delete(ctx, user, a.String(1)); err != nil {
		return nil, err
	}
	return response{"msg": "Collection deleted successfully!"}, nil
}
