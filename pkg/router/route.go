// Package router turns a static table of route descriptors into one gin
// handler: it matches method and path, binds handler arguments from the path,
// the request payload and the session, calls the handler and renders either
// the result or the classified error as JSON.
package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Role says where a handler argument is bound from.
type Role int

const (
	// RolePath binds a placeholder segment of the path pattern.
	RolePath Role = iota + 1
	// RoleSession binds the request's session.
	RoleSession
	// RoleField binds a scalar payload field: the query string for GET,
	// the JSON body otherwise.
	RoleField
	// RoleJSON binds a structured payload field. String values are parsed as
	// JSON on a best-effort basis and kept raw when they do not parse.
	RoleJSON
)

func (r Role) String() string {
	switch r {
	case RolePath:
		return "path"
	case RoleSession:
		return "session"
	case RoleField:
		return "field"
	case RoleJSON:
		return "json"
	}
	return "unknown"
}

// Param declares one handler argument.
type Param struct {
	Name     string
	Role     Role
	Optional bool
}

func PathParam(name string) Param     { return Param{Name: name, Role: RolePath} }
func SessionParam() Param             { return Param{Name: "session", Role: RoleSession} }
func FieldParam(name string) Param    { return Param{Name: name, Role: RoleField} }
func OptionalField(name string) Param { return Param{Name: name, Role: RoleField, Optional: true} }
func JSONParam(name string) Param     { return Param{Name: name, Role: RoleJSON} }
func OptionalJSON(name string) Param  { return Param{Name: name, Role: RoleJSON, Optional: true} }

// HandlerFunc receives its arguments in the order its Params declare them.
// Returning an *apperr.Error selects the response status; any other error is a 500.
type HandlerFunc func(ctx context.Context, args Args) (any, error)

// Route is one entry of the route table.
type Route struct {
	Method  string
	Path    string
	Params  []Param
	Handler HandlerFunc
	Summary string
}

var methods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

type segment struct {
	literal string
	param   string
}

func (s segment) isParam() bool { return s.param != "" }

type compiled struct {
	Route
	segments []segment
	literals int
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func compile(r Route) (compiled, error) {
	where := fmt.Sprintf("%s %s", r.Method, r.Path)
	if !methods[r.Method] {
		return compiled{}, fmt.Errorf("route %s: unsupported method", where)
	}
	if !strings.HasPrefix(r.Path, "/") {
		return compiled{}, fmt.Errorf("route %s: path must start with /", where)
	}
	if r.Handler == nil {
		return compiled{}, fmt.Errorf("route %s: nil handler", where)
	}

	c := compiled{Route: r}
	placeholders := map[string]bool{}
	for _, s := range splitPath(r.Path) {
		if strings.HasPrefix(s, ":") {
			name := s[1:]
			if name == "" {
				return compiled{}, fmt.Errorf("route %s: empty placeholder name", where)
			}
			if placeholders[name] {
				return compiled{}, fmt.Errorf("route %s: placeholder %q repeated", where, name)
			}
			placeholders[name] = true
			c.segments = append(c.segments, segment{param: name})
			continue
		}
		if s == "" {
			return compiled{}, fmt.Errorf("route %s: empty path segment", where)
		}
		c.segments = append(c.segments, segment{literal: s})
		c.literals++
	}

	roles := map[string]Role{}
	for _, p := range r.Params {
		if p.Role < RolePath || p.Role > RoleJSON {
			return compiled{}, fmt.Errorf("route %s: param %q has no role", where, p.Name)
		}
		if p.Name == "" {
			return compiled{}, fmt.Errorf("route %s: param without a name", where)
		}
		if prev, ok := roles[p.Name]; ok {
			if prev != p.Role {
				return compiled{}, fmt.Errorf("route %s: %q bound as both %s and %s", where, p.Name, prev, p.Role)
			}
			return compiled{}, fmt.Errorf("route %s: %q bound twice", where, p.Name)
		}
		roles[p.Name] = p.Role
		if p.Role == RolePath && !placeholders[p.Name] {
			return compiled{}, fmt.Errorf("route %s: path param %q is not in the pattern", where, p.Name)
		}
		if p.Role != RolePath && p.Role != RoleSession && placeholders[p.Name] {
			return compiled{}, fmt.Errorf("route %s: %q is a path placeholder and cannot be a %s param", where, p.Name, p.Role)
		}
	}
	return c, nil
}

// match reports whether segs fits the pattern and returns the captured placeholders.
func (c *compiled) match(segs []string) (map[string]string, bool) {
	if len(segs) != len(c.segments) {
		return nil, false
	}
	var captured map[string]string
	for i, s := range c.segments {
		if s.isParam() {
			if captured == nil {
				captured = map[string]string{}
			}
			captured[s.param] = segs[i]
			continue
		}
		if s.literal != segs[i] {
			return nil, false
		}
	}
	return captured, true
}

// indistinguishable reports whether a and b would match exactly the same paths.
func indistinguishable(a, b *compiled) bool {
	if a.Method != b.Method || len(a.segments) != len(b.segments) {
		return false
	}
	for i := range a.segments {
		sa, sb := a.segments[i], b.segments[i]
		if sa.isParam() != sb.isParam() {
			return false
		}
		if !sa.isParam() && sa.literal != sb.literal {
			return false
		}
	}
	return true
}

// moreSpecific orders overlapping patterns: more literal segments first, then
// the pattern whose first literal comes earlier.
func moreSpecific(a, b *compiled) bool {
	if a.literals != b.literals {
		return a.literals > b.literals
	}
	n := len(a.segments)
	if len(b.segments) < n {
		n = len(b.segments)
	}
	for i := 0; i < n; i++ {
		pa, pb := a.segments[i].isParam(), b.segments[i].isParam()
		if pa != pb {
			return !pa
		}
	}
	return false
}
