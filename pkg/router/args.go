package router

import (
	"github.com/pinpoint/pinpoint/backend/go-services/internal/sessions"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/apperr"
)

// Args is the bound argument list of one call, indexed like Route.Params.
type Args struct {
	params  []Param
	values  []any
	present []bool
}

// NewArgs builds an argument list directly, for calling handlers in tests.
// A nil value marks the argument as absent.
func NewArgs(params []Param, values ...any) Args {
	a := Args{params: params, values: make([]any, len(params)), present: make([]bool, len(params))}
	for i := range params {
		if i < len(values) && values[i] != nil {
			a.values[i] = values[i]
			a.present[i] = true
		}
	}
	return a
}

func (a Args) Len() int { return len(a.values) }

// Has reports whether argument i was supplied.
func (a Args) Has(i int) bool { return a.present[i] }

// Value returns argument i as bound, or nil when absent.
func (a Args) Value(i int) any { return a.values[i] }

// Session returns argument i as the request session.
func (a Args) Session(i int) *sessions.Session {
	s, _ := a.values[i].(*sessions.Session)
	return s
}

// String returns argument i when it is a string, "" otherwise.
func (a Args) String(i int) string {
	s, _ := a.values[i].(string)
	return s
}

// Map returns argument i as a JSON object. A present value of any other shape
// is a ValidationError.
func (a Args) Map(i int) (map[string]any, error) {
	if !a.present[i] {
		return nil, nil
	}
	m, ok := a.values[i].(map[string]any)
	if !ok {
		return nil, apperr.Validation(a.params[i].Name, "must be a JSON object")
	}
	return m, nil
}

// Strings returns argument i as a list of strings. A single string is a list
// of one.
func (a Args) Strings(i int) ([]string, error) {
	if !a.present[i] {
		return nil, nil
	}
	switch v := a.values[i].(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, apperr.Validation(a.params[i].Name, "must be a list of identifiers")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, apperr.Validation(a.params[i].Name, "must be a list of identifiers")
}
