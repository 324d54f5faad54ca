package router

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/sessions"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/apperr"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/logger"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/metrics"
)

// maxBody bounds the JSON payload read per request.
const maxBody = 1 << 20

// Dispatcher serves a fixed route table. It is built once at startup and is
// read-only afterwards.
type Dispatcher struct {
	routes  []*compiled
	prefix  string
	timeout time.Duration
	commit  func(c *gin.Context) error
}

type Option func(*Dispatcher)

// WithPrefix sets the path prefix the dispatcher is mounted under.
func WithPrefix(p string) Option {
	return func(d *Dispatcher) { d.prefix = "/" + strings.Trim(p, "/") }
}

// WithTimeout bounds every handler call with a context deadline.
func WithTimeout(t time.Duration) Option { return func(d *Dispatcher) { d.timeout = t } }

// WithCommit runs fn after a handler succeeds and before the response is
// written. A commit failure is rendered instead of the result.
func WithCommit(fn func(c *gin.Context) error) Option { return func(d *Dispatcher) { d.commit = fn } }

// New validates the route table. Duplicate routes, path params missing from
// their pattern and names bound under two roles are reported here rather than
// at request time.
func New(routes []Route, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{}
	for _, o := range opts {
		o(d)
	}
	if d.prefix == "/" {
		d.prefix = ""
	}
	for _, r := range routes {
		c, err := compile(r)
		if err != nil {
			return nil, err
		}
		for _, prev := range d.routes {
			if indistinguishable(prev, &c) {
				return nil, fmt.Errorf("route %s %s: duplicates %s %s", r.Method, r.Path, prev.Method, prev.Path)
			}
		}
		d.routes = append(d.routes, &c)
	}
	sort.SliceStable(d.routes, func(i, j int) bool { return moreSpecific(d.routes[i], d.routes[j]) })
	return d, nil
}

// Mount registers the dispatcher for every method under the prefix.
func (d *Dispatcher) Mount(r gin.IRouter) {
	g := r.Group(d.prefix)
	g.Any("/*path", d.Handle)
}

// Prefix returns the mount prefix ("" for the root).
func (d *Dispatcher) Prefix() string { return d.prefix }

// Routes returns the route table in registration-independent match order.
func (d *Dispatcher) Routes() []Route {
	out := make([]Route, 0, len(d.routes))
	for _, c := range d.routes {
		out = append(out, c.Route)
	}
	return out
}

func (d *Dispatcher) find(method string, segs []string) (*compiled, map[string]string) {
	for _, c := range d.routes {
		if c.Method != method {
			continue
		}
		if captured, ok := c.match(segs); ok {
			return c, captured
		}
	}
	return nil, nil
}

// Handle is the gin handler for every dispatched request.
func (d *Dispatcher) Handle(c *gin.Context) {
	start := time.Now()
	method := c.Request.Method
	path, segs, err := d.segments(c)
	if err != nil {
		metrics.DispatchRequests.WithLabelValues(method, metrics.NoRoute, strconv.Itoa(http.StatusBadRequest)).Inc()
		RenderError(c, err)
		return
	}

	route, captured := d.find(method, segs)
	if route == nil {
		metrics.DispatchRequests.WithLabelValues(method, metrics.NoRoute, strconv.Itoa(http.StatusNotFound)).Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no route for %s %s", method, path)})
		return
	}

	status := d.serve(c, route, captured)

	metrics.DispatchRequests.WithLabelValues(method, route.Path, strconv.Itoa(status)).Inc()
	metrics.DispatchDuration.WithLabelValues(method, route.Path).Observe(time.Since(start).Seconds())
}

// segments splits the escaped request path below the prefix and decodes each
// segment on its own, so an encoded "/" stays inside one placeholder.
func (d *Dispatcher) segments(c *gin.Context) (string, []string, error) {
	path, ok := strings.CutPrefix(c.Request.URL.EscapedPath(), d.prefix)
	if !ok {
		// the prefix itself arrived escaped; gin matched on the decoded form
		path = c.Param("path")
		return path, splitPath(path), nil
	}
	segs := splitPath(path)
	for i, raw := range segs {
		seg, err := url.PathUnescape(raw)
		if err != nil {
			return path, nil, apperr.Validation("path", "is not a valid URL path")
		}
		segs[i] = seg
	}
	return path, segs, nil
}

func (d *Dispatcher) serve(c *gin.Context, route *compiled, captured map[string]string) int {
	payload, err := readPayload(c)
	if err != nil {
		return RenderError(c, err)
	}
	for name := range captured {
		delete(payload, name)
	}

	args, err := bind(c, route, captured, payload)
	if err != nil {
		return RenderError(c, err)
	}

	ctx := c.Request.Context()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	result, err := route.Handler(ctx, args)
	if err != nil {
		return RenderError(c, err)
	}
	if d.commit != nil {
		if err := d.commit(c); err != nil {
			return RenderError(c, err)
		}
	}
	c.JSON(http.StatusOK, result)
	return http.StatusOK
}

// readPayload returns the flat request payload: query parameters for GET,
// the JSON body object for every other method.
func readPayload(c *gin.Context) (map[string]any, error) {
	payload := map[string]any{}
	if c.Request.Method == http.MethodGet {
		for k, v := range c.Request.URL.Query() {
			if len(v) > 0 {
				payload[k] = v[0]
			}
		}
		return payload, nil
	}
	if c.Request.Body == nil {
		return payload, nil
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
	if err != nil {
		return nil, apperr.Validation("body", "could not be read")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperr.Validation("body", "must be a JSON object")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

func bind(c *gin.Context, route *compiled, captured map[string]string, payload map[string]any) (Args, error) {
	args := Args{
		params:  route.Params,
		values:  make([]any, len(route.Params)),
		present: make([]bool, len(route.Params)),
	}
	for i, p := range route.Params {
		switch p.Role {
		case RolePath:
			args.values[i], args.present[i] = captured[p.Name], true

		case RoleSession:
			s, ok := sessions.FromContext(c)
			if !ok {
				return Args{}, fmt.Errorf("route %s %s: no session on the request", route.Method, route.Path)
			}
			args.values[i], args.present[i] = s, true

		case RoleField, RoleJSON:
			v, ok := payload[p.Name]
			if !ok || v == nil {
				if p.Optional {
					continue
				}
				return Args{}, apperr.Validation(p.Name, "is required")
			}
			if p.Role == RoleField {
				v = scalar(v)
			} else {
				v = structured(v)
			}
			args.values[i], args.present[i] = v, true
		}
	}
	return args, nil
}

// scalar returns v as a string; non-string JSON values keep their JSON text.
func scalar(v any) any {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// structured parses string values as JSON, keeping the raw string when they do not parse.
func structured(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return s
	}
	return parsed
}

// RenderError writes err as {"error": message} with its mapped status and
// returns the status. Unclassified failures are logged and answered with a
// generic message.
func RenderError(c *gin.Context, err error) int {
	status := apperr.StatusCode(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
	return status
}
