// Package router maps paths to pages and gates navigation on the session.
package router

import (
	"strings"
	"sync"

	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/httpclient"
	"github.com/felixgeelhaar/oactl/internal/log"
)

// MsgPermissionDenied is shown when a permission-tagged route is refused.
const MsgPermissionDenied = "you do not have permission to access this page"

// Router resolves paths through the guard and remembers where the user is.
// It implements httpclient.Navigator.
type Router struct {
	routes   []Route
	session  Session
	notifier httpclient.Notifier
	logger   *log.Logger
	onChange func(Match)

	mu      sync.Mutex
	current Match
	history []string
}

// Option configures a Router.
type Option func(*Router)

// WithRoutes replaces the default path table.
func WithRoutes(routes []Route) Option {
	return func(r *Router) { r.routes = routes }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// OnChange registers a callback run after every completed navigation.
func OnChange(fn func(Match)) Option {
	return func(r *Router) { r.onChange = fn }
}

// New creates a router over the default path table.
func New(s Session, notifier httpclient.Notifier, opts ...Option) *Router {
	r := &Router{
		routes:   Routes,
		session:  s,
		notifier: notifier,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = log.OrDefault(r.logger).With("component", "router")
	return r
}

// Lookup finds the route for path. Segments starting with ":" in the table
// bind parameters.
func (r *Router) Lookup(path string) (Match, bool) {
	clean := normalize(path)
	for _, route := range r.routes {
		if params, ok := matchPath(route.Path, clean); ok {
			return Match{Route: route, Path: clean, Params: params}, true
		}
	}
	return Match{}, false
}

// Resolve applies the guard to path and returns where navigation ends up.
// A redirect is not an error; the returned match is the redirect target.
func (r *Router) Resolve(path string) (Match, error) {
	target, ok := r.Lookup(path)
	if !ok {
		return Match{}, errors.Newf(errors.ErrCodeRouteNotFound, "no page at %s", path)
	}

	if !target.Route.Public && r.session.Token() == "" {
		r.logger.Debug("redirecting to login", "from", target.Path)
		login, _ := r.Lookup(PathLogin)
		return login, nil
	}

	if !Allowed(r.session.User(), target.Route.Permission) {
		r.logger.Debug("permission denied", "path", target.Path, "permission", string(target.Route.Permission))
		r.notifier.Warning(MsgPermissionDenied)
		home, _ := r.Lookup(PathHome)
		return home, nil
	}

	return target, nil
}

// Navigate resolves path and makes the result current.
func (r *Router) Navigate(path string) (Match, error) {
	m, err := r.Resolve(path)
	if err != nil {
		return Match{}, err
	}

	r.mu.Lock()
	r.current = m
	r.history = append(r.history, m.Path)
	r.mu.Unlock()

	if r.onChange != nil {
		r.onChange(m)
	}
	return m, nil
}

// Push navigates and logs failures. It lets the HTTP client redirect after
// session expiry.
func (r *Router) Push(path string) {
	if _, err := r.Navigate(path); err != nil {
		r.logger.WithError(err).Warn("navigation failed", "path", path)
	}
}

// Current returns the last completed navigation.
func (r *Router) Current() Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History lists every path navigated to, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Routes returns the path table.
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = "/" + strings.Trim(path, "/")
	return path
}

func matchPath(pattern, path string) (map[string]string, bool) {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range ps {
		if strings.HasPrefix(seg, ":") {
			if xs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = map[string]string{}
			}
			params[seg[1:]] = xs[i]
			continue
		}
		if seg != xs[i] {
			return nil, false
		}
	}
	return params, true
}
