// Package routes decides whether a navigation target is reachable for
// the current authentication state. The guard is a pure function over
// (route, logged-in); redirects are returned, never performed.
package routes

import (
	"net/url"
	"strings"
)

// Access classifies who may enter a route.
type Access int

const (
	// Public routes are open to everyone.
	Public Access = iota
	// RequiresAuth routes bounce anonymous visitors to the login view.
	RequiresAuth
	// GuestOnly routes bounce authenticated users to the home view.
	GuestOnly
)

// Decision is the guard's verdict. RedirectTo is set only when Allow
// is false.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// rule matches a path by exact value or prefix.
type rule struct {
	path   string
	prefix bool
	access Access
}

// Default ordering: first match wins, so exact entries precede
// prefixes.
var defaultRules = []rule{
	{path: "/login", access: GuestOnly},
	{path: "/register", access: GuestOnly},
	{path: "/checkout", access: RequiresAuth},
	{path: "/orders", access: RequiresAuth},
	{path: "/order/", prefix: true, access: RequiresAuth},
	{path: "/profile", prefix: true, access: RequiresAuth},
}

// Guard evaluates navigation targets against a rule table.
type Guard struct {
	rules []rule
}

func NewGuard() *Guard {
	return &Guard{rules: defaultRules}
}

// Classify returns the access class of a path. Unlisted paths,
// including the cart view, are public.
func (g *Guard) Classify(path string) Access {
	path = normalize(path)
	for _, r := range g.rules {
		if r.prefix {
			if strings.HasPrefix(path, r.path) {
				return r.access
			}
			continue
		}
		if path == r.path {
			return r.access
		}
	}
	return Public
}

// Check decides whether the navigation may proceed. A protected route
// redirects anonymous visitors to the login view and carries the
// intended destination so a successful login can resume it.
func (g *Guard) Check(path string, loggedIn bool) Decision {
	switch g.Classify(path) {
	case RequiresAuth:
		if !loggedIn {
			return Decision{RedirectTo: "/login?redirect=" + url.QueryEscape(normalize(path))}
		}
	case GuestOnly:
		if loggedIn {
			return Decision{RedirectTo: "/"}
		}
	}
	return Decision{Allow: true}
}

// ResumeTarget extracts the post-login destination from a login route,
// falling back to the home view.
func ResumeTarget(loginPath string) string {
	parsed, err := url.Parse(loginPath)
	if err != nil {
		return "/"
	}
	if target := parsed.Query().Get("redirect"); target != "" && strings.HasPrefix(target, "/") {
		return target
	}
	return "/"
}

func normalize(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	// Strip any query before matching.
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}
