// Package access decides which views a session may navigate to. All
// role-based routing goes through one table of role policies, consulted
// by a single Decide call, so no caller ever branches on role strings.
package access

import (
	"strings"

	"github.com/masterfulhomes/dashwise-go/session"
)

// Decision is the outcome of a routing check.
type Decision int

const (
	// Allow lets the navigation proceed.
	Allow Decision = iota
	// RedirectToLogin means the destination needs a session and there is none.
	RedirectToLogin
	// RedirectToRoleHome means the session's role may not visit the
	// destination and should land on its own home instead.
	RedirectToRoleHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToRoleHome:
		return "redirect_to_role_home"
	default:
		return "unknown"
	}
}

// Result is a routing decision plus where to go when it is a redirect.
type Result struct {
	Decision   Decision
	RedirectTo string
}

// Policy describes what one role may reach and where it lands.
type Policy struct {
	Label    string   // Display name for the role
	Home     string   // Landing path after login and on denied navigation
	Prefixes []string // Route prefixes this role may visit
}

// Well-known paths.
const (
	LoginPath   = "/login"
	LandingPath = "/"
)

// publicPrefixes are reachable without a session.
var publicPrefixes = []string{
	"/",
	"/login",
	"/signup",
	"/about",
	"/services",
	"/contact",
}

// sharedPrefixes are reachable by every authenticated role.
var sharedPrefixes = []string{
	"/profile",
	"/notifications",
}

// DefaultPolicies is the deployment's role table. Roles are open strings:
// a role absent from this table is unknown and resolves to the generic
// landing view, never to an elevated one.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		"admin": {
			Label: "Administrator",
			Home:  "/dashboard/admin",
			Prefixes: []string{
				"/dashboard/admin",
				"/dashboard/manager",
				"/dashboard/technician",
				"/dashboard/finance",
				"/users",
				"/installations",
				"/invoices",
				"/customers",
				"/hr",
				"/tasks",
				"/time",
			},
		},
		"manager": {
			Label: "Manager",
			Home:  "/dashboard/manager",
			Prefixes: []string{
				"/dashboard/manager",
				"/installations",
				"/invoices",
				"/customers",
				"/tasks",
				"/time",
			},
		},
		"technician": {
			Label: "Technician",
			Home:  "/dashboard/technician",
			Prefixes: []string{
				"/dashboard/technician",
				"/installations",
				"/tasks",
				"/time",
			},
		},
		"finance": {
			Label: "Finance",
			Home:  "/dashboard/finance",
			Prefixes: []string{
				"/dashboard/finance",
				"/invoices",
				"/customers",
			},
		},
	}
}

// Gate evaluates navigation against the current session.
type Gate struct {
	store    *session.Store
	policies map[string]Policy
}

// Option configures a Gate.
type Option func(*Gate)

// WithPolicies replaces the role table, for deployments with a different
// role vocabulary.
func WithPolicies(policies map[string]Policy) Option {
	return func(g *Gate) {
		g.policies = policies
	}
}

// NewGate creates a gate reading auth state from the given store.
func NewGate(store *session.Store, options ...Option) *Gate {
	gate := &Gate{store: store, policies: DefaultPolicies()}
	for _, opt := range options {
		opt(gate)
	}
	return gate
}

// Decide returns the routing decision for a destination path given the
// current session state.
func (g *Gate) Decide(destination string) Result {
	if matchesPrefix(destination, publicPrefixes) {
		return Result{Decision: Allow}
	}

	snapshot := g.store.Snapshot()
	if !snapshot.Authenticated() {
		return Result{Decision: RedirectToLogin, RedirectTo: LoginPath}
	}

	policy, known := g.policies[snapshot.Role]
	if !known {
		// Unrecognised role: least privilege, generic landing.
		return Result{Decision: RedirectToRoleHome, RedirectTo: LandingPath}
	}

	if matchesPrefix(destination, sharedPrefixes) || matchesPrefix(destination, policy.Prefixes) {
		return Result{Decision: Allow}
	}
	return Result{Decision: RedirectToRoleHome, RedirectTo: policy.Home}
}

// Home returns the landing path for the current session's role.
func (g *Gate) Home() string {
	policy, known := g.policies[g.store.Role()]
	if !known {
		return LandingPath
	}
	return policy.Home
}

// Label returns the display label for the current session's role, empty
// when the role is unknown.
func (g *Gate) Label() string {
	return g.policies[g.store.Role()].Label
}

// matchesPrefix reports whether path equals a prefix or sits under it.
func matchesPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
