// Package guard decides which pages render for which visitor. The decision
// function is pure: it reads a session snapshot and a route's declared
// requirement and yields render, redirect or loading — never both.
package guard

import (
	"net/url"

	"github.com/addisrender/backend/internal/session"
)

// Requirement is the access policy attached to a navigable page.
type Requirement int

const (
	// Public pages render for everyone.
	Public Requirement = iota
	// PublicOnly pages (login, signup) bounce authenticated visitors away.
	PublicOnly
	// AuthRequired pages need a signed-in visitor.
	AuthRequired
	// AdminRequired pages need the admin role.
	AdminRequired
)

func (r Requirement) String() string {
	switch r {
	case PublicOnly:
		return "public-only"
	case AuthRequired:
		return "auth"
	case AdminRequired:
		return "admin"
	default:
		return "public"
	}
}

// Action is the terminal outcome of one guard evaluation.
type Action int

const (
	// Render the route's content.
	Render Action = iota
	// Redirect the visitor to Decision.Location instead of rendering.
	Redirect
	// Loading: session resolution has not finished; show a neutral
	// indicator and re-evaluate when it has. Never renders content.
	Loading
)

// Decision is the result of evaluating a route against a session state.
type Decision struct {
	Action   Action
	Location string
}

// Evaluate applies the route-access state machine. It must run before any
// content is produced so a denied visitor never sees protected bytes.
func Evaluate(req Requirement, state session.State, path string) Decision {
	if state.Loading {
		return Decision{Action: Loading}
	}

	signedIn := state.Session != nil

	switch {
	case req == AuthRequired && !signedIn:
		return Decision{
			Action:   Redirect,
			Location: "/login?returnTo=" + url.QueryEscape(path),
		}
	case req == AdminRequired && !state.Admin:
		// Anonymous and signed-in non-admins land on home alike; the
		// distinction would leak nothing useful and costs a branch.
		return Decision{Action: Redirect, Location: "/"}
	case req == PublicOnly && signedIn:
		if state.Admin {
			return Decision{Action: Redirect, Location: "/admin"}
		}
		return Decision{Action: Redirect, Location: "/profile"}
	}

	return Decision{Action: Render}
}

// routes is the static page table. Registered once; immutable afterwards.
var routes = map[string]Requirement{
	"/":          Public,
	"/about":     Public,
	"/services":  Public,
	"/contact":   Public,
	"/quote":     Public,
	"/faq":       Public,
	"/portfolio": Public,
	"/login":     PublicOnly,
	"/signup":    PublicOnly,
	"/profile":   AuthRequired,
	"/admin":     AdminRequired,
}

// RouteRequirement returns the requirement declared for a page path.
// Unknown paths are public: they resolve to the not-found page.
func RouteRequirement(path string) Requirement {
	if req, ok := routes[path]; ok {
		return req
	}
	return Public
}

// Pages returns the declared page paths and their requirements.
func Pages() map[string]Requirement {
	out := make(map[string]Requirement, len(routes))
	for p, r := range routes {
		out[p] = r
	}
	return out
}
