// Package guard decides whether a route may render for the current session.
package guard

import (
	"fmt"

	"taskdesk-cli/internal/session"
)

type Route int

const (
	RouteLogin Route = iota
	RouteRegister
	RouteDashboard
	RouteTaskDetail
	RouteTaskCreate
	RouteTaskEdit
	RouteCategories
	RouteProfile
	RouteAdminDashboard
	RouteAdminUsers
	RouteAdminMessages
	RouteHelp
	RouteAbout
)

// Landing is the default page for a signed-in user.
const Landing = RouteDashboard

type access int

const (
	accessPublic access = iota
	accessAnonymous
	accessUser
	accessAdmin
)

type routeInfo struct {
	name   string
	access access
}

var routes = map[Route]routeInfo{
	RouteLogin:          {"login", accessAnonymous},
	RouteRegister:       {"register", accessAnonymous},
	RouteDashboard:      {"dashboard", accessUser},
	RouteTaskDetail:     {"task", accessUser},
	RouteTaskCreate:     {"task-create", accessUser},
	RouteTaskEdit:       {"task-edit", accessUser},
	RouteCategories:     {"categories", accessUser},
	RouteProfile:        {"profile", accessUser},
	RouteAdminDashboard: {"admin", accessAdmin},
	RouteAdminUsers:     {"admin-users", accessAdmin},
	RouteAdminMessages:  {"admin-messages", accessAdmin},
	RouteHelp:           {"help", accessPublic},
	RouteAbout:          {"about", accessPublic},
}

func (r Route) String() string {
	if info, ok := routes[r]; ok {
		return info.name
	}
	return fmt.Sprintf("route(%d)", int(r))
}

func (r Route) RequiresAuth() bool {
	a := routes[r].access
	return a == accessUser || a == accessAdmin
}

func (r Route) RequiresAdmin() bool { return routes[r].access == accessAdmin }

func (r Route) AnonymousOnly() bool { return routes[r].access == accessAnonymous }

type Action int

const (
	// Wait means the session is still loading; show a neutral placeholder.
	Wait Action = iota
	Render
	Redirect
)

func (a Action) String() string {
	switch a {
	case Wait:
		return "wait"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

type Decision struct {
	Action Action
	// Target is set for Redirect.
	Target Route
}

// Check applies the authenticated guard (with or without the admin requirement) or the
// anonymous-only guard, depending on the route.
func Check(st session.State, r Route) Decision {
	if !r.RequiresAuth() && !r.AnonymousOnly() {
		return Decision{Action: Render}
	}
	if st.Loading() {
		return Decision{Action: Wait}
	}
	if r.AnonymousOnly() {
		if st.Authenticated() {
			return Decision{Action: Redirect, Target: Landing}
		}
		return Decision{Action: Render}
	}
	if !st.Authenticated() {
		return Decision{Action: Redirect, Target: RouteLogin}
	}
	if r.RequiresAdmin() && !st.IsAdmin() {
		return Decision{Action: Redirect, Target: Landing}
	}
	return Decision{Action: Render}
}

// DeniedError explains a redirect to a caller that cannot navigate (the CLI).
type DeniedError struct {
	Route    Route
	Decision Decision
}

func (e *DeniedError) Error() string {
	switch {
	case e.Decision.Action == Wait:
		return "session is still loading"
	case e.Decision.Target == RouteLogin:
		return "not logged in (run `taskdesk login`)"
	case e.Route.RequiresAdmin():
		return "admin privileges required"
	case e.Route.AnonymousOnly():
		return "already logged in (run `taskdesk logout` first)"
	}
	return fmt.Sprintf("cannot open %s", e.Route)
}

// Require returns a *DeniedError unless the route renders.
func Require(st session.State, r Route) error {
	d := Check(st, r)
	if d.Action == Render {
		return nil
	}
	return &DeniedError{Route: r, Decision: d}
}
