// Package router resolves navigation between the client's views and runs
// the session guard before each transition.
package router

import (
	"fmt"
	"net/url"
	"strings"
)

// View paths.
const (
	PathRoot        = "/"
	PathAuth        = "/auth"
	PathFuelReport  = "/fuel-report"
	PathUIElements  = "/ui-elements"
	PathServerError = "/server-error"

	// PathHome is where an authenticated user lands.
	PathHome = PathFuelReport
)

// Auth view modes, passed as ?mode=.
const (
	ModeLogin  = "login"
	ModeSignup = "signup"
)

// Route describes one entry of the route table. A Route with Redirect set
// has no view of its own.
type Route struct {
	Path         string
	View         string
	RequiresAuth bool
	Redirect     string
}

// Routes is the route table in match order.
var Routes = []Route{
	{Path: PathRoot, Redirect: PathAuth},
	{Path: PathAuth, View: "auth"},
	{Path: PathFuelReport, View: "fuel-report", RequiresAuth: true},
	{Path: PathUIElements, View: "ui-elements", RequiresAuth: true},
	{Path: PathServerError, View: "server-error"},
}

// Match returns the route for path. Unknown paths get a catch-all route
// redirecting to the root.
func Match(path string) Route {
	for _, r := range Routes {
		if r.Path == path {
			return r
		}
	}
	return Route{Path: path, Redirect: PathRoot}
}

// Location is a resolved navigation target.
type Location struct {
	Path  string
	Query url.Values
	Route Route
}

// Parse normalizes raw ("/auth?mode=signup", "auth/", "") into a Location.
func Parse(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", raw, err)
	}

	p := u.Path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = PathRoot
		}
	}

	loc := Location{Path: p, Route: Match(p)}
	if q := u.Query(); len(q) > 0 {
		loc.Query = q
	}
	return loc, nil
}

// String renders the location back to path and query.
func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// View is the name of the view rendered at l.
func (l Location) View() string {
	return l.Route.View
}

// Mode is the auth view mode: ModeSignup when requested, else ModeLogin.
func (l Location) Mode() string {
	if l.Query.Get("mode") == ModeSignup {
		return ModeSignup
	}
	return ModeLogin
}
