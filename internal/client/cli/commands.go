package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/firestation/internal/client/client"
	"github.com/dmitrijs2005/firestation/internal/client/router"
	"github.com/dmitrijs2005/firestation/internal/client/services"
	"github.com/dmitrijs2005/firestation/internal/common"
)

// readField and readSecret are swapped in tests.
var (
	readField  = ReadField
	readSecret = ReadSecret
)

// Login prompts for login and password and signs in. On success the user
// lands on the home view. The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		if p := a.state.Profile(); p != nil {
			a.say("Already logged in as %s.", p.Login)
		} else {
			a.say("Already logged in.")
		}
		return nil
	}

	login, err := readField(a.reader, "Login", a.out)
	if err != nil {
		a.loginInputError(err)
		return err
	}
	password, err := readSecret(a.reader, "Password", a.out)
	if err != nil {
		a.loginInputError(err)
		return err
	}
	defer common.WipeByteArray(password)

	err = a.authService.Login(ctx, login, string(password))
	switch {
	case err == nil:
	case errors.Is(err, client.ErrUnauthorized):
		a.say("Invalid login or password.")
		return err
	case errors.Is(err, client.ErrUnavailable):
		a.say("Server unavailable, try again later.")
		return err
	case errors.Is(err, services.ErrLoginRejected):
		a.say("Login was not accepted by the server.")
		return err
	default:
		a.say("Login failed: %v", err)
		return err
	}

	a.say("Login successful.")
	_, err = a.router.Push(ctx, router.PathHome)
	return err
}

func (a *App) loginInputError(err error) {
	if errors.Is(err, ErrEmptyInput) {
		a.say("Login and password are required.")
	}
}

// Logout ends the session and shows the auth view.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		a.log.Error(ctx, "logout", "error", err)
	}
	a.say("Logged out.")
	_, err := a.router.Push(ctx, router.PathAuth)
	return err
}

// Open navigates to path through the guard.
func (a *App) Open(ctx context.Context, path string) error {
	if _, err := a.router.Push(ctx, path); err != nil {
		a.say("Cannot open %s: %v", path, err)
		return err
	}
	return nil
}

// Retry re-checks the server after an outage and leaves the error view
// when it answers.
func (a *App) Retry(ctx context.Context) error {
	a.authService.Retry(ctx)
	if a.state.ServerUnreachable() {
		a.say("Server is still not responding.")
		return nil
	}
	_, err := a.router.Push(ctx, router.PathRoot)
	return err
}

// Status prints the session as the views see it.
func (a *App) Status(context.Context) error {
	s := a.authService.Snapshot()

	server := "reachable"
	if s.ServerUnreachable {
		server = "unreachable"
	}
	last := "never"
	if !s.LastVerifyAt.IsZero() {
		result := "failed"
		if s.LastVerifyOK {
			result = "ok"
		}
		last = s.LastVerifyAt.Format(time.RFC3339) + " (" + result + ")"
	}

	a.say("view:          %s", a.router.Current())
	a.say("authenticated: %t", s.Authenticated)
	a.say("server:        %s", server)
	a.say("last check:    %s", last)
	a.say("polling:       %t", s.Polling)
	return nil
}

// WhoAmI prints the current user.
func (a *App) WhoAmI(context.Context) error {
	p := a.state.Profile()
	if p == nil {
		a.say("Not logged in.")
		return nil
	}
	a.say("%s (id %s, role %s)", p.Login, p.ID, p.Role)
	return nil
}

// Routes prints the route table.
func (a *App) Routes(context.Context) error {
	for _, r := range router.Routes {
		var notes []string
		if r.RequiresAuth {
			notes = append(notes, "login required")
		}
		if r.Redirect != "" {
			notes = append(notes, "redirects to "+r.Redirect)
		}
		a.say("  %-14s %s", r.Path, strings.Join(notes, ", "))
	}
	return nil
}
