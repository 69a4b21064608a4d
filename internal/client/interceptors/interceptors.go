// Package interceptors connects the API client to the session: every
// outgoing request carries the current credential, and every failed
// request is classified and fed back into the session state.
package interceptors

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/firestation/internal/client/client"
	"github.com/dmitrijs2005/firestation/internal/client/router"
	"github.com/dmitrijs2005/firestation/internal/common"
	"github.com/dmitrijs2005/firestation/internal/logging"
)

// Session is the part of the session state the interceptors touch.
type Session interface {
	Credential() string
	MarkServerUnreachable() bool
}

// Authenticator ends the session.
type Authenticator interface {
	Logout(ctx context.Context) error
}

// Navigator moves to a view without consulting the guard.
type Navigator interface {
	Force(to string) error
}

// Hooks is implemented by *client.HTTPClient.
type Hooks interface {
	UseRequest(client.RequestInterceptor)
	UseResponse(client.ResponseInterceptor)
}

// Layer holds the interceptor pair.
type Layer struct {
	state Session
	auth  Authenticator
	nav   Navigator
	log   logging.Logger
}

// New returns a Layer. log may be nil.
func New(state Session, auth Authenticator, nav Navigator, log logging.Logger) *Layer {
	return &Layer{
		state: state,
		auth:  auth,
		nav:   nav,
		log:   logging.OrDiscard(log).With("component", "interceptors"),
	}
}

// Install registers both interceptors on h.
func (l *Layer) Install(h Hooks) {
	h.UseRequest(l.AttachCredential)
	h.UseResponse(l.HandleFailure)
}

// AttachCredential sets the bearer header from the current credential,
// replacing whatever the request already carries. Without a credential
// the request is left alone.
func (l *Layer) AttachCredential(req *http.Request) error {
	if cred := l.state.Credential(); cred != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerValue(cred))
	}
	return nil
}

// HandleFailure reacts to a failed request and returns err unchanged.
//
//   - no response or 5xx: mark the server unreachable, show the error view;
//   - 401/403: log out, show the auth view;
//   - anything else: no state change.
func (l *Layer) HandleFailure(req *http.Request, resp *http.Response, err error) error {
	ctx := req.Context()

	switch {
	case errors.Is(err, context.Canceled):
		// the caller gave up; says nothing about the server

	case errors.Is(err, client.ErrUnavailable):
		l.log.Warn(ctx, "server unreachable", "method", req.Method, "path", req.URL.Path, "error", err)
		l.state.MarkServerUnreachable()
		l.force(ctx, router.PathServerError)

	case errors.Is(err, client.ErrUnauthorized):
		cred := l.state.Credential()
		if cred != "" && req.Header.Get(common.AuthorizationHeader) != common.BearerValue(cred) {
			l.log.Debug(ctx, "rejection for a replaced credential ignored", "path", req.URL.Path)
			return err
		}
		l.log.Warn(ctx, "credential rejected, logging out", "path", req.URL.Path)
		if lerr := l.auth.Logout(context.WithoutCancel(ctx)); lerr != nil {
			l.log.Error(ctx, "logout", "error", lerr)
		}
		l.force(ctx, router.PathAuth)
	}
	return err
}

func (l *Layer) force(ctx context.Context, to string) {
	if err := l.nav.Force(to); err != nil {
		l.log.Error(ctx, "forced navigation", "to", to, "error", err)
	}
}
