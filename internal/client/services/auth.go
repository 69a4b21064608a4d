// Package services contains application services for the FireStation client.
// This file defines the authentication service: login, logout, restoring a
// session from local storage, and the verification protocol that mirrors
// server-side session validity into the local session state.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/firestation/internal/client/client"
	"github.com/dmitrijs2005/firestation/internal/client/models"
	"github.com/dmitrijs2005/firestation/internal/client/session"
	"github.com/dmitrijs2005/firestation/internal/client/token"
	"github.com/dmitrijs2005/firestation/internal/clock"
	"github.com/dmitrijs2005/firestation/internal/logging"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultPollInterval  = 10 * time.Second
	DefaultVerifyTimeout = 5 * time.Second
)

// ErrLoginRejected is returned when the server answers a login without an
// access token.
var ErrLoginRejected = errors.New("login rejected: no access token issued")

// CredentialStore persists the session between runs.
type CredentialStore interface {
	Set(ctx context.Context, credential string, profile *models.UserProfile) error
	SetProfile(ctx context.Context, profile *models.UserProfile) error
	Load(ctx context.Context) (string, *models.UserProfile, error)
}

// AuthService defines session operations for the client.
//
// Contract:
//   - Login: exchange login/password for a credential and start polling.
//   - Logout: drop credential and profile everywhere and stop polling.
//   - LoadFromStorage / FetchUser: restore the previous session and check it
//     locally, without network access.
//   - Verify: authoritative server check; never returns an error.
//   - CheckConnection: Verify throttled to one call per interval.
//   - StartPolling / StopPolling: periodic CheckConnection.
//   - Retry: clear the unreachable flag and verify again.
type AuthService interface {
	Login(ctx context.Context, login, password string) error
	Logout(ctx context.Context) error
	LoadFromStorage(ctx context.Context) error
	FetchUser(ctx context.Context) *models.UserProfile
	Verify(ctx context.Context) bool
	CheckConnection(ctx context.Context, interval time.Duration) bool
	StartPolling(interval time.Duration)
	StopPolling()
	Retry(ctx context.Context) bool
	Snapshot() session.Snapshot
}

// Option configures the AuthService.
type Option func(*authService)

// WithClock replaces the real clock.
func WithClock(c clock.Clock) Option {
	return func(a *authService) { a.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(a *authService) { a.log = l }
}

// WithVerifyTimeout bounds each /auth/me/ round trip.
func WithVerifyTimeout(d time.Duration) Option {
	return func(a *authService) {
		if d > 0 {
			a.verifyTimeout = d
		}
	}
}

// WithPollInterval sets the interval used by StartPolling(0).
func WithPollInterval(d time.Duration) Option {
	return func(a *authService) {
		if d > 0 {
			a.pollInterval = d
		}
	}
}

// authService is the concrete AuthService backed by a remote Client, a
// persistent CredentialStore and the shared session State.
type authService struct {
	client client.Client
	store  CredentialStore
	state  *session.State
	clock  clock.Clock
	log    logging.Logger

	verifyTimeout time.Duration
	pollInterval  time.Duration

	flight singleflight.Group
}

// NewAuthService constructs an AuthService bound to the given API client,
// credential store and session state.
func NewAuthService(c client.Client, store CredentialStore, state *session.State, opts ...Option) AuthService {
	a := &authService{
		client:        c,
		store:         store,
		state:         state,
		clock:         clock.Real(),
		verifyTimeout: DefaultVerifyTimeout,
		pollInterval:  DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = logging.OrDiscard(a.log).With("component", "auth")
	return a
}

// Login authenticates against the server, stores the credential and
// profile, and starts polling.
func (a *authService) Login(ctx context.Context, login, password string) error {
	resp, err := a.client.Login(ctx, login, password)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	if resp.Access == "" {
		return ErrLoginRejected
	}

	a.state.Set(resp.Access, resp.User)
	a.state.ResetThrottle()
	if err := a.store.Set(ctx, resp.Access, resp.User); err != nil {
		a.log.Error(ctx, "persist session", "error", err)
	}
	a.StartPolling(0)

	a.log.Info(ctx, "logged in", "login", login)
	return nil
}

// Logout clears the session. State is always cleared; the returned error
// only reports a failure to clear local storage.
func (a *authService) Logout(ctx context.Context) error {
	a.state.Clear()
	a.StopPolling()
	if err := a.store.Set(ctx, "", nil); err != nil {
		return fmt.Errorf("clear stored session: %w", err)
	}
	return nil
}

// endSession logs out on behalf of a check. The caller has no error to
// return, so a storage failure is only logged.
func (a *authService) endSession(ctx context.Context) {
	if err := a.Logout(ctx); err != nil {
		a.log.Error(ctx, "logout", "error", err)
	}
}

// logoutIf ends the session only if credential is still the current one.
func (a *authService) logoutIf(ctx context.Context, credential string) {
	if !a.state.ClearIf(credential) {
		return
	}
	a.StopPolling()
	if err := a.store.Set(ctx, "", nil); err != nil {
		a.log.Error(ctx, "clear stored session", "error", err)
	}
}

// LoadFromStorage restores the credential and profile saved by a previous
// run and resumes polling when a credential was found.
func (a *authService) LoadFromStorage(ctx context.Context) error {
	credential, profile, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load stored session: %w", err)
	}
	if credential == "" {
		return nil
	}

	a.state.Set(credential, profile)
	if err := a.store.Set(ctx, credential, profile); err != nil {
		a.log.Warn(ctx, "rewrite stored session", "error", err)
	}
	a.StartPolling(0)

	a.log.Debug(ctx, "session restored", "profile", profile != nil)
	return nil
}

// FetchUser checks the credential locally. A missing, undecodable or
// expired credential ends the session. Otherwise it returns the cached
// profile, building one from the token claims when none is cached.
func (a *authService) FetchUser(ctx context.Context) *models.UserProfile {
	credential := a.state.Credential()
	if credential == "" {
		a.endSession(ctx)
		return nil
	}

	claims, ok := token.Decode(credential)
	if !ok || claims.Expired(a.clock.Now()) {
		a.log.Info(ctx, "stored credential is invalid or expired")
		a.endSession(ctx)
		return nil
	}

	if p := a.state.Profile(); p != nil {
		return p
	}
	p := claims.Profile()
	a.state.SetProfileIf(credential, p)
	return p
}

// Verify asks the server whether the credential is still valid.
func (a *authService) Verify(ctx context.Context) bool {
	if a.state.ServerUnreachable() {
		a.state.InvalidateResult()
		a.log.Debug(ctx, "verify skipped: server marked unreachable")
		return false
	}

	a.state.MarkVerified()

	credential := a.state.Credential()
	if credential == "" {
		a.endSession(ctx)
		return false
	}

	rctx, cancel := context.WithTimeout(ctx, a.verifyTimeout)
	defer cancel()

	profile, err := a.client.Me(rctx, credential)
	switch {
	case err == nil:
		if !profile.Valid() {
			a.log.Warn(ctx, "verify: profile without id")
			return false
		}
		if a.state.SetProfileIf(credential, profile) {
			if err := a.store.SetProfile(ctx, profile); err != nil {
				a.log.Warn(ctx, "persist profile", "error", err)
			}
		}
		return true

	case errors.Is(err, context.Canceled):
		return false

	case errors.Is(err, client.ErrUnavailable):
		a.log.Warn(ctx, "verify: server unreachable", "error", err)
		a.state.MarkServerUnreachable()
		return false

	case errors.Is(err, client.ErrUnauthorized):
		a.log.Info(ctx, "verify: credential rejected")
		a.logoutIf(ctx, credential)
		return false

	default:
		a.log.Warn(ctx, "verify: unexpected failure", "error", err)
		return false
	}
}

// CheckConnection returns the cached result when the last check is younger
// than interval and verifies otherwise. Concurrent misses share one Verify.
func (a *authService) CheckConnection(ctx context.Context, interval time.Duration) bool {
	if interval <= 0 {
		interval = a.pollInterval
	}
	if ok, fresh := a.state.Cached(a.clock.Now(), interval); fresh {
		a.log.Debug(ctx, "check connection: cached", "ok", ok)
		return ok
	}

	v, _, _ := a.flight.Do("verify", func() (any, error) {
		ok := a.Verify(context.WithoutCancel(ctx))
		a.state.RecordVerify(a.clock.Now(), ok)
		return ok, nil
	})
	return v.(bool)
}

// StartPolling runs CheckConnection every interval (the configured default
// when interval <= 0). It is a no-op while polling is active.
func (a *authService) StartPolling(interval time.Duration) {
	if interval <= 0 {
		interval = a.pollInterval
	}
	started := a.state.StartPolling(func() clock.Timer {
		return a.clock.Every(interval, func() {
			a.CheckConnection(context.Background(), interval)
		})
	})
	if started {
		a.log.Debug(context.Background(), "polling started", "interval", interval)
	}
}

func (a *authService) StopPolling() {
	if a.state.StopPolling() {
		a.log.Debug(context.Background(), "polling stopped")
	}
}

// Retry clears the unreachable flag and the throttle, then verifies.
func (a *authService) Retry(ctx context.Context) bool {
	a.state.ClearServerUnreachable()
	a.state.ResetThrottle()
	a.state.ResetVerified()
	return a.Verify(ctx)
}

func (a *authService) Snapshot() session.Snapshot {
	return a.state.Snapshot()
}
