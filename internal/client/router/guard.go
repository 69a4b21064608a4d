package router

import (
	"context"
	"time"

	"github.com/dmitrijs2005/firestation/internal/logging"
	"github.com/dmitrijs2005/firestation/internal/tasks"
)

// DefaultCheckInterval is the throttle window of the guard's checks.
const DefaultCheckInterval = 10 * time.Second

// Session is the part of the session state the guard reads.
type Session interface {
	ServerUnreachable() bool
	Authenticated() bool
	VerifiedOnce() bool
}

// Checker performs a throttled server check.
type Checker interface {
	CheckConnection(ctx context.Context, interval time.Duration) bool
}

// Replacer performs a guarded replace navigation.
type Replacer interface {
	Replace(ctx context.Context, to string) (Location, error)
}

// Decision is the guard's verdict for one navigation. An empty Redirect
// allows the navigation.
type Decision struct {
	Redirect string
}

// Allowed reports whether the navigation may proceed.
func (d Decision) Allowed() bool {
	return d.Redirect == ""
}

func allow() Decision { return Decision{} }

func redirect(to string) Decision { return Decision{Redirect: to} }

// Guard decides whether a navigation may proceed.
type Guard struct {
	state    Session
	checker  Checker
	nav      Replacer
	runner   tasks.Runner
	interval time.Duration
	log      logging.Logger
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithRunner sets where background checks run.
func WithRunner(r tasks.Runner) GuardOption {
	return func(g *Guard) { g.runner = r }
}

// WithCheckInterval sets the throttle window passed to the checker.
func WithCheckInterval(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithGuardLogger sets the logger.
func WithGuardLogger(l logging.Logger) GuardOption {
	return func(g *Guard) { g.log = l }
}

// NewGuard returns a Guard. nav receives the redirects decided by
// background checks after the navigation that started them went through.
func NewGuard(state Session, checker Checker, nav Replacer, opts ...GuardOption) *Guard {
	g := &Guard{
		state:    state,
		checker:  checker,
		nav:      nav,
		runner:   tasks.NewGroup(),
		interval: DefaultCheckInterval,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = logging.OrDiscard(g.log).With("component", "guard")
	return g
}

// Check decides the navigation to to. It blocks on the server only the
// first time an authenticated view is entered; afterwards the check runs
// in the background and may redirect later.
func (g *Guard) Check(ctx context.Context, to Location) Decision {
	if g.state.ServerUnreachable() && to.Path != PathServerError {
		return redirect(PathServerError)
	}

	if to.Route.RequiresAuth {
		if !g.state.Authenticated() {
			return redirect(PathAuth)
		}

		if !g.state.VerifiedOnce() {
			if !g.checker.CheckConnection(ctx, g.interval) {
				return redirect(g.failureTarget())
			}
		} else {
			g.background(ctx, to)
		}
	}

	if to.Path == PathAuth && g.state.Authenticated() {
		return redirect(PathHome)
	}
	return allow()
}

func (g *Guard) failureTarget() string {
	if g.state.ServerUnreachable() {
		return PathServerError
	}
	return PathAuth
}

// background verifies without holding up the navigation. A failure
// redirects only when it changed the session: the server went down or
// the credential was rejected.
func (g *Guard) background(ctx context.Context, to Location) {
	ctx = context.WithoutCancel(ctx)
	g.runner.Go(func() {
		if g.checker.CheckConnection(ctx, g.interval) {
			return
		}

		var target string
		switch {
		case g.state.ServerUnreachable():
			target = PathServerError
		case !g.state.Authenticated():
			target = PathAuth
		default:
			g.log.Warn(ctx, "background check failed without a session change", "view", to.Path)
			return
		}

		g.log.Info(ctx, "background check failed", "view", to.Path, "redirect", target)
		if _, err := g.nav.Replace(ctx, target); err != nil {
			g.log.Error(ctx, "background redirect", "to", target, "error", err)
		}
	})
}
