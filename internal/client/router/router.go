package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/firestation/internal/client/session"
	"github.com/dmitrijs2005/firestation/internal/logging"
)

// MaxRedirects bounds how many redirects one navigation may follow.
const MaxRedirects = 10

// ErrTooManyRedirects is returned when redirects do not settle.
var ErrTooManyRedirects = errors.New("too many redirects")

// ChangeListener is called after the current location changed.
type ChangeListener func(from, to Location)

// Router keeps the current location and its history. Push and Replace run
// the guard; Force does not.
type Router struct {
	guard *Guard
	log   logging.Logger

	mu        sync.Mutex
	current   Location
	history   []Location
	nextID    int
	listeners map[int]ChangeListener
	order     []int
}

// Option configures a Router.
type Option func(*routerOptions)

type routerOptions struct {
	guard []GuardOption
	log   logging.Logger
}

// WithGuardOptions passes options to the router's guard.
func WithGuardOptions(opts ...GuardOption) Option {
	return func(o *routerOptions) { o.guard = append(o.guard, opts...) }
}

// WithLogger sets the logger of the router and its guard.
func WithLogger(l logging.Logger) Option {
	return func(o *routerOptions) { o.log = l }
}

// New returns a Router with no current location. Navigate with Push to
// enter the first view.
func New(state Session, checker Checker, opts ...Option) *Router {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := &Router{
		log:       logging.OrDiscard(o.log).With("component", "router"),
		listeners: make(map[int]ChangeListener),
	}
	gopts := append([]GuardOption{WithGuardLogger(o.log)}, o.guard...)
	r.guard = NewGuard(state, checker, r, gopts...)
	return r
}

// Push navigates to to and adds it to the history.
func (r *Router) Push(ctx context.Context, to string) (Location, error) {
	loc, err := r.resolve(ctx, to, true)
	if err != nil {
		return Location{}, err
	}
	r.commit(loc, false)
	return loc, nil
}

// Replace navigates to to in place of the current history entry.
func (r *Router) Replace(ctx context.Context, to string) (Location, error) {
	loc, err := r.resolve(ctx, to, true)
	if err != nil {
		return Location{}, err
	}
	r.commit(loc, true)
	return loc, nil
}

// Force navigates to to without the guard. Static redirects of the route
// table still apply.
func (r *Router) Force(to string) error {
	loc, err := r.resolve(context.Background(), to, false)
	if err != nil {
		return err
	}
	r.commit(loc, false)
	return nil
}

func (r *Router) resolve(ctx context.Context, to string, guarded bool) (Location, error) {
	target := to
	for hop := 0; hop <= MaxRedirects; hop++ {
		loc, err := Parse(target)
		if err != nil {
			return Location{}, err
		}
		if loc.Route.Redirect != "" {
			target = loc.Route.Redirect
			continue
		}
		if !guarded {
			return loc, nil
		}

		d := r.guard.Check(ctx, loc)
		if d.Allowed() {
			return loc, nil
		}
		r.log.Debug(ctx, "guard redirect", "from", loc.Path, "to", d.Redirect)
		target = d.Redirect
	}
	return Location{}, fmt.Errorf("navigate to %q: %w", to, ErrTooManyRedirects)
}

func (r *Router) commit(loc Location, replace bool) {
	r.mu.Lock()
	from := r.current
	if from.Route.Path != "" && from.String() == loc.String() {
		r.mu.Unlock()
		return
	}
	r.current = loc
	if replace && len(r.history) > 0 {
		r.history[len(r.history)-1] = loc
	} else {
		r.history = append(r.history, loc)
	}
	listeners := make([]ChangeListener, 0, len(r.order))
	for _, id := range r.order {
		listeners = append(listeners, r.listeners[id])
	}
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(from, loc)
	}
}

// Current returns the current location. Its Path is empty before the
// first navigation.
func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns the visited locations, oldest first.
func (r *Router) History() []Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Location(nil), r.history...)
}

// OnChange registers fn and returns a function that removes it.
func (r *Router) OnChange(fn ChangeListener) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.listeners[id] = fn
	r.order = append(r.order, id)

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
		for i, v := range r.order {
			if v == id {
				r.order = append(r.order[:i:i], r.order[i+1:]...)
				break
			}
		}
	}
}

// WatchSession keeps the view coherent with the session: the error view
// when the server becomes unreachable, the auth view when the session ends
// on an authenticated view.
func (r *Router) WatchSession(s *session.State) (unsubscribe func()) {
	return s.Subscribe(func(e session.Event) {
		ctx := context.Background()
		cur := r.Current()

		var target string
		switch e {
		case session.EventServerUnreachable:
			if cur.Path == PathServerError {
				return
			}
			target = PathServerError
		case session.EventLoggedOut:
			if !cur.Route.RequiresAuth {
				return
			}
			target = PathAuth
		default:
			return
		}

		if _, err := r.Replace(ctx, target); err != nil {
			r.log.Error(ctx, "session watch redirect", "to", target, "error", err)
		}
	})
}
