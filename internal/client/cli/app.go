package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/firestation/internal/client/client"
	"github.com/dmitrijs2005/firestation/internal/client/config"
	"github.com/dmitrijs2005/firestation/internal/client/credentials"
	"github.com/dmitrijs2005/firestation/internal/client/interceptors"
	"github.com/dmitrijs2005/firestation/internal/client/router"
	"github.com/dmitrijs2005/firestation/internal/client/services"
	"github.com/dmitrijs2005/firestation/internal/client/session"
	"github.com/dmitrijs2005/firestation/internal/client/storage"
	"github.com/dmitrijs2005/firestation/internal/logging"
	"github.com/dmitrijs2005/firestation/internal/tasks"
)

type App struct {
	config      *config.Config
	log         logging.Logger
	db          *sql.DB
	api         *client.HTTPClient
	state       *session.State
	authService services.AuthService
	router      *router.Router
	tasks       *tasks.Group
	reader      *bufio.Reader

	outMu sync.Mutex
	out   io.Writer

	closeOnce sync.Once
}

// NewApp opens local storage and wires the session components. Nothing
// talks to the server until Bootstrap.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	log = logging.OrDiscard(log)

	db, err := storage.Open(ctx, c.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api, err := client.NewHTTPClient(c.ServerURL, client.WithLogger(log))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	state := session.New()
	as := services.NewAuthService(api, credentials.NewStore(db, api), state,
		services.WithLogger(log),
		services.WithVerifyTimeout(c.VerifyTimeout),
		services.WithPollInterval(c.VerifyInterval),
	)

	group := tasks.NewGroup()
	r := router.New(state, as,
		router.WithLogger(log),
		router.WithGuardOptions(router.WithRunner(group), router.WithCheckInterval(c.VerifyInterval)),
	)

	return &App{
		config:      c,
		log:         log,
		db:          db,
		api:         api,
		state:       state,
		authService: as,
		router:      r,
		tasks:       group,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

// Bootstrap restores the previous session, installs the interceptors,
// starts a background server check and performs the initial navigation.
func (a *App) Bootstrap(ctx context.Context) error {
	if err := a.authService.LoadFromStorage(ctx); err != nil {
		a.log.Warn(ctx, "session not restored", "error", err)
	}
	a.authService.FetchUser(ctx)

	interceptors.New(a.state, a.authService, a.router, a.log).Install(a.api)
	a.router.WatchSession(a.state)
	a.router.OnChange(a.render)

	bg := context.WithoutCancel(ctx)
	a.tasks.Go(func() { a.initialCheck(bg) })

	if _, err := a.router.Push(ctx, router.PathRoot); err != nil {
		return fmt.Errorf("initial navigation: %w", err)
	}
	return nil
}

func (a *App) initialCheck(ctx context.Context) {
	if a.authService.CheckConnection(ctx, a.config.VerifyInterval) {
		return
	}
	target := router.PathAuth
	if a.state.ServerUnreachable() {
		target = router.PathServerError
	}
	if _, err := a.router.Replace(ctx, target); err != nil {
		a.log.Error(ctx, "startup redirect", "to", target, "error", err)
	}
}

// Run bootstraps the session and blocks in the REPL until the user exits
// or input ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.say("Welcome to FireStation (type 'help' for commands)")
	if err := a.Bootstrap(ctx); err != nil {
		return err
	}
	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

// Close stops polling, waits for background checks and closes storage.
// It is safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.authService.StopPolling()
		a.tasks.Wait()
		if err := a.db.Close(); err != nil {
			a.log.Error(context.Background(), "close database", "error", err)
		}
	})
}

func (a *App) isLoggedIn() bool {
	return a.state.Authenticated()
}

func (a *App) getStatus() string {
	s := ""
	if p := a.state.Profile(); p != nil {
		s = p.Login + " "
	}
	if v := a.router.Current().View(); v != "" {
		s += v
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// say writes one line of user-facing output. Background navigation may
// print concurrently with the REPL.
func (a *App) say(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *App) render(_, to router.Location) {
	switch to.Path {
	case router.PathServerError:
		a.say("Server is not responding. Type 'retry' to check again.")
	case router.PathAuth:
		if to.Mode() == router.ModeSignup {
			a.say("Sign-up is done in the web interface. Type 'login' to sign in.")
		} else {
			a.say("Please log in (type 'login').")
		}
	default:
		a.say("Opened %s.", to.View())
	}
}
