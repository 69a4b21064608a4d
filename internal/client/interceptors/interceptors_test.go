package interceptors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/firestation/internal/client/apitest"
	"github.com/dmitrijs2005/firestation/internal/client/client"
	"github.com/dmitrijs2005/firestation/internal/client/credentials"
	"github.com/dmitrijs2005/firestation/internal/client/models"
	"github.com/dmitrijs2005/firestation/internal/client/router"
	"github.com/dmitrijs2005/firestation/internal/client/services"
	"github.com/dmitrijs2005/firestation/internal/client/session"
	"github.com/dmitrijs2005/firestation/internal/client/storage"
	"github.com/dmitrijs2005/firestation/internal/clock"
	"github.com/dmitrijs2005/firestation/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var member = models.UserProfile{ID: "1", Login: "a", Role: "member"}

// ---- fakes ----

type fakeAuth struct {
	state *session.State
	calls int
	err   error
}

func (f *fakeAuth) Logout(context.Context) error {
	f.calls++
	f.state.Clear()
	return f.err
}

type fakeNav struct {
	forced []string
	err    error
}

func (f *fakeNav) Force(to string) error {
	f.forced = append(f.forced, to)
	return f.err
}

type fixture struct {
	api   *apitest.Server
	http  *client.HTTPClient
	state *session.State
	auth  *fakeAuth
	nav   *fakeNav
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{api: apitest.New(t), state: session.New(), nav: &fakeNav{}}
	f.auth = &fakeAuth{state: f.state}

	var err error
	f.http, err = client.NewHTTPClient(f.api.BaseURL(), client.WithHTTPClient(f.api.HTTPClient()))
	require.NoError(t, err)
	New(f.state, f.auth, f.nav, nil).Install(f.http)
	return f
}

func (f *fixture) status(code int) {
	f.api.Handle("GET /api/reports/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	})
}

// ---- request hook ----

func TestAttachCredential_Overrides(t *testing.T) {
	state := session.New()
	state.Set("fresh", nil)
	l := New(state, &fakeAuth{state: state}, &fakeNav{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/", nil)
	req.Header.Set("Authorization", "Bearer stale")
	require.NoError(t, l.AttachCredential(req))

	assert.Equal(t, "Bearer fresh", req.Header.Get("Authorization"))
}

func TestAttachCredential_NoCredential(t *testing.T) {
	state := session.New()
	l := New(state, &fakeAuth{state: state}, &fakeNav{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/", nil)
	req.Header.Set("Authorization", "Bearer caller")
	require.NoError(t, l.AttachCredential(req))

	assert.Equal(t, "Bearer caller", req.Header.Get("Authorization"))
}

func TestAttachCredential_OnTheWire(t *testing.T) {
	f := newFixture(t)
	f.status(http.StatusOK)
	f.state.Set("x.y.z", nil)

	require.NoError(t, f.http.Do(context.Background(), http.MethodGet, "/reports/", nil, nil))
	assert.Equal(t, "Bearer x.y.z", f.api.LastAuthorization())
}

// ---- failure hook ----

func TestHandleFailure_NoResponse(t *testing.T) {
	f := newFixture(t)
	f.state.Set("x.y.z", nil)
	f.api.SetDown(true)

	err := f.http.Do(context.Background(), http.MethodGet, "/reports/", nil, nil)

	require.ErrorIs(t, err, client.ErrNoResponse)
	assert.True(t, f.state.ServerUnreachable())
	assert.True(t, f.state.Authenticated())
	assert.Equal(t, []string{router.PathServerError}, f.nav.forced)
	assert.Zero(t, f.auth.calls)
}

func TestHandleFailure_ServerError(t *testing.T) {
	for _, code := range []int{500, 503, 504} {
		f := newFixture(t)
		f.status(code)

		err := f.http.Do(context.Background(), http.MethodGet, "/reports/", nil, nil)

		require.ErrorIs(t, err, client.ErrUnavailable)
		assert.True(t, f.state.ServerUnreachable(), "status %d", code)
		assert.Equal(t, []string{router.PathServerError}, f.nav.forced)
	}
}

func TestHandleFailure_Rejected(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		f := newFixture(t)
		f.state.Set("x.y.z", &member)
		f.status(code)

		err := f.http.Do(context.Background(), http.MethodGet, "/reports/", nil, nil)

		require.ErrorIs(t, err, client.ErrUnauthorized)
		assert.Equal(t, 1, f.auth.calls)
		assert.False(t, f.state.Authenticated())
		assert.Nil(t, f.state.Profile())
		assert.False(t, f.state.ServerUnreachable())
		assert.Equal(t, []string{router.PathAuth}, f.nav.forced)
	}
}

func TestHandleFailure_OtherStatusPropagates(t *testing.T) {
	f := newFixture(t)
	f.state.Set("x.y.z", nil)
	f.status(http.StatusNotFound)

	err := f.http.Do(context.Background(), http.MethodGet, "/reports/", nil, nil)

	code, ok := client.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, code)
	assert.True(t, f.state.Authenticated())
	assert.False(t, f.state.ServerUnreachable())
	assert.Empty(t, f.nav.forced)
}

func TestHandleFailure_StaleRejectionIgnored(t *testing.T) {
	state := session.New()
	state.Set("new", nil)
	auth := &fakeAuth{state: state}
	nav := &fakeNav{}
	l := New(state, auth, nav, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/", nil)
	req.Header.Set("Authorization", "Bearer old")
	in := &client.StatusError{StatusCode: http.StatusUnauthorized}

	assert.Same(t, in, l.HandleFailure(req, nil, in))
	assert.Zero(t, auth.calls)
	assert.True(t, state.Authenticated())
	assert.Empty(t, nav.forced)
}

func TestHandleFailure_Cancelled(t *testing.T) {
	state := session.New()
	nav := &fakeNav{}
	l := New(state, &fakeAuth{state: state}, nav, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/", nil)
	in := errors.Join(client.ErrNoResponse, context.Canceled)

	assert.Same(t, in, l.HandleFailure(req, nil, in))
	assert.False(t, state.ServerUnreachable())
	assert.Empty(t, nav.forced)
}

func TestHandleFailure_SideEffectErrorsDoNotMaskFailure(t *testing.T) {
	state := session.New()
	auth := &fakeAuth{state: state, err: errors.New("disk full")}
	nav := &fakeNav{err: errors.New("bad target")}
	l := New(state, auth, nav, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/", nil)
	in := &client.StatusError{StatusCode: http.StatusForbidden}

	assert.Same(t, in, l.HandleFailure(req, nil, in))
	assert.Equal(t, 1, auth.calls)
}

// ---- whole stack ----

type stack struct {
	api    *apitest.Server
	http   *client.HTTPClient
	state  *session.State
	svc    services.AuthService
	router *router.Router
	runner *tasks.Manual
}

func newStack(t *testing.T) *stack {
	t.Helper()
	s := &stack{api: apitest.New(t), state: session.New(), runner: tasks.NewManual()}
	s.api.AddUser("a", "b", member)

	var err error
	s.http, err = client.NewHTTPClient(s.api.BaseURL(), client.WithHTTPClient(s.api.HTTPClient()))
	require.NoError(t, err)

	db, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s.svc = services.NewAuthService(s.http, credentials.NewStore(db, s.http), s.state,
		services.WithClock(clock.Fake(time.Now())))
	s.router = router.New(s.state, s.svc, router.WithGuardOptions(router.WithRunner(s.runner)))
	New(s.state, s.svc, s.router, nil).Install(s.http)
	s.router.WatchSession(s.state)
	return s
}

func TestScenario_TimeoutThenVerifyStaysOffline(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	require.NoError(t, s.svc.Login(ctx, "a", "b"))
	_, err := s.router.Push(ctx, router.PathFuelReport)
	require.NoError(t, err)
	before := s.api.MeCalls()

	s.api.Handle("GET /api/reports/", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	rctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err = s.http.Do(rctx, http.MethodGet, "/reports/", nil, nil)

	require.ErrorIs(t, err, client.ErrNoResponse)
	assert.True(t, s.state.ServerUnreachable())
	assert.Equal(t, router.PathServerError, s.router.Current().Path)

	assert.False(t, s.svc.Verify(ctx))
	assert.Equal(t, before, s.api.MeCalls())
}

func TestScenario_RejectedRequestLogsOut(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	require.NoError(t, s.svc.Login(ctx, "a", "b"))
	_, err := s.router.Push(ctx, router.PathFuelReport)
	require.NoError(t, err)

	s.api.Handle("GET /api/reports/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	err = s.http.Do(ctx, http.MethodGet, "/reports/", nil, nil)

	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, s.state.Authenticated())
	assert.Nil(t, s.state.Profile())
	assert.False(t, s.state.ServerUnreachable())
	assert.False(t, s.state.Polling())
	assert.Equal(t, router.PathAuth, s.router.Current().Path)
}

func TestScenario_FirstGuardedVisitVerifies(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	require.NoError(t, s.svc.Login(ctx, "a", "b"))
	require.False(t, s.state.VerifiedOnce())

	got, err := s.router.Push(ctx, router.PathFuelReport)
	require.NoError(t, err)

	assert.Equal(t, router.PathFuelReport, got.Path)
	assert.True(t, s.state.VerifiedOnce())
	assert.Equal(t, 1, s.api.MeCalls())

	// the next guarded visit checks in the background
	_, err = s.router.Push(ctx, router.PathUIElements)
	require.NoError(t, err)
	assert.Equal(t, 1, s.runner.Len())
}

func TestScenario_RetryRecovers(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	require.NoError(t, s.svc.Login(ctx, "a", "b"))
	s.api.SetDown(true)
	require.False(t, s.svc.Verify(ctx))
	require.True(t, s.state.ServerUnreachable())
	assert.Equal(t, router.PathServerError, s.router.Current().Path)

	s.api.SetDown(false)
	promoted := models.UserProfile{ID: "1", Login: "a", Role: "admin"}
	s.api.AddUser("a", "b", promoted)

	require.True(t, s.svc.Retry(ctx))
	assert.False(t, s.state.ServerUnreachable())
	assert.Equal(t, &promoted, s.state.Profile())

	_, err := s.router.Push(ctx, router.PathFuelReport)
	require.NoError(t, err)
	assert.Equal(t, router.PathFuelReport, s.router.Current().Path)
}
