package router

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/firestation/internal/client/session"
	"github.com/dmitrijs2005/firestation/internal/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChecker answers CheckConnection from a script. Each answer may
// mutate the session first, the way a real verification would.
type fakeChecker struct {
	mu        sync.Mutex
	answers   []func() bool
	calls     int
	intervals []time.Duration
}

func (f *fakeChecker) then(fn func() bool) *fakeChecker {
	f.answers = append(f.answers, fn)
	return f
}

func (f *fakeChecker) CheckConnection(_ context.Context, interval time.Duration) bool {
	f.mu.Lock()
	f.calls++
	f.intervals = append(f.intervals, interval)
	var fn func() bool
	if len(f.answers) > 0 {
		fn = f.answers[0]
		f.answers = f.answers[1:]
	}
	f.mu.Unlock()

	if fn == nil {
		return true
	}
	return fn()
}

func (f *fakeChecker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeReplacer struct {
	mu      sync.Mutex
	targets []string
}

func (f *fakeReplacer) Replace(_ context.Context, to string) (Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, to)
	return Parse(to)
}

func ok() bool { return true }

func loc(t *testing.T, raw string) Location {
	t.Helper()
	l, err := Parse(raw)
	require.NoError(t, err)
	return l
}

func newTestGuard(state *session.State, c Checker) (*Guard, *fakeReplacer, *tasks.Manual) {
	nav := &fakeReplacer{}
	runner := tasks.NewManual()
	return NewGuard(state, c, nav, WithRunner(runner)), nav, runner
}

func TestGuard_ServerUnreachableGoesToErrorView(t *testing.T) {
	state := session.New()
	state.MarkServerUnreachable()
	g, _, _ := newTestGuard(state, &fakeChecker{})

	assert.Equal(t, PathServerError, g.Check(context.Background(), loc(t, PathAuth)).Redirect)
	assert.Equal(t, PathServerError, g.Check(context.Background(), loc(t, PathFuelReport)).Redirect)
	assert.True(t, g.Check(context.Background(), loc(t, PathServerError)).Allowed())
}

func TestGuard_RequiresAuthWithoutCredential(t *testing.T) {
	c := &fakeChecker{}
	g, _, _ := newTestGuard(session.New(), c)

	assert.Equal(t, PathAuth, g.Check(context.Background(), loc(t, PathFuelReport)).Redirect)
	assert.Equal(t, PathAuth, g.Check(context.Background(), loc(t, PathUIElements)).Redirect)
	assert.Zero(t, c.Calls())
}

func TestGuard_FirstVisitBlocksOnCheck(t *testing.T) {
	state := session.New()
	state.Set("t", nil)
	c := (&fakeChecker{}).then(func() bool {
		state.RecordVerify(time.Now(), true)
		return true
	})
	g, _, runner := newTestGuard(state, c)

	d := g.Check(context.Background(), loc(t, PathFuelReport))

	assert.True(t, d.Allowed())
	assert.Equal(t, 1, c.Calls())
	assert.Zero(t, runner.Len())
	assert.True(t, state.VerifiedOnce())
	assert.Equal(t, []time.Duration{DefaultCheckInterval}, c.intervals)
}

func TestGuard_FirstVisitFailure(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		state := session.New()
		state.Set("t", nil)
		c := (&fakeChecker{}).then(func() bool {
			state.MarkServerUnreachable()
			return false
		})
		g, _, _ := newTestGuard(state, c)

		assert.Equal(t, PathServerError, g.Check(context.Background(), loc(t, PathFuelReport)).Redirect)
	})

	t.Run("rejected", func(t *testing.T) {
		state := session.New()
		state.Set("t", nil)
		c := (&fakeChecker{}).then(func() bool {
			state.Clear()
			return false
		})
		g, _, _ := newTestGuard(state, c)

		assert.Equal(t, PathAuth, g.Check(context.Background(), loc(t, PathFuelReport)).Redirect)
	})
}

func TestGuard_LaterVisitsCheckInBackground(t *testing.T) {
	state := session.New()
	state.Set("t", nil)
	state.MarkVerified()
	c := (&fakeChecker{}).then(func() bool {
		state.MarkServerUnreachable()
		return false
	})
	g, nav, runner := newTestGuard(state, c)

	d := g.Check(context.Background(), loc(t, PathFuelReport))
	require.True(t, d.Allowed())
	assert.Zero(t, c.Calls())
	require.Equal(t, 1, runner.Len())

	runner.RunAll()
	assert.Equal(t, []string{PathServerError}, nav.targets)
}

func TestGuard_BackgroundRejectionGoesToAuth(t *testing.T) {
	state := session.New()
	state.Set("t", nil)
	state.MarkVerified()
	c := (&fakeChecker{}).then(func() bool {
		state.Clear()
		return false
	})
	g, nav, runner := newTestGuard(state, c)

	g.Check(context.Background(), loc(t, PathUIElements))
	runner.RunAll()

	assert.Equal(t, []string{PathAuth}, nav.targets)
}

func TestGuard_BackgroundFailureWithoutSessionChangeStays(t *testing.T) {
	state := session.New()
	state.Set("t", nil)
	state.MarkVerified()
	c := (&fakeChecker{}).then(func() bool { return false })
	g, nav, runner := newTestGuard(state, c)

	g.Check(context.Background(), loc(t, PathFuelReport))
	runner.RunAll()

	assert.Empty(t, nav.targets)
}

func TestGuard_BackgroundSuccessStays(t *testing.T) {
	state := session.New()
	state.Set("t", nil)
	state.MarkVerified()
	g, nav, runner := newTestGuard(state, (&fakeChecker{}).then(ok))

	g.Check(context.Background(), loc(t, PathFuelReport))
	runner.RunAll()

	assert.Empty(t, nav.targets)
}

func TestGuard_BackgroundSurvivesCancelledNavigation(t *testing.T) {
	state := session.New()
	state.Set("t", nil)
	state.MarkVerified()
	var sawCancelled bool
	c := &fakeChecker{}
	g, _, runner := newTestGuard(state, checkerFunc(func(ctx context.Context, d time.Duration) bool {
		sawCancelled = ctx.Err() != nil
		return c.CheckConnection(ctx, d)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	g.Check(ctx, loc(t, PathFuelReport))
	cancel()
	runner.RunAll()

	assert.False(t, sawCancelled)
	assert.Equal(t, 1, c.Calls())
}

func TestGuard_AuthViewWithCredentialGoesHome(t *testing.T) {
	state := session.New()
	state.Set("t", nil)
	g, _, _ := newTestGuard(state, &fakeChecker{})

	assert.Equal(t, PathHome, g.Check(context.Background(), loc(t, PathAuth)).Redirect)
}

func TestGuard_AllowsPublicViews(t *testing.T) {
	g, _, _ := newTestGuard(session.New(), &fakeChecker{})

	assert.True(t, g.Check(context.Background(), loc(t, PathAuth)).Allowed())
	assert.True(t, g.Check(context.Background(), loc(t, PathServerError)).Allowed())
}

func TestGuard_CheckInterval(t *testing.T) {
	state := session.New()
	state.Set("t", nil)
	c := &fakeChecker{}
	g := NewGuard(state, c, &fakeReplacer{}, WithRunner(tasks.NewManual()), WithCheckInterval(time.Minute))

	g.Check(context.Background(), loc(t, PathFuelReport))
	assert.Equal(t, []time.Duration{time.Minute}, c.intervals)
}

type checkerFunc func(ctx context.Context, interval time.Duration) bool

func (f checkerFunc) CheckConnection(ctx context.Context, interval time.Duration) bool {
	return f(ctx, interval)
}
