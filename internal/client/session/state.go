// Package session holds the process-wide session record: the credential,
// the user profile, server reachability and verification bookkeeping.
//
// A State is constructed once at startup and passed to every collaborator.
// All methods are safe for concurrent use. Each mutation is a short critical
// section; no lock is held across network calls, so results of concurrent
// verifications land in whatever order they complete.
package session

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/firestation/internal/client/models"
	"github.com/dmitrijs2005/firestation/internal/clock"
)

// State is the mutable session record.
type State struct {
	mu                sync.RWMutex
	credential        string
	profile           *models.UserProfile
	serverUnreachable bool
	lastVerifyAt      time.Time
	lastVerifyOK      bool
	verifiedOnce      bool
	poll              clock.Timer

	subMu     sync.Mutex
	nextSubID int
	subs      []subscription
}

type subscription struct {
	id int
	fn Listener
}

// Snapshot is a point-in-time copy of State for presentation.
type Snapshot struct {
	Authenticated     bool
	Profile           *models.UserProfile
	ServerUnreachable bool
	LastVerifyAt      time.Time
	LastVerifyOK      bool
	VerifiedOnce      bool
	Polling           bool
}

// New returns an empty, logged-out State.
func New() *State {
	return &State{}
}

// Credential returns the bearer credential, or "" when logged out.
func (s *State) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Authenticated reports whether a credential is present.
func (s *State) Authenticated() bool {
	return s.Credential() != ""
}

// Profile returns a copy of the user profile, or nil.
func (s *State) Profile() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// Set replaces credential and profile together. An empty credential
// always drops the profile.
func (s *State) Set(credential string, profile *models.UserProfile) {
	if credential == "" {
		profile = nil
	}

	s.mu.Lock()
	was := s.credential
	s.credential = credential
	s.profile = profile.Clone()
	s.mu.Unlock()

	switch {
	case credential == "" && was != "":
		s.emit(EventLoggedOut)
	case credential != "" && was != credential:
		s.emit(EventLoggedIn)
	case credential != "":
		s.emit(EventProfileUpdated)
	}
}

// Clear logs the session out. It reports whether a credential was present.
func (s *State) Clear() bool {
	s.mu.Lock()
	was := s.credential
	s.credential = ""
	s.profile = nil
	s.mu.Unlock()

	if was == "" {
		return false
	}
	s.emit(EventLoggedOut)
	return true
}

// ClearIf logs out only while credential is still the current one. A
// rejection that arrives after the user logged in again must not end the
// new session.
func (s *State) ClearIf(credential string) bool {
	s.mu.Lock()
	if s.credential == "" || s.credential != credential {
		s.mu.Unlock()
		return false
	}
	s.credential = ""
	s.profile = nil
	s.mu.Unlock()

	s.emit(EventLoggedOut)
	return true
}

// SetProfile replaces the profile. It is ignored, and reports false, when
// no credential is present.
func (s *State) SetProfile(profile *models.UserProfile) bool {
	s.mu.Lock()
	if s.credential == "" {
		s.mu.Unlock()
		return false
	}
	s.profile = profile.Clone()
	s.mu.Unlock()

	s.emit(EventProfileUpdated)
	return true
}

// SetProfileIf replaces the profile only while credential is current.
func (s *State) SetProfileIf(credential string, profile *models.UserProfile) bool {
	s.mu.Lock()
	if s.credential == "" || s.credential != credential {
		s.mu.Unlock()
		return false
	}
	s.profile = profile.Clone()
	s.mu.Unlock()

	s.emit(EventProfileUpdated)
	return true
}

// ServerUnreachable reports the sticky unreachable flag.
func (s *State) ServerUnreachable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverUnreachable
}

// MarkServerUnreachable sets the flag. It reports whether the flag flipped.
func (s *State) MarkServerUnreachable() bool {
	s.mu.Lock()
	flipped := !s.serverUnreachable
	s.serverUnreachable = true
	s.mu.Unlock()

	if flipped {
		s.emit(EventServerUnreachable)
	}
	return flipped
}

// ClearServerUnreachable resets the flag. It reports whether the flag
// flipped.
func (s *State) ClearServerUnreachable() bool {
	s.mu.Lock()
	flipped := s.serverUnreachable
	s.serverUnreachable = false
	s.mu.Unlock()

	if flipped {
		s.emit(EventServerRecovered)
	}
	return flipped
}

// RecordVerify stores the outcome of a completed check at time at and
// marks the session as verified at least once.
func (s *State) RecordVerify(at time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastVerifyAt = at
	s.lastVerifyOK = ok
	s.verifiedOnce = true
}

// Cached returns the last recorded result when it is younger than window.
// fresh is false when no result was recorded or it has aged out.
func (s *State) Cached(now time.Time, window time.Duration) (ok, fresh bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastVerifyAt.IsZero() || now.Sub(s.lastVerifyAt) >= window {
		return false, false
	}
	return s.lastVerifyOK, true
}

// InvalidateResult forgets a cached positive result without touching its
// timestamp.
func (s *State) InvalidateResult() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastVerifyOK = false
}

// ResetThrottle forgets when the last check happened so the next
// throttled check goes to the server.
func (s *State) ResetThrottle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastVerifyAt = time.Time{}
}

// VerifiedOnce reports whether any verification attempt was made.
func (s *State) VerifiedOnce() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verifiedOnce
}

// MarkVerified records that a verification attempt was made.
func (s *State) MarkVerified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifiedOnce = true
}

// ResetVerified makes the next guarded navigation wait for a check again.
func (s *State) ResetVerified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifiedOnce = false
}

// StartPolling installs the timer returned by start unless one is already
// active. start runs under the state lock and must not block or call back
// into State synchronously.
func (s *State) StartPolling(start func() clock.Timer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poll != nil {
		return false
	}
	s.poll = start()
	return true
}

// StopPolling stops and forgets the active timer. It reports whether one
// was active.
func (s *State) StopPolling() bool {
	s.mu.Lock()
	t := s.poll
	s.poll = nil
	s.mu.Unlock()

	if t == nil {
		return false
	}
	t.Stop()
	return true
}

// Polling reports whether a poll timer is active.
func (s *State) Polling() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.poll != nil
}

// Snapshot copies the presentation-relevant fields.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Authenticated:     s.credential != "",
		Profile:           s.profile.Clone(),
		ServerUnreachable: s.serverUnreachable,
		LastVerifyAt:      s.lastVerifyAt,
		LastVerifyOK:      s.lastVerifyOK,
		VerifiedOnce:      s.verifiedOnce,
		Polling:           s.poll != nil,
	}
}

// Subscribe registers fn for future events and returns a function that
// removes it. Listeners run in subscription order.
func (s *State) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *State) emit(e Event) {
	s.subMu.Lock()
	subs := append([]subscription(nil), s.subs...)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(e)
	}
}
