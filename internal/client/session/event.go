package session

// Event is a change of session state that listeners may react to.
type Event int

const (
	// EventLoggedIn fires when a credential becomes present.
	EventLoggedIn Event = iota + 1
	// EventLoggedOut fires when the credential is cleared.
	EventLoggedOut
	// EventServerUnreachable fires when the unreachable flag flips on.
	EventServerUnreachable
	// EventServerRecovered fires when the unreachable flag is cleared.
	EventServerRecovered
	// EventProfileUpdated fires when the profile changes under the same
	// credential.
	EventProfileUpdated
)

func (e Event) String() string {
	switch e {
	case EventLoggedIn:
		return "logged-in"
	case EventLoggedOut:
		return "logged-out"
	case EventServerUnreachable:
		return "server-unreachable"
	case EventServerRecovered:
		return "server-recovered"
	case EventProfileUpdated:
		return "profile-updated"
	default:
		return "unknown"
	}
}

// Listener receives session events. It runs on the goroutine that caused
// the change, after the state lock has been released, so it may read the
// state freely.
type Listener func(Event)
