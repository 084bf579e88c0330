package session

import "github.com/fragmede/sanctum/internal/store"

// Phase is the session phase derived from the state.  Requests in flight and
// failed attempts are not recorded, so only three phases can be observed.
type Phase int

const (
	PhaseAnonymous Phase = iota
	PhaseCSRFReady
	PhaseAuthenticated
)

// String implements the fmt.Stringer interface for Phase.
func (p Phase) String() (s string) {
	switch p {
	case PhaseAnonymous:
		return "anonymous"
	case PhaseCSRFReady:
		return "csrf_ready"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// PhaseOf derives the phase from a state snapshot.
func PhaseOf(s store.State) (p Phase) {
	switch {
	case s.IsAuthenticated && !s.User.IsEmpty():
		return PhaseAuthenticated
	case s.HasXSRFToken:
		return PhaseCSRFReady
	default:
		return PhaseAnonymous
	}
}

// Phase returns the current phase.
func (a *Actions) Phase() (p Phase) {
	return PhaseOf(a.state.Snapshot())
}
