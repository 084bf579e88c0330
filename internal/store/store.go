// Package store holds the session state and the namespaced container it is
// registered in.
//
// Mutations never publish anything themselves.  Each one returns the
// lifecycle events it produced and the caller decides where they go.
package store

import (
	"fmt"
	"maps"
	"sync"

	"github.com/fragmede/sanctum/internal/events"
)

// Mutation names, as reported to container observers.
const (
	MutationSetUser                  = "setUser"
	MutationUpdateAuthenticatedState = "updateAuthenticatedState"
	MutationUpdateXSRFTokenState     = "updateXSRFTokenState"
	MutationClear                    = "clear"
)

// User is the opaque record of the authenticated principal.  An empty User
// means no user has been loaded.
type User map[string]any

// Clone returns a shallow copy of u that is never nil.
func (u User) Clone() (c User) {
	if u == nil {
		return User{}
	}

	return maps.Clone(u)
}

// IsEmpty returns true if u holds no fields.
func (u User) IsEmpty() (ok bool) {
	return len(u) == 0
}

// State is a copy of the session state at some point in time.
type State struct {
	User            User
	IsAuthenticated bool

	// HasXSRFToken is a cached view of the XSRF cookie presence.  It is only
	// accurate right after it has been recomputed.
	HasXSRFToken bool
}

// Module is the session state module.  Its zero value is not usable, use
// [NewModule].
type Module struct {
	mu    sync.RWMutex
	state State
}

// NewModule returns a module with an empty user and both flags unset.
func NewModule() (m *Module) {
	return &Module{
		state: State{User: User{}},
	}
}

// SetUser replaces the user.  It returns a [events.UserInitialized] when the
// previous user was empty and u is not.
func (m *Module) SetUser(u User) (evs []events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	initialize := m.state.User.IsEmpty() && !u.IsEmpty()
	m.state.User = u.Clone()
	if initialize {
		evs = append(evs, events.UserInitialized{User: u.Clone()})
	}

	return evs
}

// UpdateAuthenticatedState sets the authenticated flag.  Only setting it to
// true produces an event.
func (m *Module) UpdateAuthenticatedState(isAuthenticated bool) (evs []events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.IsAuthenticated = isAuthenticated
	if isAuthenticated {
		evs = append(evs, events.Authenticated{Value: true})
	}

	return evs
}

// UpdateXSRFTokenState sets the XSRF cookie presence flag.
func (m *Module) UpdateXSRFTokenState(hasToken bool) (evs []events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.HasXSRFToken = hasToken

	return nil
}

// Clear empties the user and always produces a [events.LoggedOut].
func (m *Module) Clear() (evs []events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.User = User{}

	return []events.Event{events.LoggedOut{}}
}

// User returns a copy of the current user.
func (m *Module) User() (u User) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.User.Clone()
}

// IsAuthenticated returns the authenticated flag.
func (m *Module) IsAuthenticated() (ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.IsAuthenticated
}

// HasXSRFToken returns the cached XSRF cookie presence flag.
func (m *Module) HasXSRFToken() (ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.HasXSRFToken
}

// Snapshot returns a copy of the whole state.
func (m *Module) Snapshot() (s State) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s = m.state
	s.User = m.state.User.Clone()

	return s
}

// DisplayName returns the first non-empty of the name, email, username and id
// fields, formatted as text.
func (u User) DisplayName() (name string) {
	for _, k := range []string{"name", "email", "username", "id"} {
		v, ok := u[k]
		if !ok || v == nil {
			continue
		}

		name = fmt.Sprint(v)
		if name != "" {
			return name
		}
	}

	return ""
}
