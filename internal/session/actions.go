// Package session implements the login, logout and auto-login flows on top of
// the session service and the state module.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/fragmede/sanctum/internal/api"
	"github.com/fragmede/sanctum/internal/auth"
	"github.com/fragmede/sanctum/internal/events"
	"github.com/fragmede/sanctum/internal/store"
)

const (
	// ErrNoXSRFToken is returned by [Actions.TryAutoLogin] when there is no
	// CSRF cookie and so no session to restore.  No request is made.
	ErrNoXSRFToken errors.Error = "no xsrf token"

	// ErrEmptyUser is returned by [Actions.FetchUser] when the server
	// answers with an empty user record.
	ErrEmptyUser errors.Error = "empty user record"
)

// Transport is the subset of [auth.Service] used by the flows.
type Transport interface {
	Login(ctx context.Context, credentials any) (resp *api.Response, err error)
	Logout(ctx context.Context) (resp *api.Response, err error)
	Me(ctx context.Context) (resp *api.Response, err error)
	HasXSRFToken() (ok bool)
}

// type check
var _ Transport = (*auth.Service)(nil)

// Config is the configuration of [Actions].
type Config struct {
	// Transport performs the requests.  It must not be nil.
	Transport Transport

	// State is the state module.  It must not be nil.
	State *store.Module

	// Bus receives the events produced by mutations.  It must not be nil.
	Bus *events.Bus

	// Container, if not nil, is notified after each mutation under
	// ModuleName.
	Container *store.Container

	// ModuleName is the name State is registered under in Container.
	ModuleName string
}

// Actions runs the session flows.  It does not serialize concurrent calls:
// two parallel logins race and the last write to the state wins.
type Actions struct {
	transport  Transport
	state      *store.Module
	bus        *events.Bus
	container  *store.Container
	moduleName string
}

// New returns new session actions.  conf must not be nil.
func New(conf *Config) (a *Actions) {
	return &Actions{
		transport:  conf.Transport,
		state:      conf.State,
		bus:        conf.Bus,
		container:  conf.Container,
		moduleName: conf.ModuleName,
	}
}

// commit reports a mutation that has been applied to the state and publishes
// the events it returned.
func (a *Actions) commit(mutation string, evs []events.Event) {
	if a.container != nil {
		a.container.Notify(a.moduleName, mutation)
	}

	a.bus.Publish(evs...)
}

// Login logs in with credentials, which are sent as is, and then loads the
// user.  It returns the data of the login response.  If the login request
// fails, the error is returned unchanged and the state is not touched.  If
// only loading the user fails, the login data is returned together with that
// error.
func (a *Actions) Login(ctx context.Context, credentials any) (data json.RawMessage, err error) {
	resp, err := a.transport.Login(ctx, credentials)
	if err != nil {
		return nil, err
	}

	a.RefreshXSRFTokenState()

	_, err = a.FetchUser(ctx)

	return resp.Data, err
}

// FetchUser requests the current user and marks the state authenticated.  On
// failure the state is left as is.
func (a *Actions) FetchUser(ctx context.Context) (u store.User, err error) {
	resp, err := a.transport.Me(ctx)
	if err != nil {
		return nil, err
	}

	err = resp.Decode(&u)
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	} else if u.IsEmpty() {
		return nil, ErrEmptyUser
	}

	a.commit(store.MutationSetUser, a.state.SetUser(u))
	a.commit(store.MutationUpdateAuthenticatedState, a.state.UpdateAuthenticatedState(true))

	return u, nil
}

// Logout logs out and returns the logout result unchanged.  The state is
// cleared whatever the result.
func (a *Actions) Logout(ctx context.Context) (resp *api.Response, err error) {
	defer a.Clear()

	return a.transport.Logout(ctx)
}

// TryAutoLogin restores the session from an existing CSRF cookie.  Without
// the cookie it returns [ErrNoXSRFToken] right away.  If loading the user
// fails, the state is cleared and the error is returned unchanged.
func (a *Actions) TryAutoLogin(ctx context.Context) (u store.User, err error) {
	if !a.state.HasXSRFToken() {
		return nil, ErrNoXSRFToken
	}

	u, err = a.FetchUser(ctx)
	if err != nil {
		a.Clear()

		return nil, err
	}

	return u, nil
}

// RefreshXSRFTokenState recomputes the cached CSRF cookie flag from the
// cookies.
func (a *Actions) RefreshXSRFTokenState() {
	a.commit(store.MutationUpdateXSRFTokenState, a.state.UpdateXSRFTokenState(a.transport.HasXSRFToken()))
}

// Clear resets the state to anonymous.  Every call emits
// [events.LoggedOut].
func (a *Actions) Clear() {
	a.commit(store.MutationUpdateXSRFTokenState, a.state.UpdateXSRFTokenState(false))
	a.commit(store.MutationUpdateAuthenticatedState, a.state.UpdateAuthenticatedState(false))
	a.commit(store.MutationClear, a.state.Clear())
}

// User returns the current user.
func (a *Actions) User() (u store.User) { return a.state.User() }

// IsAuthenticated returns the authenticated flag.
func (a *Actions) IsAuthenticated() (ok bool) { return a.state.IsAuthenticated() }

// HasXSRFToken returns the cached CSRF cookie flag.
func (a *Actions) HasXSRFToken() (ok bool) { return a.state.HasXSRFToken() }
