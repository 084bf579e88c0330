package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/fragmede/sanctum/internal/api"
	"github.com/fragmede/sanctum/internal/events"
	"github.com/fragmede/sanctum/internal/session"
	"github.com/fragmede/sanctum/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTimeout is the common timeout for tests.
const testTimeout = 1 * time.Second

const errNetwork errors.Error = "network"

// fakeTransport is a [session.Transport] for tests.  It counts the requests
// it receives.
type fakeTransport struct {
	onLogin  func(credentials any) (resp *api.Response, err error)
	onLogout func() (resp *api.Response, err error)
	onMe     func() (resp *api.Response, err error)

	// hasToken is returned by HasXSRFToken and cleared by Logout.
	hasToken bool

	requests int
}

// type check
var _ session.Transport = (*fakeTransport)(nil)

// Login implements the [session.Transport] interface for *fakeTransport.
func (f *fakeTransport) Login(_ context.Context, credentials any) (resp *api.Response, err error) {
	f.requests++

	return f.onLogin(credentials)
}

// Logout implements the [session.Transport] interface for *fakeTransport.
func (f *fakeTransport) Logout(_ context.Context) (resp *api.Response, err error) {
	f.requests++
	defer func() { f.hasToken = false }()

	return f.onLogout()
}

// Me implements the [session.Transport] interface for *fakeTransport.
func (f *fakeTransport) Me(_ context.Context) (resp *api.Response, err error) {
	f.requests++

	return f.onMe()
}

// HasXSRFToken implements the [session.Transport] interface for
// *fakeTransport.
func (f *fakeTransport) HasXSRFToken() (ok bool) {
	return f.hasToken
}

func jsonResponse(data string) (resp *api.Response) {
	return &api.Response{StatusCode: http.StatusOK, Data: json.RawMessage(data)}
}

func failing() (resp *api.Response, err error) {
	return nil, errNetwork
}

func unexpected() (resp *api.Response, err error) {
	panic(testutil.UnexpectedCall())
}

// env is a set of actions with its state and recorded events.
type env struct {
	transport *fakeTransport
	state     *store.Module
	container *store.Container
	actions   *session.Actions
	events    *[]string
	mutations *[]string
}

func newEnv(t *testing.T, tr *fakeTransport) (e env) {
	t.Helper()

	state := store.NewModule()
	container := store.NewContainer()
	require.NoError(t, container.RegisterModule("sanctum", state))

	var evs, muts []string
	bus := events.NewBus()
	bus.Subscribe(func(e events.Event) { evs = append(evs, e.Name()) })
	container.Subscribe(func(_, mutation string, _ store.State) { muts = append(muts, mutation) })

	return env{
		transport: tr,
		state:     state,
		container: container,
		actions: session.New(&session.Config{
			Transport:  tr,
			State:      state,
			Bus:        bus,
			Container:  container,
			ModuleName: "sanctum",
		}),
		events:    &evs,
		mutations: &muts,
	}
}

// authenticate puts e into the authenticated state without events.
func (e env) authenticate(t *testing.T) {
	t.Helper()

	e.state.SetUser(store.User{"id": float64(1), "name": "A"})
	e.state.UpdateAuthenticatedState(true)
	e.state.UpdateXSRFTokenState(true)
	e.transport.hasToken = true
}

var anonymous = store.State{User: store.User{}}

func TestActions_Login(t *testing.T) {
	t.Parallel()

	creds := map[string]string{"email": "a@example.com", "password": "secret"}
	tr := &fakeTransport{
		onLogin: func(credentials any) (resp *api.Response, err error) {
			assert.Equal(t, creds, credentials)

			return jsonResponse(`{"two_factor":false}`), nil
		},
		onMe: func() (resp *api.Response, err error) {
			return jsonResponse(`{"id":1,"name":"A"}`), nil
		},
	}
	tr.onLogout = unexpected
	e := newEnv(t, tr)

	// The CSRF cookie is set by the login request.
	tr.hasToken = true

	assert.Equal(t, session.PhaseAnonymous, e.actions.Phase())

	ctx := testutil.ContextWithTimeout(t, testTimeout)
	data, err := e.actions.Login(ctx, creds)
	require.NoError(t, err)

	assert.JSONEq(t, `{"two_factor":false}`, string(data))
	assert.Equal(t, store.State{
		User:            store.User{"id": float64(1), "name": "A"},
		IsAuthenticated: true,
		HasXSRFToken:    true,
	}, e.state.Snapshot())
	assert.Equal(t, []string{events.NameUserInitialized, events.NameAuthenticated}, *e.events)
	assert.Equal(t, []string{
		store.MutationUpdateXSRFTokenState,
		store.MutationSetUser,
		store.MutationUpdateAuthenticatedState,
	}, *e.mutations)
	assert.Equal(t, session.PhaseAuthenticated, e.actions.Phase())
}

func TestActions_Login_failure(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{
		onLogin: func(_ any) (resp *api.Response, err error) {
			return nil, errNetwork
		},
		onMe: unexpected,
	}
	e := newEnv(t, tr)

	ctx := testutil.ContextWithTimeout(t, testTimeout)
	data, err := e.actions.Login(ctx, nil)
	assert.Nil(t, data)
	assert.Equal(t, errNetwork, err)

	assert.Equal(t, anonymous, e.state.Snapshot())
	assert.Empty(t, *e.events)
	assert.Empty(t, *e.mutations)
}

func TestActions_Login_fetchUserFailure(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{
		onLogin: func(_ any) (resp *api.Response, err error) {
			return jsonResponse(`{"ok":true}`), nil
		},
		onMe: failing,
	}
	e := newEnv(t, tr)
	tr.hasToken = true

	ctx := testutil.ContextWithTimeout(t, testTimeout)
	data, err := e.actions.Login(ctx, nil)
	assert.JSONEq(t, `{"ok":true}`, string(data))
	assert.Equal(t, errNetwork, err)

	assert.Equal(t, store.State{User: store.User{}, HasXSRFToken: true}, e.state.Snapshot())
	assert.Empty(t, *e.events)
	assert.Equal(t, session.PhaseCSRFReady, e.actions.Phase())
}

func TestActions_FetchUser(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		onMe      func() (resp *api.Response, err error)
		wantErrIs error
		name      string
		wantUser  store.User
	}{{
		onMe: func() (resp *api.Response, err error) {
			return jsonResponse(`{"id":7}`), nil
		},
		wantErrIs: nil,
		name:      "success",
		wantUser:  store.User{"id": float64(7)},
	}, {
		onMe:      failing,
		wantErrIs: errNetwork,
		name:      "transport_error",
		wantUser:  nil,
	}, {
		onMe: func() (resp *api.Response, err error) {
			return jsonResponse(`{}`), nil
		},
		wantErrIs: session.ErrEmptyUser,
		name:      "empty_user",
		wantUser:  nil,
	}, {
		onMe: func() (resp *api.Response, err error) {
			return jsonResponse(`null`), nil
		},
		wantErrIs: session.ErrEmptyUser,
		name:      "null_user",
		wantUser:  nil,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t, &fakeTransport{onMe: tc.onMe})

			ctx := testutil.ContextWithTimeout(t, testTimeout)
			u, err := e.actions.FetchUser(ctx)
			if tc.wantErrIs != nil {
				assert.ErrorIs(t, err, tc.wantErrIs)
				assert.Equal(t, anonymous, e.state.Snapshot())
				assert.Empty(t, *e.events)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantUser, u)
			assert.Equal(t, tc.wantUser, e.actions.User())
			assert.True(t, e.actions.IsAuthenticated())
		})
	}
}

func TestActions_FetchUser_twice(t *testing.T) {
	t.Parallel()

	e := newEnv(t, &fakeTransport{
		onMe: func() (resp *api.Response, err error) {
			return jsonResponse(`{"id":1}`), nil
		},
	})

	ctx := testutil.ContextWithTimeout(t, testTimeout)
	for range 3 {
		_, err := e.actions.FetchUser(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		events.NameUserInitialized,
		events.NameAuthenticated,
		events.NameAuthenticated,
		events.NameAuthenticated,
	}, *e.events)
}

func TestActions_Logout(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		onLogout func() (resp *api.Response, err error)
		wantErr  error
		name     string
	}{{
		onLogout: func() (resp *api.Response, err error) {
			return &api.Response{StatusCode: http.StatusNoContent}, nil
		},
		wantErr: nil,
		name:    "success",
	}, {
		onLogout: failing,
		wantErr:  errNetwork,
		name:     "network_error",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := newEnv(t, &fakeTransport{onLogout: tc.onLogout})
			e.authenticate(t)

			ctx := testutil.ContextWithTimeout(t, testTimeout)
			resp, err := e.actions.Logout(ctx)
			assert.Equal(t, tc.wantErr, err)
			if tc.wantErr == nil {
				require.NotNil(t, resp)
				assert.Equal(t, http.StatusNoContent, resp.StatusCode)
			}

			assert.Equal(t, anonymous, e.state.Snapshot())
			assert.Equal(t, []string{events.NameLoggedOut}, *e.events)
			assert.Equal(t, session.PhaseAnonymous, e.actions.Phase())
		})
	}
}

func TestActions_TryAutoLogin(t *testing.T) {
	t.Parallel()

	t.Run("no_cookie", func(t *testing.T) {
		t.Parallel()

		tr := &fakeTransport{onLogin: nil, onLogout: unexpected, onMe: unexpected}
		e := newEnv(t, tr)

		ctx := testutil.ContextWithTimeout(t, testTimeout)
		u, err := e.actions.TryAutoLogin(ctx)
		assert.Nil(t, u)
		assert.ErrorIs(t, err, session.ErrNoXSRFToken)

		assert.Zero(t, tr.requests)
		assert.Empty(t, *e.events)
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t, &fakeTransport{
			onMe: func() (resp *api.Response, err error) {
				return jsonResponse(`{"id":1,"name":"A"}`), nil
			},
		})
		e.state.UpdateXSRFTokenState(true)

		ctx := testutil.ContextWithTimeout(t, testTimeout)
		u, err := e.actions.TryAutoLogin(ctx)
		require.NoError(t, err)

		assert.Equal(t, store.User{"id": float64(1), "name": "A"}, u)
		assert.True(t, e.actions.IsAuthenticated())
		assert.True(t, e.actions.HasXSRFToken())
		assert.Equal(t, []string{events.NameUserInitialized, events.NameAuthenticated}, *e.events)
	})

	t.Run("me_fails", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t, &fakeTransport{onMe: failing})
		e.state.UpdateXSRFTokenState(true)

		ctx := testutil.ContextWithTimeout(t, testTimeout)
		u, err := e.actions.TryAutoLogin(ctx)
		assert.Nil(t, u)
		assert.Equal(t, errNetwork, err)

		assert.Equal(t, anonymous, e.state.Snapshot())
		assert.Equal(t, []string{events.NameLoggedOut}, *e.events)
	})
}

func TestActions_Clear(t *testing.T) {
	t.Parallel()

	e := newEnv(t, &fakeTransport{})
	e.authenticate(t)

	e.actions.Clear()
	assert.Equal(t, anonymous, e.state.Snapshot())

	e.actions.Clear()
	assert.Equal(t, anonymous, e.state.Snapshot())

	assert.Equal(t, []string{events.NameLoggedOut, events.NameLoggedOut}, *e.events)
	assert.Equal(t, []string{
		store.MutationUpdateXSRFTokenState,
		store.MutationUpdateAuthenticatedState,
		store.MutationClear,
	}, (*e.mutations)[:3])
}

func TestActions_RefreshXSRFTokenState(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{}
	e := newEnv(t, tr)

	tr.hasToken = true
	assert.False(t, e.actions.HasXSRFToken())

	e.actions.RefreshXSRFTokenState()
	assert.True(t, e.actions.HasXSRFToken())
	assert.Equal(t, session.PhaseCSRFReady, e.actions.Phase())
}

func TestPhase_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "anonymous", session.PhaseAnonymous.String())
	assert.Equal(t, "csrf_ready", session.PhaseCSRFReady.String())
	assert.Equal(t, "authenticated", session.PhaseAuthenticated.String())
	assert.Equal(t, "unknown", session.Phase(42).String())
}
