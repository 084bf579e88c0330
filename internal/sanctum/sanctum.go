// Package sanctum wires the session bridge together: the cookie accessor, the
// session service, the state module, the event bus and the session actions.
package sanctum

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/fragmede/sanctum/internal/auth"
	"github.com/fragmede/sanctum/internal/cookie"
	"github.com/fragmede/sanctum/internal/events"
	"github.com/fragmede/sanctum/internal/session"
	"github.com/fragmede/sanctum/internal/store"
)

// ErrNoHTTPClient is returned by [New] when no HTTP client is given.
const ErrNoHTTPClient errors.Error = "sanctum requires an http client"

// DefaultStoreModuleName is the name the state module is registered under.
const DefaultStoreModuleName = "sanctum"

// CookieSource is implemented by HTTP clients that expose their cookie jar
// and location, like [api.Client].
type CookieSource interface {
	Jar() (jar http.CookieJar)
	BaseURL() (u *url.URL)
}

// Options are the options of [New].
type Options struct {
	// HTTPClient performs all requests.  It is required.
	HTTPClient auth.HTTPClient

	// Jar is the cookie jar HTTPClient uses.  If nil, it is taken from
	// HTTPClient when that implements [CookieSource].
	Jar http.CookieJar

	// Location is the server location the cookies are read for.  If nil, it
	// is taken from HTTPClient when that implements [CookieSource].
	Location *url.URL

	// Store, if not nil, gets the state module registered under
	// StoreModuleName.
	Store *store.Container

	// EventBus receives lifecycle events.  If nil, a new bus is created.
	EventBus *events.Bus

	// Logger is used for debug output.  If nil, logs are discarded.
	Logger *slog.Logger

	// XSRFCookieName is the CSRF cookie name, "XSRF-TOKEN" by default.
	XSRFCookieName string

	// StoreModuleName is the module name, "sanctum" by default.
	StoreModuleName string

	// Routes are the endpoint paths.  Empty fields keep the defaults.
	Routes auth.Routes
}

// Sanctum is the assembled session bridge.
type Sanctum struct {
	// Service performs the raw session requests.
	Service *auth.Service

	// Cookies reads the cookies of the server location.
	Cookies *cookie.Accessor

	// Bus carries the lifecycle events.
	Bus *events.Bus

	// State is the session state module.
	State *store.Module

	// Actions runs the session flows.
	Actions *session.Actions
}

// New assembles the session bridge.  If opts.Store is set, the state module is
// registered in it and the CSRF cookie flag is initialized from the jar.
func New(opts *Options) (s *Sanctum, err error) {
	defer func() { err = errors.Annotate(err, "sanctum: %w") }()

	if opts == nil || opts.HTTPClient == nil {
		return nil, ErrNoHTTPClient
	}

	jar, location := opts.Jar, opts.Location
	if src, ok := opts.HTTPClient.(CookieSource); ok {
		if jar == nil {
			jar = src.Jar()
		}
		if location == nil {
			location = src.BaseURL()
		}
	}

	switch {
	case jar == nil:
		return nil, fmt.Errorf("opts.Jar: %w", errors.ErrNoValue)
	case location == nil:
		return nil, fmt.Errorf("opts.Location: %w", errors.ErrNoValue)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}

	bus := opts.EventBus
	if bus == nil {
		bus = events.NewBus()
	}

	moduleName := opts.StoreModuleName
	if moduleName == "" {
		moduleName = DefaultStoreModuleName
	}

	cookies := cookie.New(jar, location)
	svc := auth.NewService(&auth.Config{
		HTTP:           opts.HTTPClient,
		Cookies:        cookies,
		XSRFCookieName: opts.XSRFCookieName,
		Routes:         opts.Routes,
	})

	state := store.NewModule()
	s = &Sanctum{
		Service: svc,
		Cookies: cookies,
		Bus:     bus,
		State:   state,
		Actions: session.New(&session.Config{
			Transport:  svc,
			State:      state,
			Bus:        bus,
			Container:  opts.Store,
			ModuleName: moduleName,
		}),
	}

	if opts.Store != nil {
		err = opts.Store.RegisterModule(moduleName, state)
		if err != nil {
			return nil, fmt.Errorf("registering state module: %w", err)
		}

		s.Actions.RefreshXSRFTokenState()

		logger.Debug(
			"registered state module",
			"module", moduleName,
			"has_xsrf_token", state.HasXSRFToken(),
		)
	}

	bus.Subscribe(func(e events.Event) {
		logger.Debug("session event", "topic", events.Topic(e))
	})

	return s, nil
}

// RestoreSession recomputes the CSRF cookie flag from the jar and tries to
// log in with it.  It is meant to be called once the cookies of a previous
// run have been loaded into the jar.
func (s *Sanctum) RestoreSession(ctx context.Context) (u store.User, err error) {
	s.Actions.RefreshXSRFTokenState()

	return s.Actions.TryAutoLogin(ctx)
}
