// Package auth talks to the session endpoints of the server: the CSRF cookie
// route, login, logout and the current user route.
package auth

import (
	"context"

	"github.com/fragmede/sanctum/internal/api"
	"github.com/fragmede/sanctum/internal/cookie"
)

// DefaultXSRFCookieName is the name of the CSRF cookie the server sets.
const DefaultXSRFCookieName = "XSRF-TOKEN"

// HTTPClient is the transport used for all requests.  Paths are relative to
// the server location.
type HTTPClient interface {
	Get(ctx context.Context, path string) (resp *api.Response, err error)
	Post(ctx context.Context, path string, body any) (resp *api.Response, err error)
}

// type check
var _ HTTPClient = (*api.Client)(nil)

// Routes are the relative paths of the session endpoints.
type Routes struct {
	CSRF   string
	Login  string
	Logout string
	Me     string
}

// DefaultRoutes returns the routes of a stock Laravel Sanctum server.
func DefaultRoutes() (r Routes) {
	return Routes{
		CSRF:   "sanctum/csrf-cookie",
		Login:  "login",
		Logout: "logout",
		Me:     "me",
	}
}

// Merge returns r with its empty fields taken from defaults.
func (r Routes) Merge(defaults Routes) (merged Routes) {
	merged = r
	if merged.CSRF == "" {
		merged.CSRF = defaults.CSRF
	}
	if merged.Login == "" {
		merged.Login = defaults.Login
	}
	if merged.Logout == "" {
		merged.Logout = defaults.Logout
	}
	if merged.Me == "" {
		merged.Me = defaults.Me
	}

	return merged
}

// Config is the configuration of a [Service].
type Config struct {
	// HTTP performs the requests.  It must not be nil.
	HTTP HTTPClient

	// Cookies gives access to the cookies the server sets.  It must not be
	// nil.
	Cookies *cookie.Accessor

	// XSRFCookieName is the name of the CSRF cookie.
	XSRFCookieName string

	// Routes are the endpoint paths.
	Routes Routes
}

// Service performs the session requests.  Errors from the HTTP client are
// returned unchanged.
type Service struct {
	http           HTTPClient
	cookies        *cookie.Accessor
	xsrfCookieName string
	routes         Routes
}

// NewService creates a new session service.  conf must not be nil.
func NewService(conf *Config) (s *Service) {
	name := conf.XSRFCookieName
	if name == "" {
		name = DefaultXSRFCookieName
	}

	return &Service{
		http:           conf.HTTP,
		cookies:        conf.Cookies,
		xsrfCookieName: name,
		routes:         conf.Routes.Merge(DefaultRoutes()),
	}
}

// FetchCSRFToken requests the CSRF route, which makes the server set the CSRF
// cookie.
func (s *Service) FetchCSRFToken(ctx context.Context) (resp *api.Response, err error) {
	return s.http.Get(ctx, s.routes.CSRF)
}

// Login fetches the CSRF cookie and then posts credentials to the login route.
// The login request is not sent if fetching the cookie fails.
func (s *Service) Login(ctx context.Context, credentials any) (resp *api.Response, err error) {
	_, err = s.FetchCSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	return s.http.Post(ctx, s.routes.Login, credentials)
}

// Logout posts to the logout route.  The local CSRF cookie is deleted whether
// the request succeeds or not.
func (s *Service) Logout(ctx context.Context) (resp *api.Response, err error) {
	defer s.cookies.Delete(s.xsrfCookieName)

	return s.http.Post(ctx, s.routes.Logout, nil)
}

// Me requests the user of the current session.  Success means the session is
// authenticated.
func (s *Service) Me(ctx context.Context) (resp *api.Response, err error) {
	return s.http.Get(ctx, s.routes.Me)
}

// HasXSRFToken reports whether the CSRF cookie is present.
func (s *Service) HasXSRFToken() (ok bool) {
	return s.cookies.Has(s.xsrfCookieName)
}

// XSRFCookieName returns the name of the tracked CSRF cookie.
func (s *Service) XSRFCookieName() (name string) {
	return s.xsrfCookieName
}
