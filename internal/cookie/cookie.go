// Package cookie reads and writes the cookies the session client shares with
// the server, scoped to the wildcard domain of the API location.
package cookie

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Accessor reads and writes cookies in a jar as seen from a single location.
type Accessor struct {
	jar      http.CookieJar
	location *url.URL
	now      func() (t time.Time)
}

// New returns an accessor for cookies that jar would send to location.
func New(jar http.CookieJar, location *url.URL) (a *Accessor) {
	return &Accessor{
		jar:      jar,
		location: location,
		now:      time.Now,
	}
}

// CurrentWildcardDomain returns the location hostname starting at its first
// dot, so "app.example.com" gives ".example.com".  A hostname without dots,
// like "localhost", gives an empty string, which makes the cookies written by
// [Accessor.Set] host-only.
func (a *Accessor) CurrentWildcardDomain() (domain string) {
	host := a.location.Hostname()
	i := strings.IndexByte(host, '.')
	if i < 0 {
		return ""
	}

	return host[i:]
}

// Set writes a cookie for the wildcard domain with the root path, expiring
// days days from now.  A negative days removes the cookie from the jar.
func (a *Accessor) Set(name, value string, days int) {
	expires := a.now().Add(time.Duration(days) * 24 * time.Hour)
	a.jar.SetCookies(a.location, []*http.Cookie{{
		Name:    name,
		Value:   value,
		Domain:  a.CurrentWildcardDomain(),
		Path:    "/",
		Expires: expires,
	}})
}

// Has reports whether name occurs anywhere in the cookie string.  This gives
// false positives when name is a part of another cookie's name or value.
func (a *Accessor) Has(name string) (ok bool) {
	return strings.Contains(a.String(), name)
}

// Delete expires the named cookie.  Only a cookie stored with the same
// domain and path as [Accessor.Set] uses is removed.
func (a *Accessor) Delete(name string) {
	a.Set(name, "", -1)
}

// String returns the cookies for the location in Cookie header form, e.g.
// "a=1; b=2".
func (a *Accessor) String() (s string) {
	cookies := a.jar.Cookies(a.location)
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}

	return strings.Join(pairs, "; ")
}
