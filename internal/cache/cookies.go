package cache

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// StoredCookie is a persistent cookie together with the URL it was set from.
type StoredCookie struct {
	Origin string
	Cookie *http.Cookie
}

// hostKey returns the host a cookie belongs to, which together with its name
// and path identifies it.
func hostKey(u *url.URL, c *http.Cookie) string {
	if c.Domain != "" {
		return strings.ToLower(strings.TrimPrefix(c.Domain, "."))
	}
	return strings.ToLower(u.Hostname())
}

// expiry returns when c expires and whether it outlives the process.
// Session cookies, with neither Expires nor Max-Age, are not persistent.
func expiry(c *http.Cookie, now time.Time) (t time.Time, persistent bool) {
	switch {
	case c.MaxAge < 0:
		return now, true
	case c.MaxAge > 0:
		return now.Add(time.Duration(c.MaxAge) * time.Second), true
	case !c.Expires.IsZero():
		return c.Expires, true
	default:
		return time.Time{}, false
	}
}

// PutCookie stores c as set from u.  Expired cookies are removed instead.
func (d *DB) PutCookie(u *url.URL, c *http.Cookie, now time.Time) error {
	expires, persistent := expiry(c, now)
	key := hostKey(u, c)
	if !persistent {
		return nil
	}
	if !expires.After(now) {
		_, err := d.db.Exec(`DELETE FROM cookies WHERE name = ? AND host_key = ? AND path = ?`,
			c.Name, key, c.Path)
		return err
	}

	origin := url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	_, err := d.db.Exec(`INSERT OR REPLACE INTO cookies
		(name, host_key, path, origin, value, domain, expires_unix, secure, http_only)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, key, c.Path, origin.String(), c.Value, c.Domain, expires.Unix(),
		boolInt(c.Secure), boolInt(c.HttpOnly))
	return err
}

// LiveCookies returns the stored cookies that have not expired at now.
func (d *DB) LiveCookies(now time.Time) ([]StoredCookie, error) {
	rows, err := d.db.Query(`SELECT name, path, origin, value, domain, expires_unix, secure, http_only
		FROM cookies WHERE expires_unix > ?`, now.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StoredCookie
	for rows.Next() {
		var sc StoredCookie
		var c http.Cookie
		var expiresUnix int64
		var secure, httpOnly int
		if err := rows.Scan(&c.Name, &c.Path, &sc.Origin, &c.Value, &c.Domain,
			&expiresUnix, &secure, &httpOnly); err != nil {
			return nil, fmt.Errorf("scanning cookie: %w", err)
		}
		c.Expires = time.Unix(expiresUnix, 0)
		c.Secure = secure != 0
		c.HttpOnly = httpOnly != 0
		sc.Cookie = &c
		result = append(result, sc)
	}
	return result, rows.Err()
}

// PurgeExpiredCookies removes the cookies that have expired at now.
func (d *DB) PurgeExpiredCookies(now time.Time) error {
	_, err := d.db.Exec(`DELETE FROM cookies WHERE expires_unix <= ?`, now.Unix())
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Jar is a cookie jar that writes persistent cookies through to the database,
// so a session outlives the process the way it outlives a browser tab.
type Jar struct {
	jar    http.CookieJar
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

// type check
var _ http.CookieJar = (*Jar)(nil)

// NewJar wraps jar.  Call [Jar.Restore] to load the cookies of earlier runs.
func NewJar(jar http.CookieJar, db *DB, logger *slog.Logger) *Jar {
	return &Jar{
		jar:    jar,
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// SetCookies implements the [http.CookieJar] interface for *Jar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	now := j.now()
	for _, c := range cookies {
		if err := j.db.PutCookie(u, c, now); err != nil {
			j.logger.Warn("persisting cookie", "name", c.Name, slogutil.KeyError, err)
		}
	}
}

// Cookies implements the [http.CookieJar] interface for *Jar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Restore loads the live stored cookies into the wrapped jar and drops the
// expired ones.  It returns the number of cookies restored.
func (j *Jar) Restore() (int, error) {
	now := j.now()
	if err := j.db.PurgeExpiredCookies(now); err != nil {
		return 0, fmt.Errorf("purging cookies: %w", err)
	}

	stored, err := j.db.LiveCookies(now)
	if err != nil {
		return 0, fmt.Errorf("loading cookies: %w", err)
	}

	for _, sc := range stored {
		u, err := url.Parse(sc.Origin)
		if err != nil {
			j.logger.Warn("bad cookie origin", "origin", sc.Origin, slogutil.KeyError, err)
			continue
		}
		j.jar.SetCookies(u, []*http.Cookie{sc.Cookie})
	}
	return len(stored), nil
}
