package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/httphdr"
	"golang.org/x/net/publicsuffix"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultUserAgent      = "sanctum/1.0"
	defaultXSRFCookieName = "XSRF-TOKEN"

	// xsrfHeader carries the decoded XSRF cookie back to the server.
	xsrfHeader = "X-XSRF-TOKEN"
)

// ClientConfig is the configuration of a [Client].
type ClientConfig struct {
	// BaseURL is the origin, and optional path prefix, that request paths
	// are appended to.  It must not be nil.
	BaseURL *url.URL

	// Jar stores the cookies set by the server.  If nil, a jar from
	// [NewJar] is used.
	Jar http.CookieJar

	// Transport, if not nil, is used instead of [http.DefaultTransport].
	Transport http.RoundTripper

	// UserAgent is sent with every request.
	UserAgent string

	// XSRFCookieName is the cookie mirrored into the X-XSRF-TOKEN header.
	XSRFCookieName string

	// Timeout limits each request.
	Timeout time.Duration
}

// Client is a JSON HTTP client that keeps cookies between requests and
// rejects non-2xx responses with a [*StatusError].
type Client struct {
	http           *http.Client
	base           *url.URL
	userAgent      string
	xsrfCookieName string
}

// NewJar returns a cookie jar that uses the public suffix list, so that
// cookies cannot be set for a whole public suffix like ".co.uk".
func NewJar() (jar *cookiejar.Jar, err error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// NewClient creates a new client.  conf must not be nil.
func NewClient(conf *ClientConfig) (c *Client, err error) {
	if conf.BaseURL == nil {
		return nil, fmt.Errorf("base url: %w", errNoBaseURL)
	}

	jar := conf.Jar
	if jar == nil {
		jar, err = NewJar()
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
	}

	c = &Client{
		http: &http.Client{
			Jar:       jar,
			Transport: conf.Transport,
			Timeout:   defaultTimeout,
		},
		base:           conf.BaseURL,
		userAgent:      defaultUserAgent,
		xsrfCookieName: defaultXSRFCookieName,
	}
	if conf.Timeout > 0 {
		c.http.Timeout = conf.Timeout
	}
	if conf.UserAgent != "" {
		c.userAgent = conf.UserAgent
	}
	if conf.XSRFCookieName != "" {
		c.xsrfCookieName = conf.XSRFCookieName
	}

	return c, nil
}

// Jar returns the cookie jar of the client.
func (c *Client) Jar() (jar http.CookieJar) {
	return c.http.Jar
}

// BaseURL returns the URL request paths are resolved against.
func (c *Client) BaseURL() (u *url.URL) {
	return c.base
}

// Get issues a GET request for path.
func (c *Client) Get(ctx context.Context, path string) (resp *Response, err error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request for path with body encoded as JSON.  A nil body
// sends no content.
func (c *Client) Post(ctx context.Context, path string, body any) (resp *Response, err error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// resolve appends path to the base URL.  Absolute URLs are returned as is.
func (c *Client) resolve(path string) (u *url.URL, err error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing path %q: %w", path, err)
	}

	if ref.IsAbs() {
		return ref, nil
	}

	resolved := *c.base
	resolved.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	resolved.RawPath = ""
	resolved.RawQuery = ref.RawQuery

	return &resolved, nil
}

// xsrfToken returns the decoded value of the XSRF cookie the jar holds for
// u, if any.
func (c *Client) xsrfToken(u *url.URL) (token string, ok bool) {
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name != c.xsrfCookieName {
			continue
		}

		token, err := url.QueryUnescape(ck.Value)
		if err != nil {
			return ck.Value, true
		}

		return token, true
	}

	return "", false
}

func (c *Client) do(ctx context.Context, method, path string, body any) (resp *Response, err error) {
	u, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var r io.Reader
	if body != nil {
		var data []byte
		data, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set(httphdr.Accept, "application/json")
	req.Header.Set(httphdr.UserAgent, c.userAgent)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if body != nil {
		req.Header.Set(httphdr.ContentType, "application/json")
	}
	if token, ok := c.xsrfToken(u); ok {
		req.Header.Set(xsrfHeader, token)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u.Redacted(), err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", u.Redacted(), err)
	}

	resp = &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
	}
	if len(data) > 0 {
		resp.Data = json.RawMessage(data)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &StatusError{Response: resp}
	}

	return resp, nil
}
