// Package api contains the HTTP client the session bridge talks to the server
// with.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/AdguardTeam/golibs/errors"
)

// errNoBaseURL is returned by [NewClient] when the base URL is missing.
const errNoBaseURL errors.Error = "no base url"

// Response is a server response with its body kept as raw JSON.
type Response struct {
	// Header contains the response headers.
	Header http.Header

	// Data is the raw response body.  It is nil when the body is empty.
	Data json.RawMessage

	StatusCode int
}

// Decode unmarshals the response body into dst.
func (r *Response) Decode(dst any) (err error) {
	if len(r.Data) == 0 {
		return fmt.Errorf("decoding response: %w", errors.ErrNoValue)
	}

	err = json.Unmarshal(r.Data, dst)
	if err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// StatusError is returned for responses with a non-2xx status code.
type StatusError struct {
	// Response is the rejected response.  It is never nil.
	Response *Response
}

// type check
var _ error = (*StatusError)(nil)

// Error implements the error interface for *StatusError.
func (e *StatusError) Error() (msg string) {
	return fmt.Sprintf("request failed with status %d", e.Response.StatusCode)
}
