// Package render turns server responses and timestamps into terminal text.
package render

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/fragmede/sanctum/internal/api"
)

// laravelError is the JSON body Laravel sends with failed requests.  Errors
// is only set for validation failures.
type laravelError struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// ErrorText describes err for display.  For an [*api.StatusError] it uses the
// message and validation errors of a JSON body or the text of an HTML one.
// Other errors are shown as is.
func ErrorText(err error, width int) string {
	if err == nil {
		return ""
	}

	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) {
		return wrapText(err.Error(), width)
	}

	resp := statusErr.Response
	prefix := fmt.Sprintf("HTTP %d", resp.StatusCode)

	var body laravelError
	if json.Unmarshal(resp.Data, &body) == nil && (body.Message != "" || len(body.Errors) > 0) {
		return wrapText(prefix+": "+validationText(body), width)
	}

	if text := HTMLToText(string(resp.Data), width); text != "" {
		return prefix + "\n" + text
	}

	return prefix
}

// validationText joins the message with the field errors sorted by field.
func validationText(body laravelError) string {
	lines := []string{}
	if body.Message != "" {
		lines = append(lines, body.Message)
	}

	fields := make([]string, 0, len(body.Errors))
	for f := range body.Errors {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	for _, f := range fields {
		for _, msg := range body.Errors[f] {
			// Laravel repeats the first field error as the message.
			if msg != body.Message {
				lines = append(lines, f+": "+msg)
			}
		}
	}

	return strings.Join(lines, "\n")
}

// TimeAgo formats t relative to now.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02 15:04")
	}
}
