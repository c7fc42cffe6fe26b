package catalog

import (
	"fmt"
	"strings"
)

// maxErrorBody bounds how much of a failing response body is retained.
const maxErrorBody = 500

// RemoteError describes a catalog response that was not a success. StatusCode
// is the HTTP status; AppCode is set when the HTTP call succeeded but the JSON
// envelope carried a non-200 code.
type RemoteError struct {
	StatusCode int
	AppCode    string
	Body       string
}

func (e *RemoteError) Error() string {
	if e.AppCode != "" {
		return fmt.Sprintf("catalog api error: code %s: %s", e.AppCode, e.Body)
	}
	return fmt.Sprintf("catalog http %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying the call later could succeed.
func (e *RemoteError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(body), ""))
}
