// Package api fetches usage snapshots from the Claude usage endpoint.
package api

import "fmt"

// AuthError means the credential was rejected (HTTP 401/403). Never
// retried; the user has to re-authenticate.
type AuthError struct {
	Code int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf(
		"authentication failed (status %d): your session may have expired, re-authenticate with Claude Code",
		e.Code)
}

// HTTPError is a non-auth HTTP failure. The retry layer consults
// StatusCode to decide whether the request is worth repeating.
type HTTPError struct {
	Code int
	Body string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("API error (status %d): %s", e.Code, e.Body)
	}
	return fmt.Sprintf("API error (status %d)", e.Code)
}

// StatusCode returns the HTTP status code.
func (e *HTTPError) StatusCode() int {
	return e.Code
}
