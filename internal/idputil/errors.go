/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idputil

import (
	"fmt"
	"net/http"
)

// UnexpectedResponseError represents an error that occurs when an unexpected HTTP response is received.
// It captures the HTTP status code, response headers and the OAuth2 error code if the body contained one.
type UnexpectedResponseError struct {
	StatusCode       int
	Header           http.Header
	ErrorCode        string
	ErrorDescription string
}

func (e *UnexpectedResponseError) Error() string {
	if e.ErrorCode == "" {
		return fmt.Sprintf("unexpected HTTP status code %d", e.StatusCode)
	}
	if e.ErrorDescription == "" {
		return fmt.Sprintf("unexpected HTTP status code %d (%s)", e.StatusCode, e.ErrorCode)
	}
	return fmt.Sprintf("unexpected HTTP status code %d (%s: %s)", e.StatusCode, e.ErrorCode, e.ErrorDescription)
}
