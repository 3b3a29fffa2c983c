/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptoken

import (
	"errors"
	"fmt"

	"github.com/acronis/go-exotoken/internal/idputil"
)

var (
	// ErrInvalidInput is returned when tenant, client ID, credential or configuration is malformed.
	// No network call is made in this case.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSigningFailure is returned when the client assertion cannot be signed with the certificate's private key.
	ErrSigningFailure = errors.New("client assertion signing failure")

	// ErrTokenRequestFailed is returned when the token endpoint cannot be reached
	// or responds with a non-success status.
	ErrTokenRequestFailed = errors.New("token request failed")
)

// InvalidInputError describes which input was rejected and why.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput.Error(), e.Field, e.Reason)
}

// Is makes InvalidInputError match ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func newInvalidInputError(field, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: reason}
}

// TokenRequestError wraps a transport failure or an unexpected token endpoint response.
// Inner is either the transport error or *UnexpectedResponseError.
type TokenRequestError struct {
	TokenURL string
	Inner    error
}

func (e *TokenRequestError) Error() string {
	return fmt.Sprintf("%s (URL: %q): %s", ErrTokenRequestFailed.Error(), e.TokenURL, e.Inner.Error())
}

func (e *TokenRequestError) Unwrap() error {
	return e.Inner
}

// Is makes TokenRequestError match ErrTokenRequestFailed.
func (e *TokenRequestError) Is(target error) bool {
	return target == ErrTokenRequestFailed
}

// UnexpectedResponseError is returned (wrapped into TokenRequestError) when the token endpoint
// responds with a non-success HTTP status.
type UnexpectedResponseError = idputil.UnexpectedResponseError
