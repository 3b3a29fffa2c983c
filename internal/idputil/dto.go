/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idputil

const TokenTypeBearer = "Bearer"

// TokenResponse is the JSON body returned by the token endpoint on success.
type TokenResponse struct {
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExtExpiresIn int64  `json:"ext_expires_in,omitempty"`
	AccessToken  string `json:"access_token"`
}

// ErrorResponse is the JSON body returned by the token endpoint on failure (RFC 6749, section 5.2).
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorCodes       []int  `json:"error_codes,omitempty"`
	TraceID          string `json:"trace_id,omitempty"`
	CorrelationID    string `json:"correlation_id,omitempty"`
}
