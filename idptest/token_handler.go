/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptest

import (
	"bytes"
	"crypto/sha1" // nolint:gosec // x5t is a SHA-1 thumbprint.
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/acronis/go-exotoken/internal/idputil"
)

const (
	defaultTokenLifetime = time.Hour

	// MaxClientAssertionLifetime is the longest client assertion validity window the server accepts.
	MaxClientAssertionLifetime = 10 * time.Minute

	clientAssertionTypeJWTBearer = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
	defaultScopeSuffix           = "/.default"
)

// OAuth2 error codes (RFC 6749, section 5.2).
const (
	ErrCodeInvalidRequest       = "invalid_request"
	ErrCodeInvalidClient        = "invalid_client"
	ErrCodeUnauthorizedClient   = "unauthorized_client"
	ErrCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrCodeInvalidScope         = "invalid_scope"
)

// Application is an application registration known to TokenHandler.
// Either ClientSecret or Certificate (or both) must be set.
type Application struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Certificate  *x509.Certificate
}

// ReceivedRequest is what TokenHandler captured from the last token request.
type ReceivedRequest struct {
	TenantID    string
	ContentType string
	Form        url.Values

	// AssertionHeader and AssertionClaims are set for requests authenticated with a client assertion.
	AssertionHeader map[string]interface{}
	AssertionClaims jwtgo.MapClaims
}

// TokenResponse is a response for POST /{tenant}/oauth2/v2.0/token endpoint.
type TokenResponse = idputil.TokenResponse

// ErrorResponse is an error response for POST /{tenant}/oauth2/v2.0/token endpoint.
type ErrorResponse = idputil.ErrorResponse

// TokenHandler is an implementation of the client-credentials token endpoint.
type TokenHandler struct {
	servedCount   atomic.Uint64
	mu            sync.Mutex
	lastRequest   *ReceivedRequest
	BaseURL       string
	Applications  []Application
	TokenLifetime time.Duration
}

func (h *TokenHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "Only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}

	h.servedCount.Add(1)

	if err := r.ParseForm(); err != nil {
		writeError(rw, http.StatusBadRequest, ErrCodeInvalidRequest, "malformed form body")
		return
	}
	received := &ReceivedRequest{
		TenantID:    r.PathValue("tenant"),
		ContentType: r.Header.Get("Content-Type"),
		Form:        r.PostForm,
	}
	defer h.storeLastRequest(received)

	if grantType := r.PostForm.Get("grant_type"); grantType != "client_credentials" {
		writeError(rw, http.StatusBadRequest, ErrCodeUnsupportedGrantType,
			fmt.Sprintf("grant type %q is not supported", grantType))
		return
	}
	scope := r.PostForm.Get("scope")
	if !strings.HasSuffix(scope, defaultScopeSuffix) {
		writeError(rw, http.StatusBadRequest, ErrCodeInvalidScope, "scope must end with "+defaultScopeSuffix)
		return
	}

	clientID := r.PostForm.Get("client_id")
	app, ok := h.findApplication(received.TenantID, clientID)
	if !ok {
		writeError(rw, http.StatusBadRequest, ErrCodeUnauthorizedClient,
			fmt.Sprintf("application %q was not found in tenant %q", clientID, received.TenantID))
		return
	}

	secret := r.PostForm.Get("client_secret")
	assertion := r.PostForm.Get("client_assertion")
	switch {
	case secret != "" && assertion != "":
		writeError(rw, http.StatusBadRequest, ErrCodeInvalidRequest,
			"only one client authentication method is allowed")
		return
	case secret != "":
		if app.ClientSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(app.ClientSecret)) != 1 {
			writeError(rw, http.StatusUnauthorized, ErrCodeInvalidClient, "invalid client secret is provided")
			return
		}
	case assertion != "":
		if r.PostForm.Get("client_assertion_type") != clientAssertionTypeJWTBearer {
			writeError(rw, http.StatusBadRequest, ErrCodeInvalidRequest, "unsupported client_assertion_type")
			return
		}
		header, claims, err := h.verifyClientAssertion(app, h.BaseURL+r.URL.Path, assertion)
		received.AssertionHeader, received.AssertionClaims = header, claims
		if err != nil {
			writeError(rw, http.StatusUnauthorized, ErrCodeInvalidClient, "client assertion is invalid: "+err.Error())
			return
		}
	default:
		writeError(rw, http.StatusUnauthorized, ErrCodeInvalidClient, "client authentication is required")
		return
	}

	h.issueToken(rw, received.TenantID, clientID, scope)
}

func (h *TokenHandler) issueToken(rw http.ResponseWriter, tenantID, clientID, scope string) {
	lifetime := h.TokenLifetime
	if lifetime == 0 {
		lifetime = defaultTokenLifetime
	}
	key, err := GetSigningKey()
	if err != nil {
		http.Error(rw, fmt.Sprintf("Signing key is not available: %v", err), http.StatusInternalServerError)
		return
	}
	now := time.Now().UTC()
	token := jwtgo.NewWithClaims(jwtgo.SigningMethodRS256, jwtgo.MapClaims{
		"aud":   strings.TrimSuffix(scope, defaultScopeSuffix),
		"iss":   "https://sts.windows.net/" + tenantID + "/",
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   now.Add(lifetime).Unix(),
		"appid": clientID,
		"tid":   tenantID,
		"jti":   uuid.NewString(),
	})
	accessToken, err := token.SignedString(key)
	if err != nil {
		http.Error(rw, fmt.Sprintf("Failed to sign token: %v", err), http.StatusInternalServerError)
		return
	}
	response := TokenResponse{
		TokenType:    idputil.TokenTypeBearer,
		ExpiresIn:    int64(lifetime / time.Second),
		ExtExpiresIn: int64(lifetime / time.Second),
		AccessToken:  accessToken,
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err = json.NewEncoder(rw).Encode(response); err != nil {
		http.Error(rw, fmt.Sprintf("Error encoding response: %v", err), http.StatusInternalServerError)
		return
	}
}

func (h *TokenHandler) verifyClientAssertion(
	app Application, tokenURL, assertion string,
) (map[string]interface{}, jwtgo.MapClaims, error) {
	if app.Certificate == nil {
		return nil, nil, errors.New("no certificate is registered for the application")
	}
	claims := jwtgo.MapClaims{}
	parser := jwtgo.NewParser(
		jwtgo.WithValidMethods([]string{jwtgo.SigningMethodRS256.Alg()}),
		jwtgo.WithAudience(tokenURL),
		jwtgo.WithIssuer(app.ClientID),
		jwtgo.WithSubject(app.ClientID),
		jwtgo.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(assertion, claims, func(token *jwtgo.Token) (interface{}, error) {
		x5t, _ := token.Header["x5t"].(string)
		thumbprint, decodeErr := base64.RawURLEncoding.DecodeString(x5t)
		if decodeErr != nil {
			return nil, fmt.Errorf("decode x5t header: %w", decodeErr)
		}
		expected := sha1.Sum(app.Certificate.Raw) // nolint:gosec
		if !bytes.Equal(thumbprint, expected[:]) {
			return nil, errors.New("x5t header does not match the registered certificate")
		}
		return app.Certificate.PublicKey, nil
	})
	var header map[string]interface{}
	if token != nil {
		header = token.Header
	}
	if err != nil {
		return header, claims, err
	}

	nbf, err := claims.GetNotBefore()
	if err != nil || nbf == nil {
		return header, claims, errors.New("nbf claim is required")
	}
	exp, _ := claims.GetExpirationTime()
	if lifetime := exp.Sub(nbf.Time); lifetime <= 0 || lifetime > MaxClientAssertionLifetime {
		return header, claims, fmt.Errorf("assertion lifetime %s is out of range", lifetime)
	}
	if jti, _ := claims["jti"].(string); jti == "" {
		return header, claims, errors.New("jti claim is required")
	}
	return header, claims, nil
}

func (h *TokenHandler) findApplication(tenantID, clientID string) (Application, bool) {
	for _, app := range h.Applications {
		if strings.EqualFold(app.ClientID, clientID) &&
			(app.TenantID == "" || strings.EqualFold(app.TenantID, tenantID)) {
			return app, true
		}
	}
	return Application{}, false
}

func (h *TokenHandler) storeLastRequest(received *ReceivedRequest) {
	h.mu.Lock()
	h.lastRequest = received
	h.mu.Unlock()
}

// LastRequest returns the last received token request or nil if there was none.
func (h *TokenHandler) LastRequest() *ReceivedRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastRequest
}

// ServedCount returns the number of times the handler has been served.
func (h *TokenHandler) ServedCount() uint64 {
	return h.servedCount.Load()
}

// ResetServedCount resets the number of times the handler has been served.
func (h *TokenHandler) ResetServedCount() {
	h.servedCount.Store(0)
}

func writeError(rw http.ResponseWriter, status int, code, description string) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(ErrorResponse{Error: code, ErrorDescription: description})
}
