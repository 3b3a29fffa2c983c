/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptoken

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/acronis/go-appkit/log"

	"github.com/acronis/go-exotoken/internal/idputil"
	"github.com/acronis/go-exotoken/internal/metrics"
)

// DefaultAuthorityURL is the Microsoft identity platform authority for the global cloud.
const DefaultAuthorityURL = "https://login.microsoftonline.com"

const (
	tokenEndpointPathFormat = "/%s/oauth2/v2.0/token"
	grantTypeClientCreds    = "client_credentials"
	maxResponseBodySize     = 1 << 20
)

// TokenRequest describes a single client-credentials token request.
type TokenRequest struct {
	// TenantID is a GUID or a recognized domain name (e.g. contoso.onmicrosoft.com).
	TenantID string

	// ClientID is the application (client) ID, a GUID.
	ClientID string

	// Credential is either ClientSecret or *CertificateCredential.
	Credential Credential

	// Scope selects the token audience. Empty means ScopeDefault.
	Scope Scope
}

// TokenResponse is the token endpoint response.
// Raw holds the response body exactly as received.
type TokenResponse struct {
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	ExtExpiresIn int64           `json:"ext_expires_in,omitempty"`
	AccessToken  string          `json:"access_token"`
	Raw          json.RawMessage `json:"-"`

	// ExpiresAt is computed locally from ExpiresIn at the moment the response was received.
	ExpiresAt time.Time `json:"-"`
}

// AcquirerOpts represents options for creating a new Acquirer.
type AcquirerOpts struct {
	// Logger is a logger for Acquirer.
	Logger log.FieldLogger

	// AuthorityURL is the base URL of the identity platform. DefaultAuthorityURL is used if empty.
	AuthorityURL string

	// TenantDomainPatterns are glob patterns of recognized tenant domain names.
	// DefaultTenantDomainPattern is used if empty.
	TenantDomainPatterns []string

	// CustomHeaders is a map of custom headers to be used in all HTTP requests.
	CustomHeaders map[string]string

	// PrometheusLibInstanceLabel is a label for Prometheus metrics.
	// It allows distinguishing metrics from different instances of the same service.
	PrometheusLibInstanceLabel string
}

// Acquirer requests access tokens using the client-credentials grant.
// It keeps no state between calls and never retries, retry policy is up to the caller.
type Acquirer struct {
	httpClient      *http.Client
	logger          log.FieldLogger
	authorityURL    string
	tenantValidator *TenantValidator
	customHeaders   map[string]string
	promMetrics     *metrics.PrometheusMetrics
	nowFn           func() time.Time
}

// NewAcquirer returns a new instance of Acquirer with default settings.
func NewAcquirer(httpClient *http.Client) *Acquirer {
	return NewAcquirerWithOpts(httpClient, AcquirerOpts{})
}

// NewAcquirerWithOpts returns a new instance of Acquirer with custom settings.
// If httpClient is nil, a client with the default timeout is used.
func NewAcquirerWithOpts(httpClient *http.Client, opts AcquirerOpts) *Acquirer {
	if httpClient == nil {
		httpClient = idputil.MakeDefaultHTTPClient(idputil.DefaultHTTPRequestTimeout)
	}
	authorityURL := strings.TrimSuffix(opts.AuthorityURL, "/")
	if authorityURL == "" {
		authorityURL = DefaultAuthorityURL
	}
	return &Acquirer{
		httpClient:      httpClient,
		logger:          idputil.PrepareLogger(opts.Logger),
		authorityURL:    authorityURL,
		tenantValidator: NewTenantValidator(opts.TenantDomainPatterns...),
		customHeaders:   opts.CustomHeaders,
		promMetrics:     metrics.GetPrometheusMetrics(opts.PrometheusLibInstanceLabel, metrics.SourceTokenAcquirer),
		nowFn:           time.Now,
	}
}

// TokenURL returns the tenant-scoped token endpoint URL.
func (a *Acquirer) TokenURL(tenantID string) string {
	return a.authorityURL + fmt.Sprintf(tokenEndpointPathFormat, url.PathEscape(tenantID))
}

// ValidateRequest checks the request without making any network calls.
func (a *Acquirer) ValidateRequest(req TokenRequest) error {
	if err := a.tenantValidator.Validate(req.TenantID); err != nil {
		return err
	}
	if err := ValidateClientID(req.ClientID); err != nil {
		return err
	}
	return validateCredential(req.Credential)
}

// AcquireToken requests a new access token.
// Errors match ErrInvalidInput, ErrSigningFailure or ErrTokenRequestFailed.
func (a *Acquirer) AcquireToken(ctx context.Context, req TokenRequest) (TokenResponse, error) {
	if err := a.ValidateRequest(req); err != nil {
		return TokenResponse{}, err
	}

	scope, known := req.Scope.Audience()
	if !known {
		a.logger.Warn(fmt.Sprintf("(%s, %s): unknown scope selector %q, %s is used",
			req.TenantID, req.ClientID, req.Scope, scope))
	}
	tokenURL := a.TokenURL(req.TenantID)

	values := url.Values{}
	values.Set("client_id", req.ClientID)
	values.Set("scope", scope)
	values.Set("grant_type", grantTypeClientCreds)
	if err := req.Credential.addToForm(values, req.ClientID, tokenURL, a.nowFn()); err != nil {
		return TokenResponse{}, err
	}

	return a.requestToken(ctx, tokenURL, req.ClientID, values)
}

func (a *Acquirer) requestToken(
	ctx context.Context, tokenURL, clientID string, values url.Values,
) (TokenResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return TokenResponse{}, &TokenRequestError{TokenURL: tokenURL, Inner: fmt.Errorf("new request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	for key, val := range a.customHeaders {
		httpReq.Header.Set(key, val)
	}

	start := time.Now()
	resp, err := a.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		a.promMetrics.ObserveHTTPClientRequest(http.MethodPost, tokenURL, 0, elapsed, metrics.HTTPRequestErrorDo)
		a.logger.Error(fmt.Sprintf("(%s, %s): token request", tokenURL, clientID), log.Error(err))
		return TokenResponse{}, &TokenRequestError{TokenURL: tokenURL, Inner: fmt.Errorf("do http request: %w", err)}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			a.logger.Error(fmt.Sprintf("(%s, %s): closing body", tokenURL, clientID), log.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		a.promMetrics.ObserveHTTPClientRequest(
			http.MethodPost, tokenURL, resp.StatusCode, elapsed, metrics.HTTPRequestErrorDo)
		return TokenResponse{}, &TokenRequestError{TokenURL: tokenURL, Inner: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.promMetrics.ObserveHTTPClientRequest(
			http.MethodPost, tokenURL, resp.StatusCode, elapsed, metrics.HTTPRequestErrorUnexpectedStatusCode)
		respErr := &idputil.UnexpectedResponseError{StatusCode: resp.StatusCode, Header: resp.Header}
		var errResp idputil.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil {
			respErr.ErrorCode = errResp.Error
			respErr.ErrorDescription = errResp.ErrorDescription
		}
		a.logger.Error(fmt.Sprintf("(%s, %s): token request", tokenURL, clientID), log.Error(respErr))
		return TokenResponse{}, &TokenRequestError{TokenURL: tokenURL, Inner: respErr}
	}

	var tokenResp TokenResponse
	if err = json.NewDecoder(bytes.NewReader(body)).Decode(&tokenResp); err != nil {
		a.promMetrics.ObserveHTTPClientRequest(
			http.MethodPost, tokenURL, resp.StatusCode, elapsed, metrics.HTTPRequestErrorDecodeBody)
		return TokenResponse{}, &TokenRequestError{TokenURL: tokenURL, Inner: fmt.Errorf(
			"decode response body json (Content-Type: %s): %w", resp.Header.Get("Content-Type"), err)}
	}

	a.promMetrics.ObserveHTTPClientRequest(http.MethodPost, tokenURL, resp.StatusCode, elapsed, "")
	tokenResp.Raw = body
	tokenResp.ExpiresAt = a.nowFn().Add(time.Second * time.Duration(tokenResp.ExpiresIn))
	a.logger.Infof("(%s, %s): issued token, expires on %s", tokenURL, clientID, tokenResp.ExpiresAt.UTC())
	return tokenResp, nil
}
