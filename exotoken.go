/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package exotoken

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/acronis/go-appkit/log"

	"github.com/acronis/go-exotoken/idptoken"
	"github.com/acronis/go-exotoken/internal/idputil"
)

// TokenProvider returns access tokens for token requests.
// Both *idptoken.Provider and the non-caching provider returned by NewTokenProvider implement it.
type TokenProvider interface {
	GetToken(ctx context.Context, req idptoken.TokenRequest) (idptoken.TokenResponse, error)
}

type tokenAcquirerOptions struct {
	logger                     log.FieldLogger
	httpClient                 *http.Client
	customHeaders              map[string]string
	prometheusLibInstanceLabel string
}

// TokenAcquirerOption is an option for creating token acquirers and providers.
type TokenAcquirerOption func(options *tokenAcquirerOptions)

// WithTokenAcquirerLogger sets the logger.
func WithTokenAcquirerLogger(logger log.FieldLogger) TokenAcquirerOption {
	return func(options *tokenAcquirerOptions) {
		options.logger = logger
	}
}

// WithTokenAcquirerHTTPClient sets the HTTP client, cfg.HTTPClient is ignored in this case.
func WithTokenAcquirerHTTPClient(httpClient *http.Client) TokenAcquirerOption {
	return func(options *tokenAcquirerOptions) {
		options.httpClient = httpClient
	}
}

// WithTokenAcquirerCustomHeaders sets headers sent with every token request.
func WithTokenAcquirerCustomHeaders(headers map[string]string) TokenAcquirerOption {
	return func(options *tokenAcquirerOptions) {
		options.customHeaders = headers
	}
}

// WithTokenAcquirerPrometheusLibInstanceLabel sets the Prometheus lib instance label.
func WithTokenAcquirerPrometheusLibInstanceLabel(label string) TokenAcquirerOption {
	return func(options *tokenAcquirerOptions) {
		options.prometheusLibInstanceLabel = label
	}
}

// NewTokenAcquirer creates a new idptoken.Acquirer with the given configuration.
func NewTokenAcquirer(cfg *Config, opts ...TokenAcquirerOption) *idptoken.Acquirer {
	var options tokenAcquirerOptions
	for _, opt := range opts {
		opt(&options)
	}
	return newTokenAcquirer(cfg, options)
}

func newTokenAcquirer(cfg *Config, options tokenAcquirerOptions) *idptoken.Acquirer {
	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = idputil.MakeDefaultHTTPClient(time.Duration(cfg.HTTPClient.RequestTimeout))
	}
	return idptoken.NewAcquirerWithOpts(httpClient, idptoken.AcquirerOpts{
		Logger:                     options.logger,
		AuthorityURL:               cfg.AuthorityURL,
		TenantDomainPatterns:       cfg.TenantDomainPatterns,
		CustomHeaders:              options.customHeaders,
		PrometheusLibInstanceLabel: options.prometheusLibInstanceLabel,
	})
}

// NewTokenProvider creates a new TokenProvider with the given configuration.
// If cfg.TokenCache.Enabled is true, then idptoken.Provider is created,
// otherwise every GetToken call goes to the token endpoint.
func NewTokenProvider(cfg *Config, opts ...TokenAcquirerOption) (TokenProvider, error) {
	var options tokenAcquirerOptions
	for _, opt := range opts {
		opt(&options)
	}
	acquirer := newTokenAcquirer(cfg, options)
	if !cfg.TokenCache.Enabled {
		return nonCachingProvider{acquirer}, nil
	}
	provider, err := idptoken.NewProviderWithOpts(acquirer, idptoken.ProviderOpts{
		Logger:                     options.logger,
		CacheMaxEntries:            cfg.TokenCache.MaxEntries,
		ExpirationOffset:           time.Duration(cfg.TokenCache.ExpirationOffset),
		PrometheusLibInstanceLabel: options.prometheusLibInstanceLabel,
	})
	if err != nil {
		return nil, fmt.Errorf("new token provider: %w", err)
	}
	return provider, nil
}

type nonCachingProvider struct {
	acquirer *idptoken.Acquirer
}

func (p nonCachingProvider) GetToken(ctx context.Context, req idptoken.TokenRequest) (idptoken.TokenResponse, error) {
	return p.acquirer.AcquireToken(ctx, req)
}
