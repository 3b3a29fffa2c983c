/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptoken

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-appkit/log"
	"github.com/acronis/go-appkit/lrucache"
	"golang.org/x/sync/singleflight"

	"github.com/acronis/go-exotoken/internal/idputil"
	"github.com/acronis/go-exotoken/internal/metrics"
)

const (
	// DefaultProviderCacheMaxEntries is the default maximum number of cached tokens.
	DefaultProviderCacheMaxEntries = 1000

	// DefaultProviderExpirationOffset is how long before expiration a cached token is considered stale.
	DefaultProviderExpirationOffset = 5 * time.Minute
)

// ProviderOpts represents options for creating a new Provider.
type ProviderOpts struct {
	// Logger is a logger for Provider.
	Logger log.FieldLogger

	// CacheMaxEntries is a maximum number of tokens kept in the cache.
	CacheMaxEntries int

	// ExpirationOffset is how long before expiration a cached token is replaced by a new one.
	// Tokens living shorter than the offset are replaced after a fifth of their lifetime.
	ExpirationOffset time.Duration

	// PrometheusLibInstanceLabel is a label for Prometheus metrics.
	PrometheusLibInstanceLabel string
}

type cachedToken struct {
	token       TokenResponse
	issued      time.Time
	nextRefresh time.Time
}

// Provider is a caching token provider on top of Acquirer.
// Concurrent requests for the same tenant, client, scope and credential are collapsed into one.
// Failed acquisitions are not cached and not retried.
type Provider struct {
	acquirer         *Acquirer
	logger           log.FieldLogger
	cache            *lrucache.LRUCache[string, cachedToken]
	expirationOffset time.Duration
	sfGroup          singleflight.Group
	nowFn            func() time.Time
}

// NewProvider returns a new instance of Provider with default settings.
func NewProvider(acquirer *Acquirer) (*Provider, error) {
	return NewProviderWithOpts(acquirer, ProviderOpts{})
}

// NewProviderWithOpts returns a new instance of Provider with custom settings.
func NewProviderWithOpts(acquirer *Acquirer, opts ProviderOpts) (*Provider, error) {
	if acquirer == nil {
		return nil, fmt.Errorf("acquirer is mandatory")
	}
	if opts.CacheMaxEntries == 0 {
		opts.CacheMaxEntries = DefaultProviderCacheMaxEntries
	}
	if opts.ExpirationOffset == 0 {
		opts.ExpirationOffset = DefaultProviderExpirationOffset
	}
	promMetrics := metrics.GetPrometheusMetrics(opts.PrometheusLibInstanceLabel, metrics.SourceTokenProvider)
	cache, err := lrucache.New[string, cachedToken](opts.CacheMaxEntries, promMetrics.TokenCache)
	if err != nil {
		return nil, fmt.Errorf("new token cache: %w", err)
	}
	return &Provider{
		acquirer:         acquirer,
		logger:           idputil.PrepareLogger(opts.Logger),
		cache:            cache,
		expirationOffset: opts.ExpirationOffset,
		nowFn:            time.Now,
	}, nil
}

// GetToken returns a cached token for the request or acquires a new one.
func (p *Provider) GetToken(ctx context.Context, req TokenRequest) (TokenResponse, error) {
	if err := p.acquirer.ValidateRequest(req); err != nil {
		return TokenResponse{}, err
	}
	key := keyForCache(req)
	if token, ok := p.getCached(key); ok {
		return token, nil
	}

	// The shared acquisition is detached from the cancellation of the caller that started it,
	// so other waiters are not failed by it. It is still bounded by the HTTP client timeout.
	sharedCtx := context.WithoutCancel(ctx)
	resultCh := p.sfGroup.DoChan(key, func() (interface{}, error) {
		if token, ok := p.getCached(key); ok {
			return token, nil
		}
		token, acqErr := p.acquirer.AcquireToken(sharedCtx, req)
		if acqErr != nil {
			return TokenResponse{}, acqErr
		}
		p.cacheToken(key, token)
		return token, nil
	})

	select {
	case <-ctx.Done():
		return TokenResponse{}, ctx.Err()
	case res := <-resultCh:
		if res.Err != nil {
			p.logger.Error(fmt.Sprintf("(%s, %s): getting token", req.TenantID, req.ClientID), log.Error(res.Err))
			return TokenResponse{}, res.Err
		}
		return res.Val.(TokenResponse), nil
	}
}

// Invalidate drops all cached tokens.
func (p *Provider) Invalidate() {
	p.cache.Purge()
}

func (p *Provider) getCached(key string) (TokenResponse, bool) {
	details, found := p.cache.Get(key)
	if !found {
		return TokenResponse{}, false
	}
	now := p.nowFn()
	if now.After(details.nextRefresh) || now.Before(details.issued) {
		return TokenResponse{}, false
	}
	return details.token, true
}

func (p *Provider) cacheToken(key string, token TokenResponse) {
	issued := p.nowFn()
	lifetime := token.ExpiresAt.Sub(issued)
	refreshAfter := lifetime - p.expirationOffset
	if lifetime < p.expirationOffset {
		refreshAfter = lifetime / 5
	}
	if refreshAfter <= 0 {
		return
	}
	p.cache.Add(key, cachedToken{token: token, issued: issued, nextRefresh: issued.Add(refreshAfter)})
}

func keyForCache(req TokenRequest) string {
	return strings.Join([]string{
		strings.ToLower(req.TenantID),
		strings.ToLower(req.ClientID),
		ResolveScope(req.Scope),
		req.Credential.fingerprint(),
	}, ":")
}
