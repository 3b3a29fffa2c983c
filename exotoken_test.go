/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package exotoken

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-exotoken/idptest"
	"github.com/acronis/go-exotoken/idptoken"
)

const (
	testTenantID = "contoso.onmicrosoft.com"
	testClientID = "89cadd1f-8649-4531-8b1d-a25de5aa3cd6"
	testSecret   = "DAGztV5L2hMZyECzer6SXS"
)

func TestNewTokenProvider(t *testing.T) {
	var userAgent atomic.Value
	server := idptest.NewHTTPServer(
		idptest.WithHTTPApplications(idptest.Application{ClientID: testClientID, ClientSecret: testSecret}),
		idptest.WithHTTPMiddleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
				userAgent.Store(r.Header.Get("User-Agent"))
				next.ServeHTTP(rw, r)
			})
		}),
	)
	require.NoError(t, server.StartAndWaitForReady(time.Second))
	defer func() { _ = server.Shutdown(context.Background()) }()
	handler := server.TokenHandler.(*idptest.TokenHandler)

	req := idptoken.TokenRequest{
		TenantID:   testTenantID,
		ClientID:   testClientID,
		Credential: idptoken.ClientSecret(testSecret),
	}

	t.Run("caching", func(t *testing.T) {
		handler.ResetServedCount()
		cfg := NewDefaultConfig()
		cfg.AuthorityURL = server.URL()
		provider, err := NewTokenProvider(cfg)
		require.NoError(t, err)
		require.IsType(t, &idptoken.Provider{}, provider)

		for i := 0; i < 3; i++ {
			_, err = provider.GetToken(context.Background(), req)
			require.NoError(t, err)
		}
		require.EqualValues(t, 1, handler.ServedCount())
		require.Contains(t, userAgent.Load(), "go-exotoken/")
	})

	t.Run("cache disabled", func(t *testing.T) {
		handler.ResetServedCount()
		cfg := NewDefaultConfig()
		cfg.AuthorityURL = server.URL()
		cfg.TokenCache.Enabled = false
		provider, err := NewTokenProvider(cfg, WithTokenAcquirerHTTPClient(&http.Client{Timeout: time.Second}))
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err = provider.GetToken(context.Background(), req)
			require.NoError(t, err)
		}
		require.EqualValues(t, 3, handler.ServedCount())
	})

	t.Run("custom tenant domains", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.AuthorityURL = server.URL()
		cfg.TenantDomainPatterns = []string{"*.onmicrosoft.us"}
		acquirer := NewTokenAcquirer(cfg)

		_, err := acquirer.AcquireToken(context.Background(), req)
		require.ErrorIs(t, err, idptoken.ErrInvalidInput)

		usReq := req
		usReq.TenantID = "contoso.onmicrosoft.us"
		_, err = acquirer.AcquireToken(context.Background(), usReq)
		require.NoError(t, err)
	})
}
