/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-exotoken/idptest"
	"github.com/acronis/go-exotoken/idptoken"
)

const (
	testTenantID = "contoso.onmicrosoft.com"
	testClientID = "89cadd1f-8649-4531-8b1d-a25de5aa3cd6"
	testSecret   = "DAGztV5L2hMZyECzer6SXS"
)

func postForm(t *testing.T, tokenURL string, form url.Values) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.PostForm(tokenURL, form)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	var body json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestHTTPServer_TokenEndpoint(t *testing.T) {
	cert, key := idptest.MustNewTestCertificate("app")
	otherCert, otherKey := idptest.MustNewTestCertificate("other")

	server := idptest.NewHTTPServer(idptest.WithHTTPApplications(idptest.Application{
		TenantID:     testTenantID,
		ClientID:     testClientID,
		ClientSecret: testSecret,
		Certificate:  cert,
	}))
	require.NoError(t, server.StartAndWaitForReady(time.Second))
	defer func() { _ = server.Shutdown(context.Background()) }()
	tokenURL := server.TokenURL(testTenantID)

	baseForm := func() url.Values {
		return url.Values{
			"client_id":  {testClientID},
			"scope":      {idptoken.GraphDefaultScope},
			"grant_type": {"client_credentials"},
		}
	}
	requireOAuth2Error := func(t *testing.T, form url.Values, status int, code string) {
		t.Helper()
		resp, body := postForm(t, tokenURL, form)
		require.Equal(t, status, resp.StatusCode)
		var errResp idptest.ErrorResponse
		require.NoError(t, json.Unmarshal(body, &errResp))
		require.Equal(t, code, errResp.Error)
	}

	t.Run("client secret", func(t *testing.T) {
		form := baseForm()
		form.Set("client_secret", testSecret)
		resp, body := postForm(t, tokenURL, form)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var tokenResp idptest.TokenResponse
		require.NoError(t, json.Unmarshal(body, &tokenResp))
		require.Equal(t, "Bearer", tokenResp.TokenType)
		require.EqualValues(t, 3600, tokenResp.ExpiresIn)

		signingKey, err := idptest.GetSigningKey()
		require.NoError(t, err)
		claims := jwtgo.MapClaims{}
		_, err = jwtgo.ParseWithClaims(tokenResp.AccessToken, claims, func(*jwtgo.Token) (interface{}, error) {
			return &signingKey.PublicKey, nil
		})
		require.NoError(t, err)
		require.Equal(t, "https://graph.microsoft.com", claims["aud"])
		require.Equal(t, testClientID, claims["appid"])
		require.Equal(t, testTenantID, claims["tid"])
	})

	t.Run("client assertion", func(t *testing.T) {
		assertion, err := idptoken.NewClientAssertion(
			idptoken.NewCertificateCredential(cert, key), testClientID, tokenURL, time.Now())
		require.NoError(t, err)
		form := baseForm()
		form.Set("client_assertion_type", "urn:ietf:params:oauth:client-assertion-type:jwt-bearer")
		form.Set("client_assertion", assertion)
		resp, _ := postForm(t, tokenURL, form)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		last := server.TokenHandler.(*idptest.TokenHandler).LastRequest()
		require.NotNil(t, last)
		require.Equal(t, testTenantID, last.TenantID)
		require.Equal(t, tokenURL, last.AssertionClaims["aud"])
		require.Equal(t, "RS256", last.AssertionHeader["alg"])
	})

	t.Run("wrong secret", func(t *testing.T) {
		form := baseForm()
		form.Set("client_secret", "wrong")
		requireOAuth2Error(t, form, http.StatusUnauthorized, idptest.ErrCodeInvalidClient)
	})

	t.Run("assertion signed by another certificate", func(t *testing.T) {
		assertion, err := idptoken.NewClientAssertion(
			idptoken.NewCertificateCredential(otherCert, otherKey), testClientID, tokenURL, time.Now())
		require.NoError(t, err)
		form := baseForm()
		form.Set("client_assertion_type", "urn:ietf:params:oauth:client-assertion-type:jwt-bearer")
		form.Set("client_assertion", assertion)
		requireOAuth2Error(t, form, http.StatusUnauthorized, idptest.ErrCodeInvalidClient)
	})

	t.Run("expired assertion", func(t *testing.T) {
		assertion, err := idptoken.NewClientAssertion(
			idptoken.NewCertificateCredential(cert, key), testClientID, tokenURL, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		form := baseForm()
		form.Set("client_assertion_type", "urn:ietf:params:oauth:client-assertion-type:jwt-bearer")
		form.Set("client_assertion", assertion)
		requireOAuth2Error(t, form, http.StatusUnauthorized, idptest.ErrCodeInvalidClient)
	})

	t.Run("assertion for another audience", func(t *testing.T) {
		assertion, err := idptoken.NewClientAssertion(
			idptoken.NewCertificateCredential(cert, key), testClientID, server.TokenURL("fabrikam.onmicrosoft.com"), time.Now())
		require.NoError(t, err)
		form := baseForm()
		form.Set("client_assertion_type", "urn:ietf:params:oauth:client-assertion-type:jwt-bearer")
		form.Set("client_assertion", assertion)
		requireOAuth2Error(t, form, http.StatusUnauthorized, idptest.ErrCodeInvalidClient)
	})

	t.Run("both secret and assertion", func(t *testing.T) {
		form := baseForm()
		form.Set("client_secret", testSecret)
		form.Set("client_assertion", "a.b.c")
		requireOAuth2Error(t, form, http.StatusBadRequest, idptest.ErrCodeInvalidRequest)
	})

	t.Run("no client authentication", func(t *testing.T) {
		requireOAuth2Error(t, baseForm(), http.StatusUnauthorized, idptest.ErrCodeInvalidClient)
	})

	t.Run("unknown application", func(t *testing.T) {
		form := baseForm()
		form.Set("client_id", "00000000-0000-0000-0000-000000000001")
		form.Set("client_secret", testSecret)
		requireOAuth2Error(t, form, http.StatusBadRequest, idptest.ErrCodeUnauthorizedClient)
	})

	t.Run("unsupported grant type", func(t *testing.T) {
		form := baseForm()
		form.Set("grant_type", "password")
		requireOAuth2Error(t, form, http.StatusBadRequest, idptest.ErrCodeUnsupportedGrantType)
	})

	t.Run("scope without .default suffix", func(t *testing.T) {
		form := baseForm()
		form.Set("scope", "https://graph.microsoft.com/User.Read")
		form.Set("client_secret", testSecret)
		requireOAuth2Error(t, form, http.StatusBadRequest, idptest.ErrCodeInvalidScope)
	})

	t.Run("GET is not allowed", func(t *testing.T) {
		resp, err := http.Get(tokenURL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestWritePEMFiles(t *testing.T) {
	cert, key := idptest.MustNewTestCertificate("pem")
	certFile, keyFile, err := idptest.WritePEMFiles(t.TempDir(), cert, key)
	require.NoError(t, err)

	cred, err := idptoken.NewCertificateCredentialFromFiles(certFile, keyFile, "")
	require.NoError(t, err)
	require.True(t, cred.Certificate.Equal(cert))
	require.True(t, strings.HasSuffix(certFile, "cert.pem"))
}
