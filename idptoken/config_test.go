/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptoken_test

import (
	"bytes"
	"testing"

	"github.com/acronis/go-appkit/config"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-exotoken/idptest"
	"github.com/acronis/go-exotoken/idptoken"
)

func TestConfig(t *testing.T) {
	type testCase struct {
		name        string
		cfgData     string
		setupEnv    map[string]string
		expectedCfg *idptoken.Config
		errKey      string
	}

	testCases := []testCase{
		{
			name: "client secret",
			cfgData: `
idp:
  tenantId: contoso.onmicrosoft.com
  clientId: 89cadd1f-8649-4531-8b1d-a25de5aa3cd6
  clientSecret: DAGztV5L2hMZyECzer6SXS
  scope: EWS
`,
			expectedCfg: &idptoken.Config{
				TenantID:     "contoso.onmicrosoft.com",
				ClientID:     "89cadd1f-8649-4531-8b1d-a25de5aa3cd6",
				ClientSecret: "DAGztV5L2hMZyECzer6SXS",
				Scope:        idptoken.ScopeEWS,
			},
		},
		{
			name: "certificate, default scope",
			cfgData: `
idp:
  tenantId: 72f988bf-86f1-41af-91ab-2d7cd011db47
  clientId: 89cadd1f-8649-4531-8b1d-a25de5aa3cd6
  certificate:
    file: /etc/exotoken/app.pfx
    password: secret
`,
			expectedCfg: &idptoken.Config{
				TenantID: "72f988bf-86f1-41af-91ab-2d7cd011db47",
				ClientID: "89cadd1f-8649-4531-8b1d-a25de5aa3cd6",
				Certificate: idptoken.CertificateConfig{
					File:     "/etc/exotoken/app.pfx",
					Password: "secret",
				},
				Scope: idptoken.ScopeDefault,
			},
		},
		{
			name: "values from env",
			cfgData: `
idp:
  tenantId: contoso.onmicrosoft.com
`,
			setupEnv: map[string]string{
				"IDP_CLIENTID":     "89cadd1f-8649-4531-8b1d-a25de5aa3cd6",
				"IDP_CLIENTSECRET": "DAGztV5L2hMZyECzer6SXS",
			},
			expectedCfg: &idptoken.Config{
				TenantID:     "contoso.onmicrosoft.com",
				ClientID:     "89cadd1f-8649-4531-8b1d-a25de5aa3cd6",
				ClientSecret: "DAGztV5L2hMZyECzer6SXS",
				Scope:        idptoken.ScopeDefault,
			},
		},
		{
			name: "malformed client ID",
			cfgData: `
idp:
  clientId: my-app
`,
			errKey: "idp.clientId",
		},
		{
			name: "both credentials",
			cfgData: `
idp:
  clientSecret: DAGztV5L2hMZyECzer6SXS
  certificate:
    file: /etc/exotoken/app.pfx
`,
			errKey: "idp.clientSecret",
		},
		{
			name: "unknown scope",
			cfgData: `
idp:
  scope: Teams
`,
			errKey: "idp.scope",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.setupEnv {
				t.Setenv(k, v)
			}

			cfg := idptoken.NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tc.cfgData), config.DataTypeYAML, cfg)
			if tc.errKey != "" {
				require.ErrorIs(t, err, idptoken.ErrInvalidInput)
				require.ErrorContains(t, err, tc.errKey+": ")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectedCfg, cfg)
			require.NoError(t, cfg.Validate())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &idptoken.Config{ClientID: testClientID, ClientSecret: testClientSecret}
	require.ErrorIs(t, cfg.Validate(), idptoken.ErrInvalidInput)

	cfg = &idptoken.Config{TenantID: testTenantID, ClientSecret: testClientSecret}
	require.ErrorIs(t, cfg.Validate(), idptoken.ErrInvalidInput)

	cfg = &idptoken.Config{TenantID: testTenantID, ClientID: testClientID}
	require.ErrorIs(t, cfg.Validate(), idptoken.ErrInvalidInput)
	_, err := cfg.TokenRequest()
	require.ErrorIs(t, err, idptoken.ErrInvalidInput)
}

func TestConfig_TokenRequest(t *testing.T) {
	t.Run("client secret", func(t *testing.T) {
		cfg := &idptoken.Config{
			TenantID: testTenantID, ClientID: testClientID, ClientSecret: testClientSecret, Scope: idptoken.ScopeSMTP}
		req, err := cfg.TokenRequest()
		require.NoError(t, err)
		require.Equal(t, idptoken.TokenRequest{
			TenantID:   testTenantID,
			ClientID:   testClientID,
			Credential: idptoken.ClientSecret(testClientSecret),
			Scope:      idptoken.ScopeSMTP,
		}, req)
	})

	t.Run("certificate from PEM files", func(t *testing.T) {
		cert, key := idptest.MustNewTestCertificate("config")
		certFile, keyFile, err := idptest.WritePEMFiles(t.TempDir(), cert, key)
		require.NoError(t, err)

		cfg := &idptoken.Config{
			TenantID:    testTenantID,
			ClientID:    testClientID,
			Certificate: idptoken.CertificateConfig{File: certFile, KeyFile: keyFile},
		}
		req, err := cfg.TokenRequest()
		require.NoError(t, err)
		certCred, ok := req.Credential.(*idptoken.CertificateCredential)
		require.True(t, ok)
		require.True(t, certCred.Certificate.Equal(cert))
	})

	t.Run("missing certificate file", func(t *testing.T) {
		cfg := &idptoken.Config{
			TenantID:    testTenantID,
			ClientID:    testClientID,
			Certificate: idptoken.CertificateConfig{File: "/nonexistent/app.pfx"},
		}
		_, err := cfg.TokenRequest()
		require.ErrorIs(t, err, idptoken.ErrInvalidInput)
	})
}
