/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptoken_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-exotoken/idptoken"
)

func TestValidateTenantID(t *testing.T) {
	tests := []struct {
		name    string
		tenant  string
		isValid bool
	}{
		{name: "GUID", tenant: "72f988bf-86f1-41af-91ab-2d7cd011db47", isValid: true},
		{name: "upper-case GUID", tenant: "72F988BF-86F1-41AF-91AB-2D7CD011DB47", isValid: true},
		{name: "onmicrosoft domain", tenant: "contoso.onmicrosoft.com", isValid: true},
		{name: "mixed-case onmicrosoft domain", tenant: "Contoso.OnMicrosoft.com", isValid: true},
		{name: "domain with dash", tenant: "contoso-eu.onmicrosoft.com", isValid: true},
		{name: "empty", tenant: "", isValid: false},
		{name: "braced GUID", tenant: "{72f988bf-86f1-41af-91ab-2d7cd011db47}", isValid: false},
		{name: "GUID without dashes", tenant: "72f988bf86f141af91ab2d7cd011db47", isValid: false},
		{name: "GUID URN", tenant: "urn:uuid:72f988bf-86f1-41af-91ab-2d7cd011db47", isValid: false},
		{name: "truncated GUID", tenant: "72f988bf-86f1-41af-91ab-2d7cd011db4", isValid: false},
		{name: "bare suffix", tenant: "onmicrosoft.com", isValid: false},
		{name: "empty label", tenant: ".onmicrosoft.com", isValid: false},
		{name: "other domain", tenant: "contoso.com", isValid: false},
		{name: "suffix lookalike", tenant: "contoso.onmicrosoft.com.evil.io", isValid: false},
		{name: "label with underscore", tenant: "con_toso.onmicrosoft.com", isValid: false},
		{name: "label starting with dash", tenant: "-contoso.onmicrosoft.com", isValid: false},
		{name: "path injection", tenant: "contoso.onmicrosoft.com/../common", isValid: false},
		{name: "common endpoint", tenant: "common", isValid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := idptoken.ValidateTenantID(tt.tenant)
			if tt.isValid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, idptoken.ErrInvalidInput)
			var inputErr *idptoken.InvalidInputError
			require.ErrorAs(t, err, &inputErr)
			require.Equal(t, "tenant ID", inputErr.Field)
		})
	}
}

func TestTenantValidator_CustomDomains(t *testing.T) {
	v := idptoken.NewTenantValidator("*.onmicrosoft.us", "*.partner.onmschina.cn")
	require.NoError(t, v.Validate("contoso.onmicrosoft.us"))
	require.NoError(t, v.Validate("contoso.partner.onmschina.cn"))
	require.NoError(t, v.Validate("72f988bf-86f1-41af-91ab-2d7cd011db47"))
	require.ErrorIs(t, v.Validate("contoso.onmicrosoft.com"), idptoken.ErrInvalidInput)
}

func TestValidateClientID(t *testing.T) {
	require.NoError(t, idptoken.ValidateClientID("89cadd1f-8649-4531-8b1d-a25de5aa3cd6"))
	for _, clientID := range []string{"", "my-app", "89cadd1f864945318b1da25de5aa3cd6", "89cadd1f-8649-4531-8b1d-a25de5aa3cdz"} {
		err := idptoken.ValidateClientID(clientID)
		require.ErrorIs(t, err, idptoken.ErrInvalidInput, clientID)
	}
}

func TestValidateClientSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		isValid bool
	}{
		{name: "typical secret", secret: "Abc8Q~xYz.1_2-3", isValid: true},
		{name: "max length", secret: strings.Repeat("a", idptoken.MaxClientSecretLength), isValid: true},
		{name: "too long", secret: strings.Repeat("a", idptoken.MaxClientSecretLength+1), isValid: false},
		{name: "empty", secret: "", isValid: false},
		{name: "space", secret: "abc def", isValid: false},
		{name: "quote", secret: `abc"def`, isValid: false},
		{name: "non-ascii", secret: "pässwort", isValid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := idptoken.ValidateClientSecret(tt.secret)
			if tt.isValid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, idptoken.ErrInvalidInput)
			}
		})
	}
}
