/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptoken_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-exotoken/idptoken"
)

func TestScopeAudience(t *testing.T) {
	tests := []struct {
		scope       idptoken.Scope
		expectedAud string
		expectedOK  bool
	}{
		{scope: "", expectedAud: "https://graph.microsoft.com/.default", expectedOK: true},
		{scope: idptoken.ScopeDefault, expectedAud: "https://graph.microsoft.com/.default", expectedOK: true},
		{scope: idptoken.ScopeEWS, expectedAud: "https://outlook.office365.com/.default", expectedOK: true},
		{scope: idptoken.ScopeIMAP, expectedAud: "https://outlook.office365.com/.default", expectedOK: true},
		{scope: idptoken.ScopePOP, expectedAud: "https://outlook.office365.com/.default", expectedOK: true},
		{scope: idptoken.ScopeSMTP, expectedAud: "https://outlook.office365.com/.default", expectedOK: true},
		{scope: "ews", expectedAud: "https://outlook.office365.com/.default", expectedOK: true},
		{scope: "Teams", expectedAud: "https://graph.microsoft.com/.default", expectedOK: false},
	}
	for _, tt := range tests {
		t.Run(string(tt.scope), func(t *testing.T) {
			aud, ok := tt.scope.Audience()
			require.Equal(t, tt.expectedAud, aud)
			require.Equal(t, tt.expectedOK, ok)
			require.Equal(t, tt.expectedAud, idptoken.ResolveScope(tt.scope))
		})
	}
}

func TestKnownScopes(t *testing.T) {
	scopes := idptoken.KnownScopes()
	require.Equal(t, idptoken.ScopeDefault, scopes[0])
	for _, s := range scopes {
		_, ok := s.Audience()
		require.True(t, ok, s)
	}
}
