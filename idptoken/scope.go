/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptoken

import "strings"

// Scope selects the audience of the requested token.
type Scope string

// Known scope selectors.
const (
	ScopeDefault Scope = "Default"
	ScopeEWS     Scope = "EWS"
	ScopeIMAP    Scope = "IMAP"
	ScopePOP     Scope = "POP"
	ScopeSMTP    Scope = "SMTP"
)

// Audiences the scope selectors resolve to.
const (
	GraphDefaultScope   = "https://graph.microsoft.com/.default"
	OutlookDefaultScope = "https://outlook.office365.com/.default"
)

var scopeAudiences = map[Scope]string{
	ScopeDefault: GraphDefaultScope,
	ScopeEWS:     OutlookDefaultScope,
	ScopeIMAP:    OutlookDefaultScope,
	ScopePOP:     OutlookDefaultScope,
	ScopeSMTP:    OutlookDefaultScope,
}

// KnownScopes returns all recognized scope selectors, the default one first.
func KnownScopes() []Scope {
	return []Scope{ScopeDefault, ScopeEWS, ScopeIMAP, ScopePOP, ScopeSMTP}
}

// Audience returns the ".default" scope string for the selector.
// Matching is case-insensitive. The empty selector is the default one.
// ok is false for unrecognized selectors, in which case the default audience is returned.
func (s Scope) Audience() (audience string, ok bool) {
	if s == "" {
		return GraphDefaultScope, true
	}
	for known, aud := range scopeAudiences {
		if strings.EqualFold(string(known), string(s)) {
			return aud, true
		}
	}
	return GraphDefaultScope, false
}

// ResolveScope returns the audience for the selector falling back to GraphDefaultScope.
func ResolveScope(s Scope) string {
	aud, _ := s.Audience()
	return aud
}
