/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptoken

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/vasayxtx/go-glob"
)

// DefaultTenantDomainPattern is the domain suffix recognized for tenants identified by name.
const DefaultTenantDomainPattern = "*.onmicrosoft.com"

// MaxClientSecretLength is the maximum length of a client secret.
const MaxClientSecretLength = 40

const guidLength = 36

var (
	clientSecretRegexp = regexp.MustCompile(`^[A-Za-z0-9._~-]+$`)
	domainLabelRegexp  = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
)

// TenantValidator checks tenant identifiers.
// A tenant is either a GUID or a domain name matching one of the recognized domain patterns.
type TenantValidator struct {
	domainMatchers []func(string) bool
}

// NewTenantValidator creates a validator recognizing the given domain glob patterns
// (e.g. "*.onmicrosoft.com"). DefaultTenantDomainPattern is used if no patterns are passed.
func NewTenantValidator(domainPatterns ...string) *TenantValidator {
	if len(domainPatterns) == 0 {
		domainPatterns = []string{DefaultTenantDomainPattern}
	}
	v := &TenantValidator{domainMatchers: make([]func(string) bool, 0, len(domainPatterns))}
	for _, pattern := range domainPatterns {
		v.domainMatchers = append(v.domainMatchers, glob.Compile(strings.ToLower(pattern)))
	}
	return v
}

// Validate returns ErrInvalidInput if tenantID is neither a GUID nor a recognized domain.
func (v *TenantValidator) Validate(tenantID string) error {
	if isGUID(tenantID) {
		return nil
	}
	domain := strings.ToLower(tenantID)
	if !isDomainName(domain) {
		return newInvalidInputError("tenant ID", "must be a GUID or a domain name")
	}
	for _, match := range v.domainMatchers {
		if match(domain) {
			return nil
		}
	}
	return newInvalidInputError("tenant ID", "has unrecognized domain suffix")
}

var defaultTenantValidator = NewTenantValidator()

// ValidateTenantID checks tenantID against DefaultTenantDomainPattern.
func ValidateTenantID(tenantID string) error {
	return defaultTenantValidator.Validate(tenantID)
}

// ValidateClientID returns ErrInvalidInput if clientID is not a GUID.
func ValidateClientID(clientID string) error {
	if !isGUID(clientID) {
		return newInvalidInputError("client ID", "must be a GUID")
	}
	return nil
}

// ValidateClientSecret returns ErrInvalidInput if secret is empty, too long, or has characters
// outside of [A-Za-z0-9._~-].
func ValidateClientSecret(secret string) error {
	if secret == "" {
		return newInvalidInputError("client secret", "is empty")
	}
	if len(secret) > MaxClientSecretLength {
		return newInvalidInputError("client secret", "is too long")
	}
	if !clientSecretRegexp.MatchString(secret) {
		return newInvalidInputError("client secret", "contains unsupported characters")
	}
	return nil
}

// isGUID accepts only the canonical 8-4-4-4-12 form, uuid.Parse alone also accepts URN and braced forms.
func isGUID(s string) bool {
	if len(s) != guidLength {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isDomainName(s string) bool {
	if len(s) > 253 {
		return false
	}
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if !domainLabelRegexp.MatchString(label) {
			return false
		}
	}
	return true
}
