/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptoken

import (
	"fmt"

	"github.com/acronis/go-appkit/config"
)

const (
	cfgKeyIDPTenantID            = "idp.tenantId"
	cfgKeyIDPClientID            = "idp.clientId"
	cfgKeyIDPClientSecret        = "idp.clientSecret"
	cfgKeyIDPCertificateFile     = "idp.certificate.file"
	cfgKeyIDPCertificateKeyFile  = "idp.certificate.keyFile"
	cfgKeyIDPCertificatePassword = "idp.certificate.password"
	cfgKeyIDPScope               = "idp.scope"
)

// Config is a configuration of the application identity used for token requests.
// Exactly one of ClientSecret and Certificate.File must be set.
type Config struct {
	TenantID     string            `mapstructure:"tenantId" yaml:"tenantId" json:"tenantId"`
	ClientID     string            `mapstructure:"clientId" yaml:"clientId" json:"clientId"`
	ClientSecret string            `mapstructure:"clientSecret" yaml:"clientSecret" json:"clientSecret"`
	Certificate  CertificateConfig `mapstructure:"certificate" yaml:"certificate" json:"certificate"`
	Scope        Scope             `mapstructure:"scope" yaml:"scope" json:"scope"`
}

// CertificateConfig points to the certificate registered for the application.
type CertificateConfig struct {
	// File is a PKCS#12 (.pfx/.p12) bundle or a PEM file.
	File string `mapstructure:"file" yaml:"file" json:"file"`

	// KeyFile is a PEM private key, needed only if File is PEM without the key.
	KeyFile string `mapstructure:"keyFile" yaml:"keyFile" json:"keyFile"`

	// Password decrypts the PKCS#12 bundle.
	Password string `mapstructure:"password" yaml:"password" json:"password"`
}

var _ config.Config = (*Config)(nil)

// NewConfig creates a new configuration for the application identity.
func NewConfig() *Config {
	return &Config{}
}

// SetProviderDefaults sets the default values for the configuration.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyIDPScope, string(ScopeDefault))
}

// Set sets the configuration from the given data provider.
// Values may be left empty here and provided later (e.g. from command line flags),
// they are checked by Validate and TokenRequest.
// The tenant format is checked by Acquirer, which knows the recognized tenant domains.
func (c *Config) Set(dp config.DataProvider) (err error) {
	if c.TenantID, err = dp.GetString(cfgKeyIDPTenantID); err != nil {
		return err
	}
	if c.ClientID, err = dp.GetString(cfgKeyIDPClientID); err != nil {
		return err
	}
	if c.ClientID != "" {
		if err = ValidateClientID(c.ClientID); err != nil {
			return dp.WrapKeyErr(cfgKeyIDPClientID, err)
		}
	}
	if c.ClientSecret, err = dp.GetString(cfgKeyIDPClientSecret); err != nil {
		return err
	}
	if c.Certificate.File, err = dp.GetString(cfgKeyIDPCertificateFile); err != nil {
		return err
	}
	if c.Certificate.KeyFile, err = dp.GetString(cfgKeyIDPCertificateKeyFile); err != nil {
		return err
	}
	if c.Certificate.Password, err = dp.GetString(cfgKeyIDPCertificatePassword); err != nil {
		return err
	}
	if c.ClientSecret != "" && c.Certificate.File != "" {
		return dp.WrapKeyErr(cfgKeyIDPClientSecret, errBothCredentials)
	}

	var scope string
	if scope, err = dp.GetString(cfgKeyIDPScope); err != nil {
		return err
	}
	c.Scope = Scope(scope)
	if _, known := c.Scope.Audience(); !known {
		return dp.WrapKeyErr(cfgKeyIDPScope, fmt.Errorf("%w: unknown scope %q", ErrInvalidInput, scope))
	}

	return nil
}

var (
	errBothCredentials = newInvalidInputError(
		"credential", "is ambiguous, client secret and certificate are mutually exclusive")
	errNoCredentials = newInvalidInputError(
		"credential", "is missing, either client secret or certificate is required")
)

// Validate checks that all the required values are set.
func (c *Config) Validate() error {
	if c.TenantID == "" {
		return newInvalidInputError("tenant ID", "is required")
	}
	if c.ClientID == "" {
		return newInvalidInputError("client ID", "is required")
	}
	switch {
	case c.ClientSecret != "" && c.Certificate.File != "":
		return errBothCredentials
	case c.ClientSecret == "" && c.Certificate.File == "":
		return errNoCredentials
	}
	return nil
}

// Credential builds the credential from the configuration, loading the certificate if it's configured.
func (c *Config) Credential() (Credential, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.ClientSecret != "" {
		return ClientSecret(c.ClientSecret), nil
	}
	return NewCertificateCredentialFromFiles(c.Certificate.File, c.Certificate.KeyFile, c.Certificate.Password)
}

// TokenRequest builds a complete token request from the configuration.
func (c *Config) TokenRequest() (TokenRequest, error) {
	cred, err := c.Credential()
	if err != nil {
		return TokenRequest{}, err
	}
	return TokenRequest{TenantID: c.TenantID, ClientID: c.ClientID, Credential: cred, Scope: c.Scope}, nil
}
