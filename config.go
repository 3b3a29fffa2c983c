/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package exotoken

import (
	"fmt"
	"net/url"
	"time"

	"github.com/acronis/go-appkit/config"

	"github.com/acronis/go-exotoken/idptoken"
	"github.com/acronis/go-exotoken/internal/idputil"
)

const cfgDefaultKeyPrefix = "exotoken"

const (
	cfgKeyHTTPClientRequestTimeout   = "httpClient.requestTimeout"
	cfgKeyAuthorityURL               = "authorityUrl"
	cfgKeyTenantDomainPatterns       = "tenantDomainPatterns"
	cfgKeyTokenCacheEnabled          = "tokenCache.enabled"
	cfgKeyTokenCacheMaxEntries       = "tokenCache.maxEntries"
	cfgKeyTokenCacheExpirationOffset = "tokenCache.expirationOffset"
)

// Config represents a set of configuration parameters for acquiring access tokens.
type Config struct {
	HTTPClient HTTPClientConfig `mapstructure:"httpClient" yaml:"httpClient" json:"httpClient"`

	// AuthorityURL is the identity platform base URL, idptoken.DefaultAuthorityURL if empty.
	// Sovereign clouds use their own authorities (e.g. https://login.microsoftonline.us).
	AuthorityURL string `mapstructure:"authorityUrl" yaml:"authorityUrl" json:"authorityUrl"`

	// TenantDomainPatterns are glob patterns of tenant domain names accepted besides GUIDs.
	TenantDomainPatterns []string `mapstructure:"tenantDomainPatterns" yaml:"tenantDomainPatterns" json:"tenantDomainPatterns"`

	TokenCache TokenCacheConfig `mapstructure:"tokenCache" yaml:"tokenCache" json:"tokenCache"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// HTTPClientConfig is a configuration of the HTTP client used for token requests.
type HTTPClientConfig struct {
	RequestTimeout config.TimeDuration `mapstructure:"requestTimeout" yaml:"requestTimeout" json:"requestTimeout"`
}

// TokenCacheConfig is a configuration of how acquired tokens are cached.
type TokenCacheConfig struct {
	Enabled          bool                `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	MaxEntries       int                 `mapstructure:"maxEntries" yaml:"maxEntries" json:"maxEntries"`
	ExpirationOffset config.TimeDuration `mapstructure:"expirationOffset" yaml:"expirationOffset" json:"expirationOffset"`
}

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
// This prefix will be used by config.Loader.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	var opts = configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	cfg := NewConfig(options...)
	cfg.HTTPClient.RequestTimeout = config.TimeDuration(idputil.DefaultHTTPRequestTimeout)
	cfg.TokenCache = TokenCacheConfig{
		Enabled:          true,
		MaxEntries:       idptoken.DefaultProviderCacheMaxEntries,
		ExpirationOffset: config.TimeDuration(idptoken.DefaultProviderExpirationOffset),
	}
	return cfg
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyHTTPClientRequestTimeout, idputil.DefaultHTTPRequestTimeout.String())
	dp.SetDefault(cfgKeyAuthorityURL, idptoken.DefaultAuthorityURL)
	dp.SetDefault(cfgKeyTenantDomainPatterns, []string{idptoken.DefaultTenantDomainPattern})
	dp.SetDefault(cfgKeyTokenCacheEnabled, true)
	dp.SetDefault(cfgKeyTokenCacheMaxEntries, idptoken.DefaultProviderCacheMaxEntries)
	dp.SetDefault(cfgKeyTokenCacheExpirationOffset, idptoken.DefaultProviderExpirationOffset.String())
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	var reqTimeout time.Duration
	if reqTimeout, err = dp.GetDuration(cfgKeyHTTPClientRequestTimeout); err != nil {
		return err
	}
	if reqTimeout < 0 {
		return dp.WrapKeyErr(cfgKeyHTTPClientRequestTimeout, fmt.Errorf("request timeout should be non-negative"))
	}
	c.HTTPClient.RequestTimeout = config.TimeDuration(reqTimeout)

	if c.AuthorityURL, err = dp.GetString(cfgKeyAuthorityURL); err != nil {
		return err
	}
	if err = validateAuthorityURL(c.AuthorityURL); err != nil {
		return dp.WrapKeyErr(cfgKeyAuthorityURL, err)
	}
	if c.TenantDomainPatterns, err = dp.GetStringSlice(cfgKeyTenantDomainPatterns); err != nil {
		return err
	}

	return c.setTokenCacheConfig(dp)
}

func (c *Config) setTokenCacheConfig(dp config.DataProvider) error {
	var err error

	if c.TokenCache.Enabled, err = dp.GetBool(cfgKeyTokenCacheEnabled); err != nil {
		return err
	}
	if c.TokenCache.MaxEntries, err = dp.GetInt(cfgKeyTokenCacheMaxEntries); err != nil {
		return err
	}
	if c.TokenCache.MaxEntries < 0 {
		return dp.WrapKeyErr(cfgKeyTokenCacheMaxEntries, fmt.Errorf("max entries should be non-negative"))
	}
	var offset time.Duration
	if offset, err = dp.GetDuration(cfgKeyTokenCacheExpirationOffset); err != nil {
		return err
	}
	if offset < 0 {
		return dp.WrapKeyErr(cfgKeyTokenCacheExpirationOffset, fmt.Errorf("expiration offset should be non-negative"))
	}
	c.TokenCache.ExpirationOffset = config.TimeDuration(offset)

	return nil
}

func validateAuthorityURL(authorityURL string) error {
	if authorityURL == "" {
		return nil
	}
	u, err := url.Parse(authorityURL)
	if err != nil {
		return err
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("authority URL should be an absolute http(s) URL")
	}
	return nil
}
