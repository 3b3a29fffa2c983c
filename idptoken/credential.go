/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptoken

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"net/url"
	"time"

	"github.com/acronis/go-exotoken/internal/certutil"
)

const clientAssertionTypeJWTBearer = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// Credential proves the application identity to the token endpoint.
// It is implemented only by ClientSecret and *CertificateCredential.
type Credential interface {
	validate() error
	addToForm(form url.Values, clientID, tokenURL string, now time.Time) error
	fingerprint() string
}

// ClientSecret is a shared secret registered for the application.
type ClientSecret string

var _ Credential = ClientSecret("")

func (s ClientSecret) validate() error {
	return ValidateClientSecret(string(s))
}

func (s ClientSecret) addToForm(form url.Values, _, _ string, _ time.Time) error {
	form.Set("client_secret", string(s))
	return nil
}

func (s ClientSecret) fingerprint() string {
	sum := sha256.Sum256([]byte(s))
	return "secret:" + hex.EncodeToString(sum[:])
}

// CertificateCredential is a certificate registered for the application together with its private key.
// The key must be an RSA key, it's used only for signing the client assertion.
type CertificateCredential struct {
	Certificate *x509.Certificate
	PrivateKey  crypto.Signer
}

var _ Credential = (*CertificateCredential)(nil)

// NewCertificateCredential creates a credential from a certificate and its private key.
func NewCertificateCredential(cert *x509.Certificate, key crypto.Signer) *CertificateCredential {
	return &CertificateCredential{Certificate: cert, PrivateKey: key}
}

// NewCertificateCredentialFromFiles loads a PKCS#12 bundle or PEM files and creates a credential from them.
// keyFile is used only for PEM certificates and may be empty if the key is in certFile.
func NewCertificateCredentialFromFiles(certFile, keyFile, password string) (*CertificateCredential, error) {
	cert, key, err := certutil.LoadFromFiles(certFile, keyFile, password)
	if err != nil {
		return nil, &InvalidInputError{Field: "certificate", Reason: "cannot be loaded: " + err.Error()}
	}
	return NewCertificateCredential(cert, key), nil
}

// Thumbprint returns the SHA-1 thumbprint of the certificate.
func (c *CertificateCredential) Thumbprint() []byte {
	return certutil.Thumbprint(c.Certificate)
}

func (c *CertificateCredential) validate() error {
	if c == nil || c.Certificate == nil {
		return newInvalidInputError("certificate", "is missing")
	}
	if c.PrivateKey == nil {
		return newInvalidInputError("certificate", "has no accessible private key")
	}
	pub, ok := c.PrivateKey.Public().(*rsa.PublicKey)
	if !ok {
		return newInvalidInputError("certificate", "private key is not an RSA key")
	}
	certPub, ok := c.Certificate.PublicKey.(*rsa.PublicKey)
	if !ok || !certPub.Equal(pub) {
		return newInvalidInputError("certificate", "does not match the private key")
	}
	return nil
}

func (c *CertificateCredential) addToForm(form url.Values, clientID, tokenURL string, now time.Time) error {
	assertion, err := NewClientAssertion(c, clientID, tokenURL, now)
	if err != nil {
		return err
	}
	form.Set("client_assertion_type", clientAssertionTypeJWTBearer)
	form.Set("client_assertion", assertion)
	return nil
}

func (c *CertificateCredential) fingerprint() string {
	return "x5t:" + hex.EncodeToString(c.Thumbprint())
}

func validateCredential(cred Credential) error {
	if cred == nil {
		return newInvalidInputError("credential", "is missing, either client secret or certificate is required")
	}
	return cred.validate()
}
