/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const testKeyBits = 2048

var (
	signingKey     *rsa.PrivateKey
	signingKeyErr  error
	signingKeyOnce sync.Once
)

// GetSigningKey returns the process-wide RSA key the test server signs access tokens with.
func GetSigningKey() (*rsa.PrivateKey, error) {
	signingKeyOnce.Do(func() {
		signingKey, signingKeyErr = rsa.GenerateKey(rand.Reader, testKeyBits)
	})
	return signingKey, signingKeyErr
}

// NewTestCertificate generates a self-signed certificate with a fresh RSA private key.
func NewTestCertificate(commonName string) (*x509.Certificate, *rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, testKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("generate RSA key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, nil, fmt.Errorf("generate serial number: %w", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, fmt.Errorf("parse certificate: %w", err)
	}
	return cert, key, nil
}

// MustNewTestCertificate generates a self-signed certificate.
// It panics if error occurs.
func MustNewTestCertificate(commonName string) (*x509.Certificate, *rsa.PrivateKey) {
	cert, key, err := NewTestCertificate(commonName)
	if err != nil {
		panic(err)
	}
	return cert, key
}

// WritePEMFiles writes the certificate and its PKCS#8 private key into dir as cert.pem and key.pem.
func WritePEMFiles(dir string, cert *x509.Certificate, key *rsa.PrivateKey) (certFile, keyFile string, err error) {
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", "", fmt.Errorf("marshal private key: %w", err)
	}
	certFile = filepath.Join(dir, "cert.pem")
	if err = os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}), 0o600); err != nil {
		return "", "", fmt.Errorf("write certificate: %w", err)
	}
	keyFile = filepath.Join(dir, "key.pem")
	if err = os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		return "", "", fmt.Errorf("write private key: %w", err)
	}
	return certFile, keyFile, nil
}
