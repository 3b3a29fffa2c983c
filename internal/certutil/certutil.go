/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package certutil loads application certificates together with their private keys
// from PKCS#12 (.pfx/.p12) bundles or PEM files.
package certutil

import (
	"bytes"
	"crypto"
	"crypto/sha1" // nolint:gosec // x5t is defined as a SHA-1 thumbprint (RFC 7515, section 4.1.7).
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"software.sslmate.com/src/go-pkcs12"
)

const (
	pemTypeCertificate   = "CERTIFICATE"
	pemTypePrivateKey    = "PRIVATE KEY"
	pemTypeRSAPrivateKey = "RSA PRIVATE KEY"
)

var pemPrefix = []byte("-----BEGIN")

// ErrPrivateKeyNotFound is returned when the loaded data has no usable private key.
var ErrPrivateKeyNotFound = errors.New("private key not found")

// ErrCertificateNotFound is returned when the loaded data has no certificate.
var ErrCertificateNotFound = errors.New("certificate not found")

// LoadFromFiles reads a certificate with its private key.
// certFile may be a PKCS#12 bundle (password is used to decrypt it) or a PEM file.
// For PEM, the key is read from keyFile, or from certFile itself when keyFile is empty.
func LoadFromFiles(certFile, keyFile, password string) (*x509.Certificate, crypto.Signer, error) {
	certData, err := os.ReadFile(certFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read certificate file: %w", err)
	}
	if !IsPEM(certData) {
		return DecodePKCS12(certData, password)
	}
	keyData := certData
	if keyFile != "" {
		if keyData, err = os.ReadFile(keyFile); err != nil {
			return nil, nil, fmt.Errorf("read private key file: %w", err)
		}
	}
	return DecodePEM(certData, keyData)
}

// IsPEM reports whether data looks like PEM-encoded content.
func IsPEM(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), pemPrefix)
}

// DecodePKCS12 decodes a PKCS#12 bundle holding a private key and its certificate.
// Both legacy (RC2/3DES, SHA-1) and modern (AES, SHA-256) encryption are supported.
// CA certificates of the chain, if any, are skipped.
func DecodePKCS12(data []byte, password string) (*x509.Certificate, crypto.Signer, error) {
	key, cert, _, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, nil, fmt.Errorf("decode PKCS#12 data: %w", err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unsupported key type %T", ErrPrivateKeyNotFound, key)
	}
	return cert, signer, nil
}

// DecodePEM decodes the first certificate from certData and the first private key from keyData.
func DecodePEM(certData, keyData []byte) (*x509.Certificate, crypto.Signer, error) {
	var cert *x509.Certificate
	for block, rest := pem.Decode(certData); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != pemTypeCertificate {
			continue
		}
		var err error
		if cert, err = x509.ParseCertificate(block.Bytes); err != nil {
			return nil, nil, fmt.Errorf("parse certificate: %w", err)
		}
		break
	}
	if cert == nil {
		return nil, nil, ErrCertificateNotFound
	}

	for block, rest := pem.Decode(keyData); block != nil; block, rest = pem.Decode(rest) {
		switch block.Type {
		case pemTypeRSAPrivateKey:
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, nil, fmt.Errorf("parse PKCS#1 private key: %w", err)
			}
			return cert, key, nil
		case pemTypePrivateKey:
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, nil, fmt.Errorf("parse PKCS#8 private key: %w", err)
			}
			signer, ok := key.(crypto.Signer)
			if !ok {
				return nil, nil, fmt.Errorf("%w: unsupported key type %T", ErrPrivateKeyNotFound, key)
			}
			return cert, signer, nil
		}
	}
	return nil, nil, ErrPrivateKeyNotFound
}

// Thumbprint returns the SHA-1 hash of the DER-encoded certificate.
func Thumbprint(cert *x509.Certificate) []byte {
	sum := sha1.Sum(cert.Raw) // nolint:gosec // see import comment
	return sum[:]
}
