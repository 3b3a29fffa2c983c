/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package idptoken

import (
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClientAssertionLifetime is the validity window of a client assertion.
// It's fixed, no clock skew tolerance is added.
const ClientAssertionLifetime = 5 * time.Minute

// JWTTypeClientAssertion is the "typ" header of client assertions.
const JWTTypeClientAssertion = "JWT"

// HeaderX5T is the JWT header carrying the base64url SHA-1 thumbprint of the signing certificate.
const HeaderX5T = "x5t"

// NewClientAssertion creates a signed JWT proving possession of the certificate's private key.
// Audience is the token endpoint URL, issuer and subject are the client ID.
// The token is valid from issuedAt (truncated to seconds) for ClientAssertionLifetime.
func NewClientAssertion(cred *CertificateCredential, clientID, tokenURL string, issuedAt time.Time) (string, error) {
	if err := cred.validate(); err != nil {
		return "", err
	}
	nbf := issuedAt.UTC().Unix()
	claims := jwtgo.MapClaims{
		"aud": tokenURL,
		"exp": nbf + int64(ClientAssertionLifetime/time.Second),
		"iss": clientID,
		"jti": uuid.NewString(),
		"nbf": nbf,
		"sub": clientID,
	}
	token := jwtgo.NewWithClaims(signingMethodRS256Signer{}, claims)
	token.Header["typ"] = JWTTypeClientAssertion
	token.Header[HeaderX5T] = base64.RawURLEncoding.EncodeToString(cred.Thumbprint())

	signed, err := token.SignedString(cred.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigningFailure, err)
	}
	return signed, nil
}

// signingMethodRS256Signer is RS256 (RSASSA-PKCS1-v1_5 with SHA-256) working with any crypto.Signer
// holding an RSA key, so keys kept outside the process memory can be used as well.
// It's not registered globally, parsing still uses jwtgo.SigningMethodRS256.
type signingMethodRS256Signer struct{}

var _ jwtgo.SigningMethod = signingMethodRS256Signer{}

func (signingMethodRS256Signer) Alg() string {
	return jwtgo.SigningMethodRS256.Alg()
}

func (signingMethodRS256Signer) Verify(signingString string, sig []byte, key interface{}) error {
	return jwtgo.SigningMethodRS256.Verify(signingString, sig, key)
}

func (signingMethodRS256Signer) Sign(signingString string, key interface{}) ([]byte, error) {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, jwtgo.ErrInvalidKeyType
	}
	digest := sha256.Sum256([]byte(signingString))
	// For RSA keys crypto.SHA256 as SignerOpts means PKCS#1 v1.5 padding.
	sig, err := signer.Sign(rand.Reader, digest[:], crypto.SHA256)
	if err != nil {
		return nil, err
	}
	return sig, nil
}
