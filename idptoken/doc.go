/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package idptoken acquires application-only access tokens from the Microsoft identity platform
// using the OAuth2 client-credentials grant.
// Acquirer performs exactly one token request per call and authenticates either with a client secret
// or with a certificate-signed JWT client assertion.
// Provider adds an in-memory token cache on top of Acquirer.
package idptoken
