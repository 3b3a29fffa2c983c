/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package exotoken acquires app-only access tokens for Exchange Online and Microsoft Graph
// using the OAuth2 client-credentials grant of the Microsoft identity platform.
// The application authenticates with a client secret or with a certificate-signed client assertion.
// The package wires the idptoken building blocks from a go-appkit configuration.
package exotoken
