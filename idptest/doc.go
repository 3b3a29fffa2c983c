/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package idptest provides an in-process HTTP server mimicking the Microsoft identity platform
// token endpoint, and helpers for generating test certificates.
// The server verifies client secrets and certificate-signed client assertions of registered applications.
package idptest
