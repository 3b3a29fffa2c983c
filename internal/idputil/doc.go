/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package idputil provides helpers shared by the token acquisition code and the test identity provider.
// It's used in the internal code and not exposed to the public API.
package idputil
