/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Command exotoken acquires an app-only access token for Exchange Online or Microsoft Graph
// and prints the identity platform JSON response to stdout.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
