/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package libinfo

// UserAgent is sent with every token request, e.g. "go-exotoken/v1.0.0".
func UserAgent() string {
	return LibName + "/" + GetLibVersion()
}

// LogPrefix is prepended to every message logged by the library.
func LogPrefix() string {
	return "[" + LibName + "/" + GetLibVersion() + "] "
}
