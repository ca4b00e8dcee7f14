package common

import "strings"

// Built-in issuer type keys.
const (
	AuthTypeOAuth2 = "oauth2"
	AuthTypeJWT    = "jwt"
	AuthTypeStatic = "static"
)

// NormalizeKey lower-cases and trims issuer type keys.
func NormalizeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ResourceScope returns the default scope for a resource URL, following the
// Azure AD v2 convention "<resource>/.default".
func ResourceScope(resource string) string {
	r := strings.TrimRight(strings.TrimSpace(resource), "/")
	if r == "" {
		return ""
	}
	return r + "/.default"
}
