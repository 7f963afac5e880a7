package validation

import (
	"net/url"
	"regexp"
)

// OAuth scope tokens (RFC 6749 section 3.3): printable ASCII except space,
// double quote and backslash. Length is capped at 256 so a typo in config
// cannot produce a giant authorization URL. URL-shaped scopes (Google) pass.
var scopeTokenRe = regexp.MustCompile(`^[\x21\x23-\x5B\x5D-\x7E]{1,256}$`)

// ValidScopeToken reports whether name can be sent as one scope token.
func ValidScopeToken(name string) bool {
	return scopeTokenRe.MatchString(name)
}

// ValidRedirectURI reports whether raw is an absolute http(s) URI without a
// fragment, as providers require for registered redirect URIs.
func ValidRedirectURI(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Fragment != "" {
		return false
	}
	return u.Scheme == "https" || u.Scheme == "http"
}
