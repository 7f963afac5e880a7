// Package auth holds the JSON shapes of the auth endpoints.
package auth

// AuthURLResponse is returned by GET /auth/{provider}/url.
type AuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// ProvidersResponse lists the enabled providers.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}

// TokenResponse is the session pair returned by callback and refresh.
type TokenResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        int    `json:"expiresIn"`
	RefreshExpiresIn int    `json:"refreshExpiresIn,omitempty"`
	TokenType        string `json:"tokenType"`
}
