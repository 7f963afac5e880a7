package jwt

import (
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// The helpers below read a session token without checking its signature.
// They are for display and diagnostics (CLI, client hints) and must never
// back an authorization decision.

// DecodeWithoutVerify returns the claims of token without verifying it.
func DecodeWithoutVerify(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwtv5.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// IsExpired reports whether token is past its exp. Undecodable tokens count as expired.
func IsExpired(token string) bool {
	return TimeRemaining(token) <= 0
}

// TimeRemaining is the time left until exp, or 0 when expired or undecodable.
func TimeRemaining(token string) time.Duration {
	return timeRemaining(token, time.Now())
}

func timeRemaining(token string, now time.Time) time.Duration {
	c, err := DecodeWithoutVerify(token)
	if err != nil || c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
