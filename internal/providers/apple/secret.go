package apple

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	// Audience is both the client assertion audience and the ID token issuer.
	Audience = "https://appleid.apple.com"

	assertionTTL = time.Hour
)

// parsePrivateKey accepts the .p8 PEM Apple hands out, with real newlines or
// literal "\n" escapes (env vars).
func parsePrivateKey(pemKey string) (*ecdsa.PrivateKey, error) {
	pemKey = strings.ReplaceAll(strings.TrimSpace(pemKey), `\n`, "\n")
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("apple: private key is not PEM encoded")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		if ec, ecErr := x509.ParseECPrivateKey(block.Bytes); ecErr == nil {
			return ec, nil
		}
		return nil, fmt.Errorf("apple: parse private key: %w", err)
	}
	ec, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("apple: private key is not ECDSA")
	}
	return ec, nil
}

// clientAssertion signs the ES256 JWT Apple expects as client_secret.
// A fresh one is minted per token request.
func (s *Strategy) clientAssertion() (string, error) {
	now := s.now()
	claims := jwtv5.MapClaims{
		"iss": s.cfg.TeamID,
		"iat": now.Unix(),
		"exp": now.Add(assertionTTL).Unix(),
		"aud": Audience,
		"sub": s.cfg.ClientID,
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodES256, claims)
	tk.Header["kid"] = s.cfg.KeyID
	signed, err := tk.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("apple: sign client assertion: %w", err)
	}
	return signed, nil
}
