package apple

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dropDatabas3/socialgate/internal/providers/oauthx"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

var errUnknownKid = errors.New("apple: signing key not found")

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// keySet caches Apple's public keys by kid. A miss triggers one refetch,
// shared by all concurrent callers.
type keySet struct {
	url    string
	client *oauthx.Client
	keys   *gocache.Cache
	group  singleflight.Group
}

func newKeySet(url string, client *oauthx.Client, ttl time.Duration) *keySet {
	return &keySet{
		url:    url,
		client: client,
		keys:   gocache.New(ttl, 2*ttl),
	}
}

func (k *keySet) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if v, ok := k.keys.Get(kid); ok {
		return v.(*rsa.PublicKey), nil
	}
	if _, err, _ := k.group.Do("refresh", func() (any, error) {
		return nil, k.refresh(ctx)
	}); err != nil {
		return nil, err
	}
	if v, ok := k.keys.Get(kid); ok {
		return v.(*rsa.PublicKey), nil
	}
	return nil, errUnknownKid
}

func (k *keySet) refresh(ctx context.Context) error {
	body, err := k.client.GetJSON(ctx, "jwks", k.url, "")
	if err != nil {
		return err
	}
	var doc struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("apple: decode jwks: %w", err)
	}
	for _, j := range doc.Keys {
		if !strings.EqualFold(j.Kty, "RSA") || j.Kid == "" {
			continue
		}
		pub, err := rsaKey(j)
		if err != nil {
			continue
		}
		k.keys.SetDefault(j.Kid, pub)
	}
	return nil
}

func rsaKey(j jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}
	e := 65537
	if len(eb) > 0 {
		e = 0
		for _, b := range eb {
			e = e<<8 | int(b)
		}
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
