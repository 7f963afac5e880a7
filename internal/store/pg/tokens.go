package pg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/store"
)

// UpsertProviderToken keeps exactly one row per (user, provider).
func (s *Store) UpsertProviderToken(ctx context.Context, tok store.ProviderToken) error {
	access, err := s.box.Seal(tok.AccessToken)
	if err != nil {
		return err
	}
	refresh, err := s.box.Seal(tok.RefreshToken)
	if err != nil {
		return err
	}
	idTok, err := s.box.Seal(tok.IDToken)
	if err != nil {
		return err
	}
	var expires *time.Time
	if !tok.ExpiresAt.IsZero() {
		expires = &tok.ExpiresAt
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO provider_token (user_id, provider, access_token, refresh_token, id_token, token_type, scope, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			id_token      = EXCLUDED.id_token,
			token_type    = EXCLUDED.token_type,
			scope         = EXCLUDED.scope,
			expires_at    = EXCLUDED.expires_at,
			updated_at    = NOW()`,
		tok.UserID, string(tok.Provider), access, nullable(refresh), nullable(idTok),
		nullable(tok.TokenType), nullable(strings.Join(tok.Scope, " ")), expires,
	)
	return mapErr(err)
}

func (s *Store) FindProviderToken(ctx context.Context, userID string, p providers.Provider) (*store.ProviderToken, error) {
	var (
		t       store.ProviderToken
		prov    string
		scope   string
		expires *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, provider, access_token, COALESCE(refresh_token, ''), COALESCE(id_token, ''),
			COALESCE(token_type, ''), COALESCE(scope, ''), expires_at, updated_at
		FROM provider_token WHERE user_id = $1 AND provider = $2`,
		userID, string(p),
	).Scan(&t.UserID, &prov, &t.AccessToken, &t.RefreshToken, &t.IDToken, &t.TokenType, &scope, &expires, &t.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	t.Provider = providers.Provider(prov)
	t.Scope = providers.SplitScope(scope)
	if expires != nil {
		t.ExpiresAt = *expires
	}

	if t.AccessToken, err = s.box.Open(t.AccessToken); err != nil {
		return nil, fmt.Errorf("pg: open access token: %w", err)
	}
	if t.RefreshToken, err = s.box.Open(t.RefreshToken); err != nil {
		return nil, fmt.Errorf("pg: open refresh token: %w", err)
	}
	if t.IDToken, err = s.box.Open(t.IDToken); err != nil {
		return nil, fmt.Errorf("pg: open id token: %w", err)
	}
	return &t, nil
}

func (s *Store) DeleteProviderToken(ctx context.Context, userID string, p providers.Provider) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM provider_token WHERE user_id = $1 AND provider = $2`, userID, string(p))
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
