package pg

import (
	"context"

	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/store"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, provider, provider_id, COALESCE(email, ''), COALESCE(name, ''), COALESCE(picture, ''),
	email_verified_at, raw_profile, created_at, updated_at`

func scanUser(row pgx.Row) (*store.User, error) {
	var (
		u    store.User
		prov string
		raw  []byte
	)
	if err := row.Scan(&u.ID, &prov, &u.ProviderID, &u.Email, &u.Name, &u.Picture,
		&u.EmailVerifiedAt, &raw, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	u.Provider = providers.Provider(prov)
	u.RawProfile = raw
	return &u, nil
}

func (s *Store) FindUser(ctx context.Context, p providers.Provider, externalID string) (*store.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE provider = $1 AND provider_id = $2`,
		string(p), externalID))
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*store.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE lower(email) = lower($1)`, email))
}

func (s *Store) CreateUser(ctx context.Context, in store.CreateUserInput) (*store.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO app_user (id, provider, provider_id, email, name, picture, email_verified_at, raw_profile)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		in.ID, string(in.Provider), in.ProviderID,
		nullable(in.Email), nullable(in.Name), nullable(in.Picture),
		in.EmailVerifiedAt, rawOrNil(in.RawProfile),
	))
}

// UpdateUserProfile only overwrites columns with a non-empty value, and keeps
// the first email verification time.
func (s *Store) UpdateUserProfile(ctx context.Context, id string, upd store.ProfileUpdate) (*store.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `
		UPDATE app_user SET
			email             = COALESCE($2, email),
			name              = COALESCE($3, name),
			picture           = COALESCE($4, picture),
			email_verified_at = COALESCE(email_verified_at, $5),
			raw_profile       = COALESCE($6, raw_profile),
			updated_at        = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, nullable(upd.Email), nullable(upd.Name), nullable(upd.Picture),
		upd.EmailVerifiedAt, rawOrNil(upd.RawProfile),
	))
}

// DeleteUser removes the user; provider_token rows go with it (ON DELETE CASCADE).
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func rawOrNil(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
