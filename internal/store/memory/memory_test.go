package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, id string, p providers.Provider, ext, email string) *store.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), store.CreateUserInput{ID: id, Provider: p, ProviderID: ext, Email: email})
	require.NoError(t, err)
	return u
}

func TestCreateAndFind(t *testing.T) {
	s := New()
	ctx := context.Background()
	seed(t, s, "u1", providers.Kakao, "123", "A@B.com")

	u, err := s.FindUser(ctx, providers.Kakao, "123")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	u, err = s.FindUserByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = s.FindUser(ctx, providers.Naver, "123")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreate_Conflicts(t *testing.T) {
	s := New()
	ctx := context.Background()
	seed(t, s, "u1", providers.Kakao, "123", "a@b.com")

	_, err := s.CreateUser(ctx, store.CreateUserInput{ID: "u2", Provider: providers.Google, ProviderID: "g", Email: "a@b.com"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.CreateUser(ctx, store.CreateUserInput{ID: "u3", Provider: providers.Kakao, ProviderID: "123"})
	assert.ErrorIs(t, err, store.ErrConflict)

	users, _ := s.Counts()
	assert.Equal(t, 1, users)
}

func TestUpdateProfile_MergesNonEmpty(t *testing.T) {
	s := New()
	ctx := context.Background()
	seed(t, s, "u1", providers.Google, "g1", "one@x.com")
	seed(t, s, "u2", providers.Naver, "n1", "two@x.com")

	u, err := s.UpdateUserProfile(ctx, "u1", store.ProfileUpdate{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", u.Name)
	assert.Equal(t, "one@x.com", u.Email)

	_, err = s.UpdateUserProfile(ctx, "u1", store.ProfileUpdate{Email: "two@x.com"})
	assert.ErrorIs(t, err, store.ErrConflict)

	u, err = s.UpdateUserProfile(ctx, "u1", store.ProfileUpdate{Email: "uno@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "uno@x.com", u.Email)
	_, err = s.FindUserByEmail(ctx, "one@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProviderTokens(t *testing.T) {
	s := New()
	ctx := context.Background()
	seed(t, s, "u1", providers.Naver, "n1", "")

	exp := time.Now().Add(time.Hour)
	require.NoError(t, s.UpsertProviderToken(ctx, store.ProviderToken{UserID: "u1", Provider: providers.Naver, AccessToken: "a1", ExpiresAt: exp}))
	require.NoError(t, s.UpsertProviderToken(ctx, store.ProviderToken{UserID: "u1", Provider: providers.Naver, AccessToken: "a2", RefreshToken: "r2", ExpiresAt: exp}))

	_, tokens := s.Counts()
	assert.Equal(t, 1, tokens)

	tok, err := s.FindProviderToken(ctx, "u1", providers.Naver)
	require.NoError(t, err)
	assert.Equal(t, "a2", tok.AccessToken)
	assert.Greater(t, tok.TokenSet(time.Now()).ExpiresIn, 3500)

	assert.ErrorIs(t, s.UpsertProviderToken(ctx, store.ProviderToken{UserID: "ghost", Provider: providers.Naver}), store.ErrNotFound)

	require.NoError(t, s.DeleteProviderToken(ctx, "u1", providers.Naver))
	_, err = s.FindProviderToken(ctx, "u1", providers.Naver)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteUser_CascadesTokens(t *testing.T) {
	s := New()
	ctx := context.Background()
	seed(t, s, "u1", providers.Apple, "ap", "x@y.com")
	require.NoError(t, s.UpsertProviderToken(ctx, store.ProviderToken{UserID: "u1", Provider: providers.Apple, AccessToken: "a"}))

	require.NoError(t, s.DeleteUser(ctx, "u1"))
	users, tokens := s.Counts()
	assert.Zero(t, users)
	assert.Zero(t, tokens)

	_, err := s.FindUserByEmail(ctx, "x@y.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, "u1"), store.ErrNotFound)
}
