package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := NewIssuer(Config{Secret: "test-secret-that-is-long-enough-0123456789"})
	require.NoError(t, err)
	return iss
}

var testSubject = Subject{UserID: "3f1c2a9e-0b7d-4c61-9a55-0d3e7c1b2a44", Email: "a@b.com", Provider: "kakao"}

func TestIssuePair_RoundTrip(t *testing.T) {
	iss := newTestIssuer(t)

	pair, err := iss.IssuePair(context.Background(), testSubject)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, 900, pair.ExpiresIn)
	assert.Equal(t, 7*24*3600, pair.RefreshExpiresIn)

	access, err := iss.Verify(pair.AccessToken, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, testSubject.UserID, access.Subject)
	assert.Equal(t, KindAccess, access.Kind)
	assert.Equal(t, "kakao", access.Provider)
	assert.Equal(t, "a@b.com", access.Email)

	refresh, err := iss.Verify(pair.RefreshToken, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, KindRefresh, refresh.Kind)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestVerify_RejectsWrongKind(t *testing.T) {
	iss := newTestIssuer(t)
	pair, err := iss.IssuePair(context.Background(), testSubject)
	require.NoError(t, err)

	_, err = iss.Verify(pair.RefreshToken, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Verify(pair.AccessToken, KindRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsExpiredAndForeign(t *testing.T) {
	iss := newTestIssuer(t)
	iss.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := iss.Issue(KindAccess, testSubject)
	require.NoError(t, err)
	iss.now = time.Now

	_, err = iss.Verify(old, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewIssuer(Config{Secret: "another-secret-entirely"})
	require.NoError(t, err)
	foreign, err := other.Issue(KindAccess, testSubject)
	require.NoError(t, err)
	_, err = iss.Verify(foreign, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Verify("garbage", KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Verify(foreign, Kind("id"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsTampering(t *testing.T) {
	iss := newTestIssuer(t)
	tok, err := iss.Issue(KindAccess, testSubject)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	forged := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	_, err = iss.Verify(forged, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuerClaimEnforced(t *testing.T) {
	a, err := NewIssuer(Config{Secret: "s3cret", Issuer: "https://auth.example"})
	require.NoError(t, err)
	tok, err := a.Issue(KindAccess, testSubject)
	require.NoError(t, err)

	c, err := a.Verify(tok, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example", c.Issuer)

	b, err := NewIssuer(Config{Secret: "s3cret", Issuer: "https://other.example"})
	require.NoError(t, err)
	_, err = b.Verify(tok, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuer_Validation(t *testing.T) {
	_, err := NewIssuer(Config{})
	assert.Error(t, err)

	iss, err := NewIssuer(Config{Secret: "x", AccessTTL: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, iss.AccessTTL())

	_, err = iss.Issue(KindAccess, Subject{})
	assert.Error(t, err)
}

func TestDecodeHelpers(t *testing.T) {
	iss := newTestIssuer(t)
	tok, err := iss.Issue(KindAccess, testSubject)
	require.NoError(t, err)

	c, err := DecodeWithoutVerify(tok)
	require.NoError(t, err)
	assert.Equal(t, testSubject.UserID, c.Subject)
	assert.False(t, IsExpired(tok))

	left := TimeRemaining(tok)
	assert.Greater(t, left, 14*time.Minute)
	assert.LessOrEqual(t, left, 15*time.Minute)

	assert.Equal(t, time.Duration(0), timeRemaining(tok, time.Now().Add(time.Hour)))
	assert.True(t, IsExpired("not.a.token"))

	_, err = DecodeWithoutVerify("nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
