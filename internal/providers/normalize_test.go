package providers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Kakao(t *testing.T) {
	raw := `{"id":123,"kakao_account":{"email":"a@b.com","profile":{"nickname":"Kim"}}}`

	p, err := Normalize(Kakao, []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "123", p.ExternalID)
	assert.Equal(t, "a@b.com", p.Email)
	assert.Equal(t, "Kim", p.DisplayName)
	assert.Equal(t, Kakao, p.Provider)
	assert.Empty(t, p.PictureURL)
	assert.JSONEq(t, raw, string(p.Raw))
}

func TestNormalize_KakaoLargeIDAndFallbacks(t *testing.T) {
	raw := `{"id":3141592653589793,"properties":{"nickname":"Lee","profile_image":"http://k.kakaocdn.net/p.jpg"},
		"kakao_account":{"is_email_verified":true}}`

	p, err := Normalize(Kakao, []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "3141592653589793", p.ExternalID)
	assert.Equal(t, "Lee", p.DisplayName)
	assert.Equal(t, "https://k.kakaocdn.net/p.jpg", p.PictureURL)
	require.NotNil(t, p.EmailVerified)
	assert.True(t, *p.EmailVerified)
}

func TestNormalize_Naver(t *testing.T) {
	raw := `{"resultcode":"00","message":"success","response":{"id":"nv-1","email":"x@naver.com","nickname":"nick","profile_image":"https://phinf.pstatic.net/a.png"}}`

	p, err := Normalize(Naver, []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "nv-1", p.ExternalID)
	assert.Equal(t, "x@naver.com", p.Email)
	assert.Equal(t, "nick", p.DisplayName)
	assert.Equal(t, "https://phinf.pstatic.net/a.png", p.PictureURL)
}

func TestNormalize_Apple(t *testing.T) {
	t.Run("empty name is absent", func(t *testing.T) {
		p, err := Normalize(Apple, []byte(`{"sub":"001.abc","email":"r@privaterelay.appleid.com","name":{"firstName":"","lastName":""}}`))
		require.NoError(t, err)
		assert.Empty(t, p.DisplayName)
		assert.Empty(t, p.PictureURL)
	})
	t.Run("full name is trimmed", func(t *testing.T) {
		p, err := Normalize(Apple, []byte(`{"sub":"001.abc","email_verified":"true","name":{"firstName":"Ada","lastName":""}}`))
		require.NoError(t, err)
		assert.Equal(t, "Ada", p.DisplayName)
		require.NotNil(t, p.EmailVerified)
		assert.True(t, *p.EmailVerified)
	})
}

func TestNormalize_Google(t *testing.T) {
	raw := `{"sub":"g-42","email":"u@gmail.com","email_verified":true,"name":"U Ser","picture":"https://lh3.googleusercontent.com/x"}`

	p, err := Normalize(Google, []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "g-42", p.ExternalID)
	assert.Equal(t, "U Ser", p.DisplayName)
	assert.Equal(t, "https://lh3.googleusercontent.com/x", p.PictureURL)
}

func TestNormalize_Rejects(t *testing.T) {
	cases := []struct {
		name string
		p    Provider
		raw  string
		want error
	}{
		{"missing id", Google, `{"email":"u@gmail.com"}`, ErrProfileValidation},
		{"bad email", Kakao, `{"id":1,"kakao_account":{"email":"nope"}}`, ErrProfileValidation},
		{"not json", Naver, `<html>`, ErrProfileValidation},
		{"unknown provider", Provider("line"), `{"id":"1"}`, ErrUnsupportedProvider},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.p, []byte(tc.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), err.Error())
		})
	}
}

func TestParse(t *testing.T) {
	p, err := Parse(" KaKaO ")
	require.NoError(t, err)
	assert.Equal(t, Kakao, p)

	_, err = Parse("facebook")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestSplitScope(t *testing.T) {
	assert.Equal(t, []string{"openid", "email", "profile"}, SplitScope("openid email  profile"))
	assert.Equal(t, []string{"account_email", "profile_nickname"}, SplitScope("account_email,profile_nickname"))
	assert.Nil(t, SplitScope(""))
}
