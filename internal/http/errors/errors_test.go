package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropDatabas3/socialgate/internal/http/services/auth"
	"github.com/dropDatabas3/socialgate/internal/jwt"
	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: \"myspace\"", providers.ErrUnsupportedProvider), http.StatusBadRequest, "UNSUPPORTED_PROVIDER"},
		{store.ErrConflict, http.StatusConflict, "EMAIL_CONFLICT"},
		{auth.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{fmt.Errorf("%w: expired", jwt.ErrInvalidToken), http.StatusUnauthorized, "TOKEN_INVALID"},
		{providers.ErrUpstreamAuth, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{ErrMissingFields.WithDetail("code"), http.StatusBadRequest, "MISSING_FIELDS"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			got := FromError(tc.err)
			assert.Equal(t, tc.status, got.HTTPStatus)
			assert.Equal(t, tc.code, got.Code)
		})
	}
}

func TestWithDetailCopies(t *testing.T) {
	e := ErrBadRequest.WithDetail("x")
	assert.Equal(t, "x", e.Detail)
	assert.Empty(t, ErrBadRequest.Detail)
}

func TestWriteError_NeverLeaksCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("pg: password=hunter2 refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "hunter2")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body["code"])
}
