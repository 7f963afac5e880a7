package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":     "abc",
		"bearer  abc ":   "abc",
		"BEARER x.y.z":   "x.y.z",
		"Basic dXNlcjo=": "",
		"Bearer":         "",
		"":               "",
	}
	for header, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, BearerToken(r), header)
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"url": "https://x"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"url":"https://x"}`, rec.Body.String())
}
