package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/", NormalizePath(""))
	assert.Equal(t, "/auth/kakao/url", NormalizePath("/auth/kakao/url?state=x"))
	assert.Equal(t, "/users/:param", NormalizePath("/users/3f1c2a9e-0b7d-4c61-9a55-0d3e7c1b2a44"))
	assert.Equal(t, "/items/:param", NormalizePath("/items/12345"))
}

func TestRegisterTwiceIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := Register(reg)
	require.NoError(t, err)
	_, err = Register(reg)
	require.NoError(t, err)
}

func TestObserveProviderCall(t *testing.T) {
	before := counterValue(t, ProviderCallsTotal.WithLabelValues("naver", "exchange", "error"))
	ObserveProviderCall("naver", "exchange", time.Now(), errors.New("boom"))
	after := counterValue(t, ProviderCallsTotal.WithLabelValues("naver", "exchange", "error"))
	assert.Equal(t, before+1, after)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
