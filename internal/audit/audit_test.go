package audit

import (
	"context"
	"testing"

	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLog_UsesContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).With(logger.RequestID("req-1")))

	Log(ctx, LoginSucceeded, logger.Provider("kakao"), logger.UserID("u-1"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "audit", fields["log_type"])
	assert.Equal(t, LoginSucceeded, fields["event"])
	assert.Equal(t, "kakao", fields["provider"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "req-1", fields["request_id"])
}
