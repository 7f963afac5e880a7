// Package audit writes security events to the structured log under
// log_type=audit so a log pipeline can route them to a separate sink.
package audit

import (
	"context"

	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"go.uber.org/zap"
)

// Event names.
const (
	UserCreated      = "user.created"
	LoginSucceeded   = "login.succeeded"
	LoginConflict    = "login.email_conflict"
	SessionRefreshed = "session.refreshed"
	SessionLoggedOut = "session.logged_out"
)

// Log writes event with fields using the request-scoped logger of ctx.
// Fields must not carry tokens or secrets; use logger.MaskedEmail for emails.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	all := make([]zap.Field, 0, len(fields)+2)
	all = append(all, zap.String("log_type", "audit"), zap.String("event", event))
	all = append(all, fields...)
	logger.From(ctx).Info("audit", all...)
}
