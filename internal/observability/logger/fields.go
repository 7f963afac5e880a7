package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// =================================================================================
// AUTH FLOW
// =================================================================================

// Provider is the identity provider name (kakao, naver, apple, google).
func Provider(v string) zap.Field { return zap.String("provider", v) }

// Step is the orchestration step a log line belongs to (exchange, profile, upsert...).
func Step(v string) zap.Field { return zap.String("step", v) }

func UserID(v string) zap.Field { return zap.String("user_id", v) }

// ExternalID is the provider-side subject of a user.
func ExternalID(v string) zap.Field { return zap.String("external_id", v) }

// TokenKind is the session token kind (access or refresh).
func TokenKind(v string) zap.Field { return zap.String("token_kind", v) }

// MaskedEmail logs an address as "jo***@domain".
func MaskedEmail(v string) zap.Field { return zap.String("email", MaskEmail(v)) }

// MaskEmail keeps the first two characters of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	local, domain := email[:at], email[at+1:]
	if len(local) > 2 {
		local = local[:2]
	}
	return local + "***@" + domain
}

// =================================================================================
// SYSTEM
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

// Layer is the architectural layer (controller, service, store, provider).
func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Int(key string, v int) zap.Field { return zap.Int(key, v) }

func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
