// Package logger wraps a process-wide zap logger with context scoping.
//
// Init is called once from main. Middlewares attach a request-scoped logger
// (request id, method, path) with ToContext; everything below the HTTP layer
// calls From(ctx) and adds its own layer/component fields:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"))
//	log.Info("session issued", logger.UserID(id), logger.Provider("kakao"))
//
// Emails go through MaskedEmail. Client secrets, provider tokens and session
// tokens are never logged.
package logger
