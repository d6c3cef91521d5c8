package logutil

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type (
	key byte
)

var (
	loggerKey = key(1)
)

func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func GetOrDefault(ctx context.Context) zerolog.Logger {
	v := ctx.Value(loggerKey)
	if v == nil {
		return log.Logger
	}
	return v.(zerolog.Logger)
}

// RequestLogger derives a sub-logger carrying a fresh request id and the
// client address, and returns the request with that logger in its context.
func RequestLogger(r *http.Request) (*http.Request, zerolog.Logger) {
	logger := GetOrDefault(r.Context()).With().
		Str("request.id", uuid.NewString()).
		Str("request.method", r.Method).
		Str("request.path", r.URL.Path).
		Str("request.remote", r.RemoteAddr).
		Logger()
	return r.WithContext(WithLogger(r.Context(), logger)), logger
}
