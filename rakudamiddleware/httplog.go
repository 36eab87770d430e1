package rakudamiddleware

import (
	"time"

	"github.com/go-rakuda/rakuda"
)

// HTTPLog is a MiddlewareFunc that logs request/response information:
// method, path, error (if any), and duration.
func HTTPLog(event *rakuda.RequestEvent, next func() (rakuda.Responder, error)) (rakuda.Responder, error) {
	start := time.Now()

	responder, err := next()

	// The Responder's Options (which may set the final status) only runs
	// once the whole chain has unwound, outside any middleware's view; log
	// what's known here rather than guess at a status not yet materialized.
	duration := time.Since(start)
	logger := rakuda.LoggerFromContextOrDefault(event.Raw.Context())
	logger.InfoContext(event.Raw.Context(), "request",
		"method", event.Method(),
		"path", event.Path(),
		"error", err,
		"duration", duration,
	)
	return responder, err
}
