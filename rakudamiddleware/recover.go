package rakudamiddleware

import (
	"runtime/debug"

	"github.com/go-rakuda/rakuda"
)

// Recovery is a MiddlewareFunc that recovers from panics raised further in
// on the chain, logs them, and returns the default 500 responder. The
// orchestrator (serve.go) already guards every request against panics;
// installing Recovery additionally catches a panic raised further in (by
// an inner middleware or the handler) before it unwinds through the
// middleware positioned further out, so those receive the 500 responder
// instead. A panic raised by a middleware further out is not caught here.
func Recovery(event *rakuda.RequestEvent, next func() (rakuda.Responder, error)) (responder rakuda.Responder, err error) {
	defer func() {
		if p := recover(); p != nil {
			logger := rakuda.LoggerFromContextOrDefault(event.Raw.Context())
			logger.ErrorContext(event.Raw.Context(), "panic recovered", "error", p, "stack", string(debug.Stack()))
			responder = rakuda.InternalErrorResponder()
			err = nil
		}
	}()
	return next()
}
