package rakuda

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-rakuda/rakuda/binding"
)

// Transport is the abstract request-serving capability the core depends on
// (spec.md §6); the default implementation below is a thin adapter over
// net/http, matching the teacher's own direct net/http usage.
type Transport interface {
	Serve(addr string, h http.Handler) error
}

// HTTPTransport serves an http.Handler with net/http.ListenAndServe.
type HTTPTransport struct{}

func (HTTPTransport) Serve(addr string, h http.Handler) error {
	return http.ListenAndServe(addr, h)
}

// Handler builds the App's http.Handler: the onion-composed middleware
// chain wrapping the route dispatcher, with panic recovery and body-decode
// failures converted to the default responders (spec.md §4.7).
func (a *App) Handler() http.Handler {
	dispatch := buildChain(a.middlewares, a.dispatchRoute)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wsHandler, ok := a.wsRoutes[r.URL.Path]; ok {
			if err := a.hub.Accept(w, r, wsHandler); err != nil {
				a.logger.ErrorContext(r.Context(), "websocket upgrade failed", "error", err)
			}
			return
		}

		event := newRequestEvent(r, nil)

		responder, err := a.runSafely(event, dispatch)
		if err != nil {
			var bodyErr *binding.Error
			if errors.As(err, &bodyErr) {
				responder = InvalidBodyResponder()
			} else {
				a.logger.ErrorContext(r.Context(), "handler error", "error", err)
				responder = InternalErrorResponder()
			}
		}

		a.writeResponse(w, event, responder)
	})
}

// runSafely invokes dispatch, converting any panic into a HandlerError
// (spec.md §7) so a single failing request cannot take down the server.
func (a *App) runSafely(event *RequestEvent, dispatch func(*RequestEvent) (Responder, error)) (responder Responder, err error) {
	defer func() {
		if p := recover(); p != nil {
			a.logger.ErrorContext(event.Raw.Context(), "panic recovered", "error", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return dispatch(event)
}

// dispatchRoute is the terminal step of the middleware chain: route lookup
// plus handler invocation, or the default 404 responder.
func (a *App) dispatchRoute(event *RequestEvent) (Responder, error) {
	handler, params, ok := a.store.Find(event.Method(), event.Path())
	if !ok {
		return a.notFoundResponder(), nil
	}
	event.Params = params
	return handler(event)
}

func (a *App) notFoundResponder() Responder {
	if a.notFound != nil {
		return a.notFound
	}
	return NotFoundResponder()
}

// writeResponse materialises a Responder: options, then Set-Cookie
// headers, then the body buffer, onto the transport's ResponseWriter
// (spec.md §4.7 step 4).
func (a *App) writeResponse(w http.ResponseWriter, event *RequestEvent, responder Responder) {
	res := event.Res
	if responder != nil {
		responder.Options(res)
	}

	header := w.Header()
	for k, vs := range res.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	for _, c := range res.Cookies {
		header.Add("Set-Cookie", serializeCookie(a.logger, c))
	}

	var buf bytes.Buffer
	if responder != nil {
		if err := responder.Output(&buf); err != nil {
			a.logger.ErrorContext(event.Raw.Context(), "failed to render response body", "error", err)
		}
	}

	w.WriteHeader(res.Status)
	if buf.Len() > 0 {
		if _, err := w.Write(buf.Bytes()); err != nil {
			a.logger.ErrorContext(event.Raw.Context(), "failed to write response body", "error", err)
		}
	}
}

// Serve freezes the App's routes/middlewares/WS routes and starts the
// transport's accept loop. Mutating the App after Serve has been called
// panics (spec.md §5's "frozen before serve accepts the first request").
func (a *App) Serve(addr string, transport ...Transport) error {
	a.started.Store(true)

	var t Transport = HTTPTransport{}
	if len(transport) > 0 {
		t = transport[0]
	}
	return t.Serve(addr, a.Handler())
}
