package rakuda

import (
	"io"
	"net/http"

	"github.com/go-rakuda/rakuda/wshub"
)

// RequestEvent is the unit of work the middleware chain and route handlers
// operate on: one per inbound request, built by the orchestrator and
// discarded once the response has been emitted.
type RequestEvent struct {
	Raw    *http.Request
	Res    *Response
	Params map[string]string

	body        []byte
	bodyErr     error
	bodyRead    bool
	cookies     map[string]string
	cookiesRead bool
}

// newRequestEvent builds a RequestEvent with status 200, empty headers and
// params, and a body not yet read.
func newRequestEvent(r *http.Request, params map[string]string) *RequestEvent {
	return &RequestEvent{
		Raw:    r,
		Res:    NewResponse(),
		Params: params,
	}
}

// NewRequestEvent builds a RequestEvent directly from an *http.Request,
// for tests and for middleware exercised outside a full App (e.g.
// rakudamiddleware's own test suite).
func NewRequestEvent(r *http.Request) *RequestEvent {
	return newRequestEvent(r, map[string]string{})
}

// Method returns the request's HTTP method.
func (e *RequestEvent) Method() string { return e.Raw.Method }

// Path returns the request's URL path.
func (e *RequestEvent) Path() string { return e.Raw.URL.Path }

// Header returns the named request header.
func (e *RequestEvent) Header(name string) string { return e.Raw.Header.Get(name) }

// Param returns the named path parameter, or "" if it was not captured.
func (e *RequestEvent) Param(name string) string { return e.Params[name] }

// Body reads and caches the raw request body. Subsequent calls return the
// cached bytes without touching the underlying reader again.
func (e *RequestEvent) Body() ([]byte, error) {
	if !e.bodyRead {
		e.bodyRead = true
		if e.Raw.Body != nil {
			e.body, e.bodyErr = io.ReadAll(e.Raw.Body)
		}
	}
	return e.body, e.bodyErr
}

// Cookie parses the Cookie request header on first access and returns the
// named cookie's value.
func (e *RequestEvent) Cookie(name string) (string, bool) {
	if !e.cookiesRead {
		e.cookiesRead = true
		e.cookies = parseCookieHeader(e.Raw.Header.Get("Cookie"))
	}
	v, ok := e.cookies[name]
	return v, ok
}

// SetCookie appends a CookieSpec to be emitted as a Set-Cookie header.
func (e *RequestEvent) SetCookie(spec CookieSpec) {
	e.Res.Cookies = append(e.Res.Cookies, spec)
}

// HandlerFunc is the shape every registered route handler must satisfy: it
// may fail, in which case the orchestrator treats the error like any other
// HandlerError (see serve.go).
type HandlerFunc func(*RequestEvent) (Responder, error)

// WSHandler receives the Open/Message/Close events for one WebSocket
// connection's lifetime (wshub.Handler).
type WSHandler = wshub.Handler
