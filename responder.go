package rakuda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"

	"github.com/go-rakuda/rakuda/binding"
)

// Response is the mutable response side of a RequestEvent. Handlers and
// middleware mutate Status/Header directly. The Text, HTML, JSON and Bytes
// responders propose Content-Type only when nothing has set it yet ("first
// writer wins"); Full overrides Status when its own is non-zero and adds
// its headers alongside any already present.
type Response struct {
	Status  int
	Header  http.Header
	Cookies []CookieSpec
}

// NewResponse returns a Response with the spec-mandated default status (200).
func NewResponse() *Response {
	return &Response{Status: http.StatusOK, Header: http.Header{}}
}

// Responder is the two-step output contract a handler's return value must
// satisfy: Options may set status/headers, Output appends the body bytes.
type Responder interface {
	Options(res *Response)
	Output(buf *bytes.Buffer) error
}

// setContentTypeIfAbsent is the "first writer wins" rule from spec.md
// §4.5/§9: a responder only proposes Content-Type when nothing set it yet.
func setContentTypeIfAbsent(res *Response, value string) {
	if res.Header.Get("Content-Type") == "" {
		res.Header.Set("Content-Type", value)
	}
}

// Text is a Responder that writes a plain string body.
type Text string

func (t Text) Options(res *Response) {
	if t != "" {
		setContentTypeIfAbsent(res, "text/plain; charset=utf-8")
	}
}

func (t Text) Output(buf *bytes.Buffer) error {
	buf.WriteString(string(t))
	return nil
}

// HTML is a Responder that writes an HTML body.
type HTML string

func (h HTML) Options(res *Response) {
	if h != "" {
		setContentTypeIfAbsent(res, "text/html; charset=utf-8")
	}
}

func (h HTML) Output(buf *bytes.Buffer) error {
	buf.WriteString(string(h))
	return nil
}

// JSON is a Responder that marshals its payload as canonical JSON.
type JSON struct {
	Value any
}

func (j JSON) Options(res *Response) {
	setContentTypeIfAbsent(res, "application/json; charset=utf-8")
}

func (j JSON) Output(buf *bytes.Buffer) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(j.Value); err != nil {
		return err
	}
	// Encoder.Encode always appends a trailing newline; drop it so the body
	// matches canonical json.Marshal output byte-for-byte.
	if n := buf.Len(); n > 0 && buf.Bytes()[n-1] == '\n' {
		buf.Truncate(n - 1)
	}
	return nil
}

// Bytes is a Responder that writes a raw byte payload as application/octet-stream.
type Bytes []byte

func (b Bytes) Options(res *Response) {
	if len(b) > 0 {
		setContentTypeIfAbsent(res, "application/octet-stream")
	}
}

func (b Bytes) Output(buf *bytes.Buffer) error {
	_, err := buf.Write(b)
	return err
}

// rawBody is a Responder for a caller-chosen Content-Type over raw bytes;
// it backs Writer.HTML so it can reuse the render pipeline without going
// through the octet-stream default that Bytes carries.
type rawBody struct {
	contentType string
	body        []byte
}

func (r rawBody) Options(res *Response) {
	if r.contentType != "" {
		setContentTypeIfAbsent(res, r.contentType)
	}
}

func (r rawBody) Output(buf *bytes.Buffer) error {
	_, err := buf.Write(r.body)
	return err
}

// Empty is a Responder with no body and no Content-Type.
type Empty struct{}

func (Empty) Options(*Response)          {}
func (Empty) Output(*bytes.Buffer) error { return nil }

// Full is the fully-specified Responder (spec.md's HttpResponse): the caller
// controls status, headers, and body directly.
type Full struct {
	Status int
	Header http.Header
	Body   []byte
}

func (f Full) Options(res *Response) {
	if f.Status != 0 {
		res.Status = f.Status
	}
	for k, vs := range f.Header {
		for _, v := range vs {
			res.Header.Add(k, v)
		}
	}
}

func (f Full) Output(buf *bytes.Buffer) error {
	_, err := buf.Write(f.Body)
	return err
}

// NotFoundResponder is the default 404 body/content-type from spec.md §6.
func NotFoundResponder() Responder {
	return Full{Status: http.StatusNotFound, Header: http.Header{"Content-Type": {"text/plain"}}, Body: []byte("Not Found")}
}

// InvalidBodyResponder is the default 400 response from spec.md §6/§7.
func InvalidBodyResponder() Responder {
	return Full{Status: http.StatusBadRequest, Header: http.Header{"Content-Type": {"text/plain"}}, Body: []byte("Invalid body")}
}

// InternalErrorResponder is the default 500 response from spec.md §6/§7.
func InternalErrorResponder() Responder {
	return Full{Status: http.StatusInternalServerError, Header: http.Header{"Content-Type": {"text/plain"}}, Body: []byte("Internal Server Error")}
}

// Writer is a convenience helper for handlers written directly against
// net/http (rather than through RequestEvent/HandlerFunc). It renders
// through the same built-in Responders as the orchestrator, so a direct
// http.Handler and a RequestEvent-based one produce byte-identical output.
type Writer struct {
	defaultLogger *slog.Logger
}

// NewWriter creates a Writer with a default slog logger.
func NewWriter() *Writer {
	return &Writer{defaultLogger: slog.New(slog.NewJSONHandler(os.Stderr, nil))}
}

// Logger returns the logger from the context if present, otherwise the default.
func (w *Writer) Logger(ctx context.Context) *slog.Logger {
	if logger, ok := LoggerFromContext(ctx); ok {
		return logger
	}
	return w.defaultLogger
}

func (w *Writer) render(rw http.ResponseWriter, req *http.Request, status int, r Responder) {
	ctx := req.Context()
	if err := ctx.Err(); err != nil {
		return // client disconnected
	}

	res := NewResponse()
	res.Status = status
	r.Options(res)

	var buf bytes.Buffer
	if err := r.Output(&buf); err != nil {
		w.Logger(ctx).ErrorContext(ctx, "failed to render response", "error", err)
	}

	header := rw.Header()
	for k, vs := range res.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	rw.WriteHeader(res.Status)
	if buf.Len() > 0 {
		if _, err := rw.Write(buf.Bytes()); err != nil {
			w.Logger(ctx).ErrorContext(ctx, "failed to write response body", "error", err)
		}
	}
}

// JSON marshals data as the response body with the given status code.
// A 204 status never carries a body, so data is ignored in that case.
func (w *Writer) JSON(rw http.ResponseWriter, req *http.Request, statusCode int, data any) {
	if statusCode == http.StatusNoContent {
		w.render(rw, req, statusCode, Empty{})
		return
	}
	w.render(rw, req, statusCode, JSON{Value: data})
}

// HTML writes an HTML response. Intended for handlers written directly
// against net/http, not for use with Lift, which targets JSON APIs.
func (w *Writer) HTML(rw http.ResponseWriter, req *http.Request, code int, html []byte) {
	w.render(rw, req, code, rawBody{contentType: "text/html; charset=utf-8", body: html})
}

// Redirect performs an HTTP redirect.
func (w *Writer) Redirect(rw http.ResponseWriter, req *http.Request, url string, code int) {
	http.Redirect(rw, req, url, code)
}

// Error sends a JSON error response.
//
// It logs errors only when the status is >= 500 or the logger's level is
// Debug or lower. For 5xx errors, a generic message is sent to the client
// instead of the underlying error text.
func (w *Writer) Error(rw http.ResponseWriter, req *http.Request, statusCode int, err error) {
	ctx := req.Context()
	logger := w.Logger(ctx)

	if statusCode >= http.StatusInternalServerError || logger.Enabled(ctx, slog.LevelDebug) {
		attrs := []slog.Attr{
			slog.Int("status", statusCode),
			slog.String("error", err.Error()),
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if pc := apiErr.PC(); pc != 0 {
				fs := runtime.CallersFrames([]uintptr{pc})
				f, _ := fs.Next()
				if f.File != "" {
					attrs = append(attrs, slog.Any("source", &slog.Source{File: f.File, Line: f.Line, Function: f.Function}))
				}
			}
		}
		logger.LogAttrs(ctx, slog.LevelError, err.Error(), attrs...)
	}

	var vErrs *binding.ValidationErrors
	if errors.As(err, &vErrs) {
		w.JSON(rw, req, statusCode, vErrs)
		return
	}

	errMsg := err.Error()
	if statusCode >= http.StatusInternalServerError {
		errMsg = "Internal Server Error"
	}
	w.JSON(rw, req, statusCode, map[string]string{"error": errMsg})
}

// eventer lets SSE distinguish a named Event from a bare payload.
type eventer interface {
	eventName() string
	eventData() any
}

// Event represents a single Server-Sent Event.
type Event[T any] struct {
	Name string
	Data T
}

func (e Event[T]) eventName() string { return e.Name }
func (e Event[T]) eventData() any    { return e.Data }

// SSE streams values from a channel to the client using the Server-Sent
// Events protocol until the channel closes or the request context is done.
func SSE[T any](w *Writer, rw http.ResponseWriter, req *http.Request, ch <-chan T) {
	ctx := req.Context()
	logger := w.Logger(ctx)

	flusher, ok := rw.(http.Flusher)
	if !ok {
		err := fmt.Errorf("streaming unsupported")
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		logger.ErrorContext(ctx, "ResponseWriter does not support flushing", "error", err)
		return
	}

	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")
	rw.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var eventName string
			var dataPayload any = msg
			if ev, ok := any(msg).(eventer); ok {
				eventName = ev.eventName()
				dataPayload = ev.eventData()
			}

			jsonData, err := json.Marshal(dataPayload)
			if err != nil {
				logger.ErrorContext(ctx, "failed to marshal SSE data to JSON", "error", err, "data", dataPayload)
				continue
			}

			if eventName != "" {
				if _, err := fmt.Fprintf(rw, "event: %s\n", eventName); err != nil {
					logger.ErrorContext(ctx, "failed to write SSE event name", "error", err)
					return
				}
			}
			if _, err := fmt.Fprintf(rw, "data: %s\n\n", jsonData); err != nil {
				logger.ErrorContext(ctx, "failed to write SSE data", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}
