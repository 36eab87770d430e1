package binding

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Body is the Source used for errors raised while reading a request body,
// as opposed to query/header/cookie/path/form parameters.
const Body Source = "body"

// bodyErrorKind distinguishes the body-decode failure modes spec.md §4.4/§7
// names: InvalidText, InvalidJsonCharset, InvalidJson.
type bodyErrorKind string

const (
	InvalidText        bodyErrorKind = "invalid_text"
	InvalidJsonCharset bodyErrorKind = "invalid_json_charset"
	InvalidJson        bodyErrorKind = "invalid_json"
)

func bodyError(kind bodyErrorKind, err error) error {
	return &Error{Source: Body, Key: string(kind), Err: err}
}

// FromRequester lets a type provide its own body-decoding logic, typically
// layered on top of JSON.
type FromRequester interface {
	FromRequest(req *http.Request) error
}

// FromRequest decodes req's body into a T, dispatching on T: a type whose
// pointer implements FromRequester decodes itself from req; []byte gets
// the raw body; string gets the body after UTF-8 validation; any other T
// is JSON-parsed, after checking that an application/json Content-Type
// names no charset other than utf-8. The Content-Type's media type does
// not select the decoder.
func FromRequest[T any](req *http.Request) (T, error) {
	var zero T

	if ptr, ok := any(&zero).(FromRequester); ok {
		if err := ptr.FromRequest(req); err != nil {
			return zero, err
		}
		return zero, nil
	}

	raw, err := readBody(req)
	if err != nil {
		return zero, bodyError(InvalidText, err)
	}

	switch any(zero).(type) {
	case []byte:
		return any(raw).(T), nil
	case string:
		if utf8.Valid(raw) {
			return any(string(raw)).(T), nil
		}
		return zero, bodyError(InvalidText, fmt.Errorf("body is not valid UTF-8"))
	}

	return decodeJSON[T](req, raw)
}

// DispatchBody chooses a Responder-agnostic decode strategy purely from the
// Content-Type header, the convention spec.md §4.4 names for the generic
// "echo whatever was sent" pattern: json, text, or raw bytes.
func DispatchBody(req *http.Request) (kind string, value any, err error) {
	raw, err := readBody(req)
	if err != nil {
		return "", nil, bodyError(InvalidText, err)
	}

	ct := req.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(ct)
	switch mediaType {
	case "application/json":
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return "", nil, bodyError(InvalidJson, err)
		}
		return "json", v, nil
	case "text/plain", "text/html":
		if !utf8.Valid(raw) {
			return "", nil, bodyError(InvalidText, fmt.Errorf("body is not valid UTF-8"))
		}
		return "text", string(raw), nil
	default:
		return "bytes", raw, nil
	}
}

func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}
	return io.ReadAll(req.Body)
}

func decodeJSON[T any](req *http.Request, raw []byte) (T, error) {
	var zero T
	ct := req.Header.Get("Content-Type")
	if ct != "" {
		mediaType, params, err := mime.ParseMediaType(ct)
		if err != nil {
			return zero, bodyError(InvalidJsonCharset, err)
		}
		if mediaType == "application/json" {
			if charset, ok := params["charset"]; ok && !strings.EqualFold(charset, "utf-8") {
				return zero, bodyError(InvalidJsonCharset, fmt.Errorf("unsupported charset %q", charset))
			}
		}
	}

	if len(raw) == 0 {
		return zero, nil
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, bodyError(InvalidJson, err)
	}
	return out, nil
}
