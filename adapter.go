package rakuda

import (
	"io"
	"net/http"
	"net/http/httptest"
)

// FromHTTPHandler adapts a plain net/http.Handler — e.g. the output of
// Lift, or any handler written directly against net/http — into a
// HandlerFunc that can be registered on an App. The wrapped handler's
// response is captured and re-expressed as a Full Responder so it still
// goes through the same Options/Output materialisation as every other
// route.
func FromHTTPHandler(h http.Handler) HandlerFunc {
	return func(event *RequestEvent) (Responder, error) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, event.Raw)
		res := rec.Result()
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, err
		}
		return Full{Status: res.StatusCode, Header: res.Header, Body: body}, nil
	}
}
