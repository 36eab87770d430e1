package rakudamiddleware

import (
	"bytes"
	"strconv"

	"github.com/go-rakuda/rakuda"
)

// CORSConfig holds the configuration for the CORS middleware. A nil
// config (or zero-valued fields within one) falls back to spec.md §4.9's
// permissive defaults.
type CORSConfig struct {
	// Origin is the value of Access-Control-Allow-Origin. Default "*".
	Origin string
	// Methods is the value of Access-Control-Allow-Methods. Default "*".
	Methods string
	// AllowHeaders is the value of Access-Control-Allow-Headers. Default "*".
	AllowHeaders string
	// ExposeHeaders is the value of Access-Control-Expose-Headers. Default "*".
	ExposeHeaders string
	// Credentials adds Access-Control-Allow-Credentials: true when set.
	Credentials bool
	// MaxAge is the value of Access-Control-Max-Age, in seconds. Default 86400.
	MaxAge int
}

func (c *CORSConfig) withDefaults() CORSConfig {
	cfg := CORSConfig{
		Origin: "*", Methods: "*", AllowHeaders: "*", ExposeHeaders: "*", MaxAge: 86400,
	}
	if c == nil {
		return cfg
	}
	if c.Origin != "" {
		cfg.Origin = c.Origin
	}
	if c.Methods != "" {
		cfg.Methods = c.Methods
	}
	if c.AllowHeaders != "" {
		cfg.AllowHeaders = c.AllowHeaders
	}
	if c.ExposeHeaders != "" {
		cfg.ExposeHeaders = c.ExposeHeaders
	}
	if c.MaxAge != 0 {
		cfg.MaxAge = c.MaxAge
	}
	cfg.Credentials = c.Credentials
	return cfg
}

// CORS returns a middleware implementing spec.md §4.9: it adds the
// configured CORS headers to every response, and short-circuits preflight
// OPTIONS requests (those carrying Access-Control-Request-Method) with a
// bodyless 204 instead of invoking next().
func CORS(config *CORSConfig) rakuda.MiddlewareFunc {
	cfg := config.withDefaults()

	return func(event *rakuda.RequestEvent, next func() (rakuda.Responder, error)) (rakuda.Responder, error) {
		headers := map[string]string{
			"Access-Control-Allow-Origin":   cfg.Origin,
			"Access-Control-Allow-Methods":  cfg.Methods,
			"Access-Control-Allow-Headers":  cfg.AllowHeaders,
			"Access-Control-Expose-Headers": cfg.ExposeHeaders,
			"Access-Control-Max-Age":        strconv.Itoa(cfg.MaxAge),
		}
		if cfg.Credentials {
			headers["Access-Control-Allow-Credentials"] = "true"
		}

		isPreflight := event.Method() == "OPTIONS" && event.Header("Access-Control-Request-Method") != ""
		if isPreflight {
			return corsResponder{headers: headers, status: 204}, nil
		}

		responder, err := next()
		return corsResponder{headers: headers, inner: responder}, err
	}
}

// corsResponder wraps another Responder (or stands alone, for preflight),
// adding the CORS headers before the wrapped Options runs so "first writer
// wins" lets a handler's own Content-Type take precedence (spec.md §9).
type corsResponder struct {
	headers map[string]string
	inner   rakuda.Responder
	status  int
}

func (c corsResponder) Options(res *rakuda.Response) {
	for k, v := range c.headers {
		res.Header.Set(k, v)
	}
	if c.status != 0 {
		res.Status = c.status
		return
	}
	if c.inner != nil {
		c.inner.Options(res)
	}
}

func (c corsResponder) Output(buf *bytes.Buffer) error {
	if c.inner == nil {
		return nil
	}
	return c.inner.Output(buf)
}
