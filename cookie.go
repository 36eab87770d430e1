package rakuda

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SameSite enumerates the values a CookieSpec's SameSite attribute may take.
type SameSite string

const (
	SameSiteLax    SameSite = "Lax"
	SameSiteStrict SameSite = "Strict"
	SameSiteNone   SameSite = "None"
)

// CookieSpec describes an outbound cookie to be sent via Set-Cookie.
type CookieSpec struct {
	Name     string
	Value    string
	MaxAge   *int
	Expires  *time.Time
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite SameSite
}

// IntPtr is a small helper for building CookieSpec.MaxAge literals.
func IntPtr(v int) *int { return &v }

// DeleteCookie builds a CookieSpec that instructs the client to remove a cookie.
func DeleteCookie(name, path string) CookieSpec {
	return CookieSpec{Name: name, Value: "", MaxAge: IntPtr(0), Path: path}
}

// parseCookieHeader splits a Cookie request header into named items.
// Malformed pieces (no "=", or an empty name) are ignored; a later value
// for the same name overrides an earlier one.
func parseCookieHeader(value string) map[string]string {
	items := map[string]string{}
	for _, piece := range strings.Split(value, ";") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		name, val, ok := strings.Cut(piece, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		items[name] = strings.TrimSpace(val)
	}
	return items
}

// cookieDateLayout is the format browsers expect for a cookie's Expires attribute.
const cookieDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// serializeCookie renders a CookieSpec as a single Set-Cookie header value.
// Attributes are emitted in the order: Max-Age, Expires, Path, Domain,
// Secure, HttpOnly, SameSite. SameSite=None without Secure is logged at
// warn level rather than rejected outright.
func serializeCookie(logger *slog.Logger, spec CookieSpec) string {
	var b strings.Builder
	b.WriteString(spec.Name)
	b.WriteByte('=')
	b.WriteString(spec.Value)

	if spec.MaxAge != nil {
		fmt.Fprintf(&b, "; Max-Age=%d", *spec.MaxAge)
	}
	if spec.Expires != nil {
		b.WriteString("; Expires=")
		b.WriteString(spec.Expires.UTC().Format(cookieDateLayout))
	}
	if spec.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(spec.Path)
	}
	if spec.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(spec.Domain)
	}
	if spec.Secure {
		b.WriteString("; Secure")
	}
	if spec.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	if spec.SameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(string(spec.SameSite))
		if spec.SameSite == SameSiteNone && !spec.Secure && logger != nil {
			logger.Warn("cookie uses SameSite=None without Secure", "name", spec.Name)
		}
	}
	return b.String()
}
