package rakuda

import (
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/go-rakuda/rakuda/wshub"
)

// App is the application facade (spec.md §4.11): it owns a RouteStore, an
// ordered middleware list, WebSocket routes and a hub, builds an
// http.Handler via Handler and serves it via Serve. It is the evolution of the teacher's Builder,
// generalized from net/http.ServeMux registration to the cospattern-based
// RouteStore the spec requires.
type App struct {
	basePath    string
	store       *RouteStore
	middlewares []MiddlewareEntry
	wsRoutes    map[string]WSHandler
	hub         *wshub.Hub

	logger     *slog.Logger
	onConflict func(method, path string) error
	notFound   Responder

	started *atomic.Bool
}

// Option configures an App at construction time.
type Option func(*App)

// WithBasePath sets the App's root base path (default "").
func WithBasePath(basePath string) Option {
	return func(a *App) { a.basePath = basePath }
}

// WithLogger overrides the App's logger (default: JSON to stderr).
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithNotFound overrides the default 404 Responder.
func WithNotFound(r Responder) Option {
	return func(a *App) { a.notFound = r }
}

// WithOnConflict overrides the default OnConflict policy (which logs a
// warning and lets the later registration replace the earlier one). Returning a non-nil error
// from fn causes the registering call (Get/Post/.../On) to fail.
func WithOnConflict(fn func(method, path string) error) Option {
	return func(a *App) { a.onConflict = fn }
}

// New constructs an empty App: empty store, middleware chain, WebSocket
// routes and hub (spec.md §4.11 "new").
func New(opts ...Option) *App {
	a := &App{
		store:    NewRouteStore(),
		wsRoutes: map[string]WSHandler{},
		logger:   slog.New(slog.NewJSONHandler(os.Stderr, nil)),
		started:  &atomic.Bool{},
	}
	a.onConflict = func(method, path string) error {
		a.logger.Warn("route conflict", "method", method, "path", path)
		return nil
	}
	for _, opt := range opts {
		opt(a)
	}
	a.hub = wshub.New(a.logger)
	return a
}

func (a *App) checkNotStarted() {
	if a.started.Load() {
		panic("rakuda: App mutated after Serve was called")
	}
}

// On registers handler at method+path (joined onto the App's base path).
// Registration fails loudly (ConfigError) on a malformed path template; no
// route is added in that case. A duplicate (method, path) invokes the
// configured OnConflict policy.
func (a *App) On(method, path string, handler HandlerFunc) error {
	a.checkNotStarted()
	fullPath := joinPath(a.basePath, path)

	if a.store.Registered(method, fullPath) {
		if err := a.onConflict(method, fullPath); err != nil {
			return err
		}
	}

	literal, err := a.store.Register(method, fullPath, handler)
	if err != nil {
		return err
	}
	logRegister(a.logger, method, fullPath, literal)
	return nil
}

func (a *App) Get(path string, handler HandlerFunc) error     { return a.On(http.MethodGet, path, handler) }
func (a *App) Post(path string, handler HandlerFunc) error    { return a.On(http.MethodPost, path, handler) }
func (a *App) Put(path string, handler HandlerFunc) error     { return a.On(http.MethodPut, path, handler) }
func (a *App) Patch(path string, handler HandlerFunc) error   { return a.On(http.MethodPatch, path, handler) }
func (a *App) Delete(path string, handler HandlerFunc) error  { return a.On(http.MethodDelete, path, handler) }
func (a *App) Head(path string, handler HandlerFunc) error    { return a.On(http.MethodHead, path, handler) }
func (a *App) Options(path string, handler HandlerFunc) error { return a.On(http.MethodOptions, path, handler) }
func (a *App) Trace(path string, handler HandlerFunc) error   { return a.On(http.MethodTrace, path, handler) }
func (a *App) Connect(path string, handler HandlerFunc) error { return a.On(http.MethodConnect, path, handler) }

// All registers handler for any method (spec.md's method wildcard "*").
func (a *App) All(path string, handler HandlerFunc) error { return a.On(anyMethod, path, handler) }

// Use appends a middleware to the chain. With no explicit basePath it is
// scoped to the App's own base path (the root App's is "", meaning every
// request; a Group's child App defaults to the group's prefix, so
// middleware registered inside a group is naturally confined to it without
// repeating the prefix). An explicit basePath is joined onto the App's
// base path the same way route registration is.
func (a *App) Use(fn MiddlewareFunc, basePath ...string) {
	a.checkNotStarted()
	bp := a.basePath
	if len(basePath) > 0 {
		bp = joinPath(a.basePath, basePath[0])
	}
	a.middlewares = append(a.middlewares, MiddlewareEntry{BasePath: bp, Fn: fn})
}

// WS registers a WebSocket handler at path (joined onto the base path).
func (a *App) WS(path string, handler WSHandler) {
	a.checkNotStarted()
	a.wsRoutes[joinPath(a.basePath, path)] = handler
}

// Hub returns the App's WebSocket pub/sub hub.
func (a *App) Hub() *wshub.Hub { return a.hub }
