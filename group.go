package rakuda

import "path"

// Group creates a transient builder scoped to prefix (joined onto the
// App's existing base path), invokes configure on it, then merges its
// routes, middlewares and WebSocket routes into the App. Merging an empty
// group is a no-op; calling Group twice with the same prefix is additive
// (spec.md §4.8).
func (a *App) Group(prefix string, configure func(*App)) {
	child := &App{
		basePath:   joinPath(a.basePath, prefix),
		store:      NewRouteStore(),
		wsRoutes:   map[string]WSHandler{},
		logger:     a.logger,
		onConflict: a.onConflict,
		hub:        a.hub,
		notFound:   a.notFound,
		started:    a.started,
	}
	configure(child)

	a.store.Merge(child.store)
	for _, mw := range child.middlewares {
		a.middlewares = append(a.middlewares, mw)
	}
	for p, h := range child.wsRoutes {
		a.wsRoutes[p] = h
	}
}

func joinPath(base, prefix string) string {
	if prefix == "" {
		return base
	}
	joined := path.Join(base, prefix)
	if joined == "" {
		return "/"
	}
	return joined
}
