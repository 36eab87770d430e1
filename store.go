package rakuda

import (
	"log/slog"

	"github.com/go-rakuda/rakuda/cospattern"
)

// anyMethod is the sentinel method that matches any HTTP method during
// lookup, with lowest precedence (spec.md §4.2).
const anyMethod = "*"

type routeKey struct{ Method, Path string }

type templatedRoute struct {
	pattern cospattern.Pattern
	handler HandlerFunc
}

// RouteStore is the dual static/dynamic route index: literal paths are
// looked up in O(1); templated ones are scanned in registration order.
// all/allOrder back route introspection (PrintRoutes).
type RouteStore struct {
	literal   map[string]map[string]HandlerFunc
	templated map[string][]templatedRoute
	all       map[routeKey]HandlerFunc
	allOrder  []routeKey
}

// NewRouteStore returns an empty RouteStore.
func NewRouteStore() *RouteStore {
	return &RouteStore{
		literal:   map[string]map[string]HandlerFunc{},
		templated: map[string][]templatedRoute{},
		all:       map[routeKey]HandlerFunc{},
	}
}

// Register classifies fullPath and inserts handler into the literal or
// templated index accordingly, plus the all_mappings registry. It returns
// a ConfigError if the path template fails to compile; the returned bool
// reports whether the path was classified as literal.
func (s *RouteStore) Register(method, fullPath string, handler HandlerFunc) (bool, error) {
	pattern, err := cospattern.Compile(fullPath)
	if err != nil {
		return false, err
	}

	key := routeKey{Method: method, Path: fullPath}
	if _, exists := s.all[key]; !exists {
		s.allOrder = append(s.allOrder, key)
	}
	s.all[key] = handler

	literal := cospattern.IsLiteral(pattern)
	if literal {
		if s.literal[method] == nil {
			s.literal[method] = map[string]HandlerFunc{}
		}
		s.literal[method][fullPath] = handler
		return true, nil
	}

	routes := s.templated[method]
	for i := range routes {
		if routes[i].pattern.Raw == fullPath {
			routes[i].handler = handler
			return false, nil
		}
	}
	s.templated[method] = append(routes, templatedRoute{pattern: pattern, handler: handler})
	return false, nil
}

// Registered reports whether (method, fullPath) has already been
// registered, independent of lookup precedence.
func (s *RouteStore) Registered(method, fullPath string) bool {
	_, ok := s.all[routeKey{Method: method, Path: fullPath}]
	return ok
}

// Find looks up a handler for method+path, in precedence order: exact
// literal, exact-method templated (insertion order), wildcard-method
// literal, wildcard-method templated.
func (s *RouteStore) Find(method, path string) (HandlerFunc, map[string]string, bool) {
	if h, ok := s.literal[method][path]; ok {
		return h, map[string]string{}, true
	}
	for _, tr := range s.templated[method] {
		if params, ok := tr.pattern.Match(path); ok {
			return tr.handler, params, true
		}
	}
	if h, ok := s.literal[anyMethod][path]; ok {
		return h, map[string]string{}, true
	}
	for _, tr := range s.templated[anyMethod] {
		if params, ok := tr.pattern.Match(path); ok {
			return tr.handler, params, true
		}
	}
	return nil, nil, false
}

// Merge inserts every entry of other into s, preserving insertion order:
// other's templated entries are appended after s's existing ones.
func (s *RouteStore) Merge(other *RouteStore) {
	for method, byPath := range other.literal {
		if s.literal[method] == nil {
			s.literal[method] = map[string]HandlerFunc{}
		}
		for p, h := range byPath {
			s.literal[method][p] = h
		}
	}
	for method, routes := range other.templated {
		s.templated[method] = append(s.templated[method], routes...)
	}
	for _, key := range other.allOrder {
		if _, exists := s.all[key]; !exists {
			s.allOrder = append(s.allOrder, key)
		}
		s.all[key] = other.all[key]
	}
}

// Routes returns the registered (method, path) pairs in registration order.
func (s *RouteStore) Routes() []routeKey {
	return append([]routeKey{}, s.allOrder...)
}

func logRegister(logger *slog.Logger, method, path string, literal bool) {
	logger.Debug("route registered", "method", method, "path", path, "literal", literal)
}
