package breeze

import (
	"fmt"
	"strings"
)

// Router allows mixing middleware groups and method-scoped route groups.
// Consecutive registrations of the same kind coalesce: two Use calls in a
// row share one StackBuilder, two Handle calls in a row share one set of
// per-method matchers. Materializing a Router produces a Stack whose base
// path is r's own accumulated prefix, wrapping each segment as a
// middleware in registration order.
type Router struct {
	prefix   string
	segments []routerSegment
}

type routerSegmentKind uint8

const (
	segMiddleware routerSegmentKind = iota
	segRoutes
	segRouter
)

type routerSegment struct {
	kind    routerSegmentKind
	stack   *StackBuilder          // segMiddleware
	routes  map[Method]*Matcher[Action] // segRoutes
	router  *Router                // segRouter
	subBase string                 // segRouter
}

// NewRouter returns an empty Router scoped under prefix (relative to
// whatever Scope it is eventually materialized with).
func NewRouter(prefix string) *Router {
	return &Router{prefix: prefix}
}

// Use registers a deferred middleware factory, coalescing into the
// previous segment if it was also a middleware group.
func (r *Router) Use(f MiddlewareFactory) {
	if n := len(r.segments); n > 0 && r.segments[n-1].kind == segMiddleware {
		r.segments[n-1].stack.Use(f)
		return
	}
	sb := NewStackBuilder()
	sb.Use(f)
	r.segments = append(r.segments, routerSegment{kind: segMiddleware, stack: sb})
}

// UseFunc is Use for a Middleware that needs no scope-dependent setup.
func (r *Router) UseFunc(mw Middleware) {
	r.Use(func(Scope) (Middleware, error) { return mw, nil })
}

// Handle registers action for method and pattern, coalescing into the
// previous segment if it was also a route group. pattern is relative to
// r's own prefix.
func (r *Router) Handle(method Method, pattern string, action Action) error {
	var routes map[Method]*Matcher[Action]
	if n := len(r.segments); n > 0 && r.segments[n-1].kind == segRoutes {
		routes = r.segments[n-1].routes
	} else {
		routes = make(map[Method]*Matcher[Action])
		r.segments = append(r.segments, routerSegment{kind: segRoutes, routes: routes})
	}

	m, ok := routes[method]
	if !ok {
		m = NewMatcher[Action]()
		routes[method] = m
	}

	return m.Insert(pattern, action)
}

// Group creates and registers a nested Router scoped under base (relative
// to r's own prefix), always as its own segment (nested scopes never
// coalesce with sibling middleware/route groups).
func (r *Router) Group(base string) *Router {
	child := NewRouter(base)
	r.segments = append(r.segments, routerSegment{kind: segRouter, router: child, subBase: base})
	return child
}

// Build materializes r against scope: scope propagates downward so every
// descendant's base path is the concatenation of its ancestors' base
// paths.
func (r *Router) Build(scope Scope) (*Stack, error) {
	own := scope.Append(r.prefix)

	outer := &Stack{Base: own.Base, Terminator: NotFoundHandler}

	for _, seg := range r.segments {
		switch seg.kind {
		case segMiddleware:
			st, err := seg.stack.Build(own)
			if err != nil {
				return nil, err
			}
			outer.Middlewares = append(outer.Middlewares, st.Process)

		case segRoutes:
			mw := routesMiddleware(seg.routes, own.Base)
			outer.Middlewares = append(outer.Middlewares, mw)

		case segRouter:
			child, err := seg.router.Build(own)
			if err != nil {
				return nil, fmt.Errorf("breeze: building nested router %q: %w", seg.subBase, err)
			}
			outer.Middlewares = append(outer.Middlewares, child.Process)
		}
	}

	return outer, nil
}

// routesMiddleware turns a set of per-method Matchers into a Middleware
// that dispatches on req.Method/req.URI.Path, forwarding to next on a
// miss (so a Router with route groups interleaved with later middleware
// groups still lets the later groups run). Patterns are matched against
// the path with base stripped.
func routesMiddleware(routes map[Method]*Matcher[Action], base string) Middleware {
	return func(req *Request, next Handler) *Response {
		m, ok := routes[req.Method]
		if !ok {
			return next(req)
		}

		path := req.URI.Path
		if base != "" && base != "/" {
			if path = strings.TrimPrefix(path, base); path == "" {
				path = "/"
			}
		}

		action, params, ok := m.At(path)
		if !ok {
			return next(req)
		}

		return action(req, params)
	}
}
