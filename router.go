package breeze

import (
	"fmt"
	"strings"
)

// Params is the ordered list of path parameters captured by a successful
// Matcher.At call.
type Params []Param

// Param is one captured {name} or {*rest} path parameter.
type Param struct {
	Name  string
	Value string
}

// Get returns the value captured for name, or "" if name was not
// captured by the match.
func (p Params) Get(name string) string {
	for _, kv := range p {
		if kv.Name == name {
			return kv.Value
		}
	}
	return ""
}

// nodeKind classifies a node as static, param, or catch-all (static beats
// param beats catch-all during matching), at segment granularity.
type nodeKind uint8

const (
	staticKind nodeKind = iota
	paramKind
	catchAllKind
)

// node is one segment of the registered route tree.
type node[T any] struct {
	kind      nodeKind
	segment   string // literal segment for staticKind; param name otherwise
	value     T
	hasValue  bool
	paramName string // for paramKind/catchAllKind
	children  map[string]*node[T]
	param     *node[T]
	catchAll  *node[T]
}

func newNode[T any]() *node[T] {
	return &node[T]{children: make(map[string]*node[T])}
}

// Matcher is a radix-like prefix tree mapping parameterized route patterns
// to values of type T. Matching semantics: static segments win over
// parameter segments win over catch-alls; a successful match yields the
// ordered list of captured parameters.
type Matcher[T any] struct {
	root   *node[T]
	routes []string
}

// NewMatcher returns an empty Matcher.
func NewMatcher[T any]() *Matcher[T] {
	return &Matcher[T]{root: newNode[T]()}
}

// Insert registers value for route. It fails with an error (rather than
// panicking — see the Open Question resolution recorded in DESIGN.md) if
// route is syntactically invalid or would resolve identically to an
// already-registered route.
func (m *Matcher[T]) Insert(route string, value T) error {
	segs, err := splitRoute(route)
	if err != nil {
		return err
	}

	shape := routeShape(segs)
	for _, existing := range m.routes {
		es, _ := splitRoute(existing)
		if routeShape(es) == shape {
			return fmt.Errorf("breeze: route %q conflicts with already-registered route %q", route, existing)
		}
	}

	cur := m.root
	for i, seg := range segs {
		last := i == len(segs)-1

		switch {
		case strings.HasPrefix(seg, "{*") && strings.HasSuffix(seg, "}"):
			name := seg[2 : len(seg)-1]
			if cur.catchAll == nil {
				cur.catchAll = newNode[T]()
				cur.catchAll.kind = catchAllKind
				cur.catchAll.paramName = name
			}
			cur = cur.catchAll
			if !last {
				return fmt.Errorf("breeze: route %q: catch-all must be the final segment", route)
			}
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
			name := seg[1 : len(seg)-1]
			if cur.param == nil {
				cur.param = newNode[T]()
				cur.param.kind = paramKind
				cur.param.paramName = name
			}
			cur = cur.param
		default:
			child, ok := cur.children[seg]
			if !ok {
				child = newNode[T]()
				child.kind = staticKind
				child.segment = seg
				cur.children[seg] = child
			}
			cur = child
		}
	}

	cur.value = value
	cur.hasValue = true
	m.routes = append(m.routes, route)

	return nil
}

// At matches path against the registered routes. It returns the value and
// captured params on a match, or ok=false if nothing matches — a miss is
// not an error.
func (m *Matcher[T]) At(path string) (value T, params Params, ok bool) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) == 1 && segs[0] == "" {
		segs = nil // root path
	}

	return m.root.match(segs, nil)
}

func (n *node[T]) match(segs []string, params Params) (value T, out Params, ok bool) {
	if len(segs) == 0 {
		if n.hasValue {
			return n.value, params, true
		}
		var zero T
		return zero, nil, false
	}

	seg, rest := segs[0], segs[1:]

	// Static segments win.
	if child, exists := n.children[seg]; exists {
		if v, p, matched := child.match(rest, params); matched {
			return v, p, true
		}
	}

	// Parameter segments win over catch-alls.
	if n.param != nil {
		if v, p, matched := n.param.match(rest, append(params, Param{Name: n.param.paramName, Value: seg})); matched {
			return v, p, true
		}
	}

	// Catch-all consumes every remaining segment.
	if n.catchAll != nil && n.catchAll.hasValue {
		rest := strings.Join(segs, "/")
		return n.catchAll.value, append(params, Param{Name: n.catchAll.paramName, Value: rest}), true
	}

	var zero T
	return zero, nil, false
}

// splitRoute validates and splits a route pattern: non-empty, starts with
// "/", never ends in "/" except the root, may contain "{name}" params and
// a terminal "{*rest}" catch-all.
func splitRoute(route string) ([]string, error) {
	if route == "" || route[0] != '/' {
		return nil, fmt.Errorf("breeze: route %q must start with /", route)
	}
	if route != "/" && strings.HasSuffix(route, "/") {
		return nil, fmt.Errorf("breeze: route %q must not end with / (except the root)", route)
	}

	if route == "/" {
		return nil, nil
	}

	segs := strings.Split(strings.TrimPrefix(route, "/"), "/")
	for i, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("breeze: route %q has an empty segment", route)
		}
		if strings.Contains(seg, "{*") && i != len(segs)-1 {
			return nil, fmt.Errorf("breeze: route %q: catch-all must be the final segment", route)
		}
	}

	return segs, nil
}

// routeShape reduces segs to a shape string used for conflict detection:
// param names are erased (two routes differing only in param spelling
// still "resolve identically").
func routeShape(segs []string) string {
	shape := make([]string, len(segs))
	for i, seg := range segs {
		switch {
		case strings.HasPrefix(seg, "{*"):
			shape[i] = "{*}"
		case strings.HasPrefix(seg, "{"):
			shape[i] = "{}"
		default:
			shape[i] = seg
		}
	}
	return strings.Join(shape, "/")
}

// Concat concatenates two route strings, collapsing the trivial "/" cases
// so that a base of "/" or a route of "/" never introduces a duplicate
// separator.
func Concat(base, route string) string {
	switch {
	case base == "" || base == "/":
		return route
	case route == "" || route == "/":
		return base
	default:
		return base + route
	}
}
