package breeze

import "strings"

// Scope is an accumulated base-path prefix, built up top-down as a
// Builder/Router tree is materialized. Every descendant Stack's effective
// base path is the concatenation of its ancestors' base paths.
type Scope struct {
	Base string
}

// RootScope is the empty scope a top-level Builder or Router is resolved
// against.
var RootScope = Scope{Base: "/"}

// Append returns the Scope for a nested Router/Stack registered under
// route within s, via the same collapsing rule as Concat.
func (s Scope) Append(route string) Scope {
	return Scope{Base: Concat(s.Base, route)}
}

// matchesBase reports whether path falls under base, per the Stack
// gating rule: base == "/" (or "") always matches; otherwise path must
// equal base or begin with base + "/" so that a base of "/app" does not
// spuriously match a request for "/appendix".
func matchesBase(base, path string) bool {
	if base == "" || base == "/" {
		return true
	}
	return path == base || strings.HasPrefix(path, base+"/")
}
