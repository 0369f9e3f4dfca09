package breeze

import "strings"

// Method is a closed enumeration of the HTTP request methods this package
// understands. Any other token encountered on the wire is a parse error
// (see Parse), never a MethodUnknown value smuggled downstream —
// middlewares never need to fall back to string comparisons.
type Method uint8

// The nine standard HTTP methods: the eight of RFC 7231 plus PATCH.
const (
	GET Method = iota + 1
	HEAD
	POST
	PUT
	PATCH
	DELETE
	CONNECT
	OPTIONS
	TRACE
)

var methodNames = [...]string{
	GET:     "GET",
	HEAD:    "HEAD",
	POST:    "POST",
	PUT:     "PUT",
	PATCH:   "PATCH",
	DELETE:  "DELETE",
	CONNECT: "CONNECT",
	OPTIONS: "OPTIONS",
	TRACE:   "TRACE",
}

// String returns the wire representation of m, or "" if m is not one of the
// named constants.
func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return ""
}

// parseMethod looks up the Method for the request-line token s. The lookup
// is case-sensitive per RFC 7230 §3.1.1 (method tokens are case-sensitive),
// but callers that need a forgiving match can use methodByNameFold.
func parseMethod(s string) (Method, bool) {
	for m, name := range methodNames {
		if m != 0 && name == s {
			return Method(m), true
		}
	}
	return 0, false
}

// methodByNameFold looks up a Method case-insensitively, so "get" and
// "Get" both map to GET. Parse does not use it; request-line methods go
// through the case-sensitive parseMethod.
func methodByNameFold(s string) (Method, bool) {
	for m, name := range methodNames {
		if m != 0 && strings.EqualFold(name, s) {
			return Method(m), true
		}
	}
	return 0, false
}
