package breeze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func echoMiddleware(tag string) Middleware {
	return func(req *Request, next Handler) *Response {
		res := next(req)
		res.Headers.Add(HeaderAllow, tag)
		return res
	}
}

func TestStackHandleNotFound(t *testing.T) {
	s := NewStack("/")
	req := &Request{URI: URI{Path: "/nope"}}
	res := s.Handle(req)
	assert.Equal(t, StatusNotFound, res.Status)
}

func TestStackProcessRunsMiddlewareInOrder(t *testing.T) {
	s := NewStack("/", echoMiddleware("first"), echoMiddleware("second"))
	req := &Request{URI: URI{Path: "/"}}
	res := s.Handle(req)
	assert.Equal(t, []string{"second", "first"}, res.Headers.Values(HeaderAllow))
}

func TestStackProcessSkipsWhenBaseDoesNotMatch(t *testing.T) {
	called := false
	s := NewStack("/admin", func(req *Request, next Handler) *Response {
		called = true
		return next(req)
	})

	req := &Request{URI: URI{Path: "/public"}}
	next := func(req *Request) *Response { return FromStatus(StatusOK) }

	res := s.Process(req, next)
	assert.False(t, called)
	assert.Equal(t, StatusOK, res.Status)
}
