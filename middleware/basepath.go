package middleware

import (
	"strings"

	"github.com/rowanco/breeze"
)

// BasePath strips prefix from the request path before calling next and
// restores it afterward, so downstream matchers/handlers can be written
// as if they were mounted at "/". A request for "/" itself is redirected
// to prefix rather than forwarded.
func BasePath(prefix string) breeze.Middleware {
	prefix = strings.TrimSuffix(prefix, "/")

	return func(req *breeze.Request, next breeze.Handler) *breeze.Response {
		if prefix == "" {
			return next(req)
		}

		if req.URI.Path == "/" {
			return breeze.Redirect(prefix)
		}

		original := req.URI.Path
		trimmed := strings.TrimPrefix(original, prefix)
		if trimmed == "" {
			trimmed = "/"
		}

		req.URI.Path = trimmed
		resp := next(req)
		req.URI.Path = original

		return resp
	}
}
