package middleware

import (
	"path"
	"strings"

	"github.com/rowanco/breeze"
)

// TrailingSlashPolicy is NormalizePath's redirect direction.
type TrailingSlashPolicy uint8

const (
	// Append redirects an extensionless path without a trailing slash
	// to the same path with one added.
	Append TrailingSlashPolicy = iota
	// Remove redirects an extensionless path with a trailing slash to
	// the same path with it stripped.
	Remove
)

// NormalizePathOptions configures NormalizePath.
type NormalizePathOptions struct {
	// Policy is the trailing-slash direction to enforce. Defaults to
	// Append.
	Policy TrailingSlashPolicy
}

// NormalizePath enforces opts.Policy's trailing-slash convention on any
// request path that has no file extension and is not "/", redirecting
// with a 302 (not 301, so a once-bad link is never permanently cached
// by the client). A path with a file extension, or "/" itself, passes
// through unchanged.
func NormalizePath(opts ...NormalizePathOptions) breeze.Middleware {
	var o NormalizePathOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	return func(req *breeze.Request, next breeze.Handler) *breeze.Response {
		p := req.URI.Path
		if p == "/" || hasExtension(p) {
			return next(req)
		}

		corrected := applyPolicy(o.Policy, p)
		if corrected == p {
			return next(req)
		}

		loc := corrected
		if len(req.URI.Query) > 0 {
			loc += "?" + req.URI.Query.Encode()
		}
		return breeze.Redirect(loc)
	}
}

func hasExtension(p string) bool {
	return path.Ext(p) != ""
}

func applyPolicy(policy TrailingSlashPolicy, p string) string {
	hasSlash := strings.HasSuffix(p, "/")
	switch policy {
	case Remove:
		if hasSlash {
			trimmed := strings.TrimSuffix(p, "/")
			if trimmed == "" {
				trimmed = "/"
			}
			return trimmed
		}
	default: // Append
		if !hasSlash {
			return p + "/"
		}
	}
	return p
}
