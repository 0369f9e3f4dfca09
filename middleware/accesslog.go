package middleware

import (
	"time"

	"github.com/rowanco/breeze"
	"github.com/rowanco/breeze/internal/blog"
)

// AccessLog returns a middleware that logs one structured JSON line per
// request: method, path, status and latency.
func AccessLog(log *blog.Logger) breeze.Middleware {
	if log == nil {
		log = blog.New()
	}

	return func(req *breeze.Request, next breeze.Handler) *breeze.Response {
		start := time.Now()
		resp := next(req)
		latency := time.Since(start)

		log.Info("request", map[string]interface{}{
			"method":     req.Method.String(),
			"path":       req.URI.Path,
			"status":     int(resp.Status),
			"latency_us": latency.Microseconds(),
		})

		return resp
	}
}
