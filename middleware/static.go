package middleware

import (
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rowanco/breeze"
	"github.com/rowanco/breeze/internal/blog"
)

func timeFromUnixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// StaticFilesOptions configures StaticFiles.
type StaticFilesOptions struct {
	// Root is the directory static content is served from.
	Root string
	// Index is the file served for a directory request. Defaults to
	// "index.html".
	Index string
	// MaxMemoryBytes bounds the in-memory asset cache. Defaults to 64 MiB.
	MaxMemoryBytes int
	// MinifyMIMETypes lists the MIME types run through the minifier.
	// Defaults to CSS, JS and JSON.
	MinifyMIMETypes []string
	// GzipMIMETypes lists the MIME types served gzip-compressed when the
	// client advertises support. Defaults to the same set as MinifyMIMETypes
	// plus HTML.
	GzipMIMETypes []string

	Log *blog.Logger
}

func (o StaticFilesOptions) withDefaults() StaticFilesOptions {
	if o.Index == "" {
		o.Index = "index.html"
	}
	if o.MaxMemoryBytes == 0 {
		o.MaxMemoryBytes = 64 << 20
	}
	if o.MinifyMIMETypes == nil {
		o.MinifyMIMETypes = []string{"text/css; charset=utf-8", "text/javascript; charset=utf-8", "application/json"}
	}
	if o.GzipMIMETypes == nil {
		o.GzipMIMETypes = append([]string{"text/html; charset=utf-8"}, o.MinifyMIMETypes...)
	}
	return o
}

// StaticFiles returns a deferred middleware factory serving files under
// opts.Root, resolving directory requests to opts.Index, caching content
// (optionally minified and gzip pre-compressed) in memory.
func StaticFiles(opts StaticFilesOptions) breeze.MiddlewareFactory {
	opts = opts.withDefaults()

	return func(scope breeze.Scope) (breeze.Middleware, error) {
		root, err := filepath.Abs(opts.Root)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(root); err != nil {
			return nil, err
		}

		coffer := newAssetCoffer(opts.MaxMemoryBytes, opts.MinifyMIMETypes, opts.GzipMIMETypes, opts.Log)

		return func(req *breeze.Request, next breeze.Handler) *breeze.Response {
			if req.Method != breeze.GET && req.Method != breeze.HEAD {
				return next(req)
			}

			rel := strings.TrimPrefix(req.URI.Path, scope.Base)
			rel = path.Clean("/" + rel)

			full := filepath.Join(root, filepath.FromSlash(rel))
			if !strings.HasPrefix(full, root) {
				return next(req)
			}

			if info, err := os.Stat(full); err == nil && info.IsDir() {
				full = filepath.Join(full, opts.Index)
			}

			ca, raw, gz, err := coffer.asset(full)
			if err != nil {
				resp := next(req)
				if resp.Status == breeze.StatusNotFound {
					if notFoundCa, notFoundRaw, notFoundGz, nfErr := coffer.asset(filepath.Join(root, "404.html")); nfErr == nil {
						styled := serveAsset(req, notFoundCa, notFoundRaw, notFoundGz)
						styled.Status = breeze.StatusNotFound
						return styled
					}
				}
				return resp
			}

			return serveAsset(req, ca, raw, gz)
		}, nil
	}
}

func serveAsset(req *breeze.Request, ca *cachedAsset, raw, gz []byte) *breeze.Response {
	lastMod := timeFromUnixNano(ca.lastModified).Truncate(time.Second)
	floor := lastMod.Add(-time.Second)

	if v := req.Headers.Get(breeze.HeaderIfModifiedSince); v != "" {
		if t, err := breeze.ParseHTTPTime(v); err == nil && !t.Before(floor) {
			resp := breeze.NewResponse(breeze.StatusNotModified)
			resp.Headers.Set(breeze.HeaderLastModified, breeze.FormatHTTPTime(lastMod))
			resp.Headers.Set(breeze.HeaderContentLength, "0")
			resp.Headers.Set(breeze.HeaderDate, breeze.FormatHTTPTime(time.Now()))
			return resp
		}
	}

	body := raw
	resp := breeze.NewResponse(breeze.StatusOK)

	if gz != nil && breeze.HasToken(req.Headers.Get(breeze.HeaderAcceptEncoding), "gzip") {
		body = gz
		resp.Headers.Set(breeze.HeaderContentEncoding, "gzip")
	}

	mimeType := ca.mimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	resp.Headers.Set(breeze.HeaderContentType, mimeType)
	resp.Headers.Set(breeze.HeaderContentLength, strconv.Itoa(len(body)))
	resp.Headers.Set(breeze.HeaderLastModified, breeze.FormatHTTPTime(lastMod))
	resp.Headers.Set(breeze.HeaderDate, breeze.FormatHTTPTime(time.Now()))

	if mimeType == "text/javascript; charset=utf-8" || mimeType == "text/css; charset=utf-8" {
		resp.Headers.Set(breeze.HeaderCacheControl, "no-cache")
	}

	if req.Method == breeze.HEAD {
		resp.Body = nil
		return resp
	}

	resp.Body = body
	return resp
}
