// Package middleware holds the built-in middlewares: static file serving
// with an in-memory asset cache, base-path stripping, path normalization,
// the WebSocket handshake, and live-reload script injection.
package middleware

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	minifyv2 "github.com/tdewolff/minify/v2"
	mcss "github.com/tdewolff/minify/v2/css"
	mjs "github.com/tdewolff/minify/v2/js"
	mjson "github.com/tdewolff/minify/v2/json"

	"github.com/rowanco/breeze"
	"github.com/rowanco/breeze/internal/blog"
)

// assetCoffer is a binary-asset cache backed by fastcache, keyed by an
// xxhash of file contents: the cache key has no security requirement
// here, only collision-avoidance for a bounded in-memory set.
//
// A background fsnotify watch invalidates an entry as soon as its
// source file changes, so a served asset is never stale for longer
// than one debounce window.
type assetCoffer struct {
	maxMemory int
	mimeTypes []string
	gzipTypes []string

	once    sync.Once
	cache   *fastcache.Cache
	assets  sync.Map // path -> *cachedAsset
	watcher *fsnotify.Watcher
	minify  *minifyv2.M
	log     *blog.Logger
}

type cachedAsset struct {
	mimeType     string
	minified     bool
	contentKey   uint64
	gzippedKey   uint64
	hasGzip      bool
	lastModified int64
}

// newAssetCoffer returns a coffer caching up to maxMemoryBytes of
// (optionally minified, optionally gzipped) file content, invalidating
// entries whose source file changes on disk.
func newAssetCoffer(maxMemoryBytes int, mimeTypes, gzipTypes []string, log *blog.Logger) *assetCoffer {
	c := &assetCoffer{
		maxMemory: maxMemoryBytes,
		mimeTypes: mimeTypes,
		gzipTypes: gzipTypes,
		log:       log,
		minify:    minifyv2.New(),
	}
	c.minify.AddFunc("text/css", mcss.Minify)
	c.minify.AddFunc("text/javascript", mjs.Minify)
	c.minify.AddFunc("application/json", mjson.Minify)

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		c.watcher = watcher
		go c.watchLoop()
	}

	return c
}

func (c *assetCoffer) watchLoop() {
	for {
		select {
		case e, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if a, ok := c.assets.Load(e.Name); ok {
				ca := a.(*cachedAsset)
				c.assets.Delete(e.Name)
				c.cacheOf().Del(keyBytes(ca.contentKey))
				if ca.hasGzip {
					c.cacheOf().Del(keyBytes(ca.gzippedKey))
				}
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			if c.log != nil {
				c.log.Warn("asset watcher error", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

func (c *assetCoffer) cacheOf() *fastcache.Cache {
	c.once.Do(func() {
		c.cache = fastcache.New(c.maxMemory)
	})
	return c.cache
}

func keyBytes(h uint64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(h >> (8 * i))
	}
	return b[:]
}

// asset fetches (loading, minifying, gzipping and caching on first
// access) the asset at path.
func (c *assetCoffer) asset(path string) (*cachedAsset, []byte, []byte, error) {
	if a, ok := c.assets.Load(path); ok {
		ca := a.(*cachedAsset)
		raw := c.cacheOf().Get(nil, keyBytes(ca.contentKey))
		var gz []byte
		if ca.hasGzip {
			gz = c.cacheOf().Get(nil, keyBytes(ca.gzippedKey))
		}
		return ca, raw, gz, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, err
	}

	mimeType := breeze.MIMETypeByExtension(filepath.Ext(path))

	minified := false
	if contains(c.mimeTypes, mimeType) {
		if out, err := c.minifyBytes(mimeType, raw); err == nil {
			raw = out
			minified = true
		}
	}

	var gz []byte
	hasGzip := false
	if contains(c.gzipTypes, mimeType) {
		var buf bytes.Buffer
		gw, _ := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if _, err := gw.Write(raw); err == nil && gw.Close() == nil {
			gz = buf.Bytes()
			hasGzip = true
		}
	}

	ca := &cachedAsset{
		mimeType:     mimeType,
		minified:     minified,
		contentKey:   xxhash.Sum64(raw),
		hasGzip:      hasGzip,
		lastModified: info.ModTime().UnixNano(),
	}
	c.cacheOf().Set(keyBytes(ca.contentKey), raw)
	if hasGzip {
		ca.gzippedKey = xxhash.Sum64(gz)
		c.cacheOf().Set(keyBytes(ca.gzippedKey), gz)
	}

	if c.watcher != nil {
		c.watcher.Add(path)
	}
	c.assets.Store(path, ca)

	return ca, raw, gz, nil
}

func (c *assetCoffer) minifyBytes(mimeType string, raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.minify.Minify(mimeType, &buf, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("middleware: minify %s: %w", mimeType, err)
	}
	return buf.Bytes(), nil
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
