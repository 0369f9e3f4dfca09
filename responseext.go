package breeze

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aofei/mimesniffer"
)

// extMIMETypes is the fixed extension table used to infer Content-Type
// for a served file, falling back to octet-stream when the extension is
// unrecognized. Narrowed to what a static site's build output actually
// emits.
var extMIMETypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".json": "application/json",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".pdf":  "application/pdf",
	".mp4":  "video/mp4",
	".txt":  "text/plain; charset=utf-8",
	".xml":  "application/xml",
}

const defaultMIMEType = "application/octet-stream"

// MIMETypeByExtension returns the fixed-table MIME type for ext (as
// returned by filepath.Ext, including the leading dot), or "" if ext is
// not in the table.
func MIMETypeByExtension(ext string) string {
	return extMIMETypes[strings.ToLower(ext)]
}

// FromFile reads path and builds a Response whose Content-Type is
// inferred from the fixed extension table (falling back to sniffing the
// content, then to application/octet-stream), with Content-Length and a
// Last-Modified header set from the file's mtime.
//
// The mimesniffer fallback means an asset whose extension isn't in the
// fixed table still gets a best-effort Content-Type instead of going
// straight to octet-stream.
func FromFile(path string) (*Response, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	mimeType := MIMETypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		if sniffed := mimesniffer.Sniff(body); sniffed != "" {
			mimeType = sniffed
		} else {
			mimeType = defaultMIMEType
		}
	}

	r := NewResponse(StatusOK)
	r.Body = body
	r.Headers.Set(HeaderContentType, mimeType)
	r.Headers.Set(HeaderContentLength, strconv.Itoa(len(body)))
	r.Headers.Set(HeaderLastModified, FormatHTTPTime(info.ModTime()))

	return r, nil
}
