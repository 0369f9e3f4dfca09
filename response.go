package breeze

import (
	"strconv"
	"strings"
	"time"
)

// Response is an HTTP response: a status, an owned header map, and owned
// body bytes.
type Response struct {
	Status  Status
	Headers Headers
	Body    []byte
}

// NewResponse returns an empty Response with status and an initialized
// header map.
func NewResponse(status Status) *Response {
	return &Response{Status: status, Headers: make(Headers)}
}

// Serialize renders r into the HTTP/1.1 wire format: status line, headers,
// blank line, body. The buffer is pre-sized from the body length and a
// rough per-header estimate, avoiding repeated reallocation.
func (r *Response) Serialize() []byte {
	estimate := 32 + len(r.Body)
	for h, values := range r.Headers {
		for _, v := range values {
			estimate += len(h.String()) + len(v) + 4
		}
	}

	buf := make([]byte, 0, estimate)
	buf = append(buf, "HTTP/1.1 "...)
	buf = strconv.AppendInt(buf, int64(r.Status), 10)
	buf = append(buf, ' ')
	buf = append(buf, r.Status.ReasonPhrase()...)
	buf = append(buf, "\r\n"...)

	for h, values := range r.Headers {
		name := h.String()
		if name == "" {
			continue
		}
		for _, v := range values {
			buf = append(buf, name...)
			buf = append(buf, ':', ' ')
			buf = append(buf, v...)
			buf = append(buf, "\r\n"...)
		}
	}

	buf = append(buf, "\r\n"...)
	buf = append(buf, r.Body...)

	return buf
}

// httpTimeFormat is the RFC 7231 §7.1.1.1 IMF-fixdate format used for
// Date/Last-Modified/If-Modified-Since header values.
const httpTimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// FormatHTTPTime formats t per RFC 7231 for use in a Date, Last-Modified
// or similar header.
func FormatHTTPTime(t time.Time) string {
	return t.UTC().Format(httpTimeFormat)
}

// ParseHTTPTime parses an RFC 7231 IMF-fixdate value, as sent in an
// If-Modified-Since request header.
func ParseHTTPTime(value string) (time.Time, error) {
	return time.Parse(httpTimeFormat, strings.TrimSpace(value))
}

// FromStatus builds a plain-text Response whose body is the status's
// reason phrase.
func FromStatus(status Status) *Response {
	body := status.ReasonPhrase()
	r := NewResponse(status)
	r.Headers.Set(HeaderContentType, "text/plain; charset=utf-8")
	r.Body = []byte(body)
	r.Headers.Set(HeaderContentLength, strconv.Itoa(len(r.Body)))
	return r
}

// Redirect builds a 302 Response pointing at location. 302 rather than
// 301 avoids permanent client caching of potentially incorrect links from
// NormalizePath.
func Redirect(location string) *Response {
	r := NewResponse(StatusFound)
	r.Headers.Set(HeaderLocation, location)
	r.Headers.Set(HeaderContentLength, "0")
	return r
}
