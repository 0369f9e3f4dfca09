package breeze

import "strings"

// HeaderName is a closed enumeration of the header names this package
// understands. Any header whose name is not one of these constants is
// dropped silently while parsing a Request, so middlewares never branch on
// raw strings and can never be tricked into treating an attacker-controlled
// header name as one they recognize.
type HeaderName uint8

// The well-known headers this module's server, router and built-in
// middlewares need to read or write.
const (
	HeaderHost HeaderName = iota + 1
	HeaderConnection
	HeaderUpgrade
	HeaderContentType
	HeaderContentLength
	HeaderContentEncoding
	HeaderDate
	HeaderLastModified
	HeaderIfModifiedSince
	HeaderLocation
	HeaderCacheControl
	HeaderAllow
	HeaderSecWebSocketKey
	HeaderSecWebSocketVersion
	HeaderSecWebSocketAccept
	HeaderAcceptEncoding
)

var headerNames = [...]string{
	HeaderHost:                "Host",
	HeaderConnection:          "Connection",
	HeaderUpgrade:             "Upgrade",
	HeaderContentType:         "Content-Type",
	HeaderContentLength:       "Content-Length",
	HeaderContentEncoding:     "Content-Encoding",
	HeaderDate:                "Date",
	HeaderLastModified:        "Last-Modified",
	HeaderIfModifiedSince:     "If-Modified-Since",
	HeaderLocation:            "Location",
	HeaderCacheControl:        "Cache-Control",
	HeaderAllow:               "Allow",
	HeaderSecWebSocketKey:     "Sec-WebSocket-Key",
	HeaderSecWebSocketVersion: "Sec-WebSocket-Version",
	HeaderSecWebSocketAccept:  "Sec-WebSocket-Accept",
	HeaderAcceptEncoding:      "Accept-Encoding",
}

// headerByName is built once at init so parsing a header line is a single
// map lookup rather than a scan of headerNames.
var headerByName map[string]HeaderName

func init() {
	headerByName = make(map[string]HeaderName, len(headerNames))
	for h, name := range headerNames {
		if h == 0 {
			continue
		}
		headerByName[strings.ToLower(name)] = HeaderName(h)
	}
}

// String returns the wire representation of h, or "" if h is not one of the
// named constants.
func (h HeaderName) String() string {
	if int(h) < len(headerNames) {
		return headerNames[h]
	}
	return ""
}

// parseHeaderName looks up the HeaderName for the case-insensitive wire
// name s. Unknown names report ok=false and are dropped by the parser.
func parseHeaderName(s string) (HeaderName, bool) {
	h, ok := headerByName[strings.ToLower(s)]
	return h, ok
}

// Headers is a header map keyed by the closed HeaderName enum. Values are
// owned strings; Parse copies request header values out of its buffer.
type Headers map[HeaderName][]string

// Get returns the first value associated with h, or "" if there is none.
func (hs Headers) Get(h HeaderName) string {
	if vs := hs[h]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Values returns all values associated with h.
func (hs Headers) Values(h HeaderName) []string {
	return hs[h]
}

// Set replaces any existing values for h with value.
func (hs Headers) Set(h HeaderName, value string) {
	hs[h] = []string{value}
}

// Add appends value to the list already associated with h.
func (hs Headers) Add(h HeaderName, value string) {
	hs[h] = append(hs[h], value)
}

// Del removes h from hs entirely.
func (hs Headers) Del(h HeaderName) {
	delete(hs, h)
}

// Has reports whether h has at least one value in hs.
func (hs Headers) Has(h HeaderName) bool {
	return len(hs[h]) > 0
}
