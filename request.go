package breeze

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/http/httpguts"
)

// Size limits enforced while parsing a Request.
const (
	maxRequestSize     = 8 << 20 // 8 MiB
	maxURILen          = 2 << 10 // 2 KiB
	maxHeaderValueLen  = 4 << 10 // 4 KiB
	maxHeaderCount     = 64
)

// ErrIncomplete is returned by Parse when data does not yet contain a full
// request; the caller should read more bytes from the connection and try
// again. It carries no information beyond its identity — callers compare
// it with errors.Is.
var ErrIncomplete = errors.New("breeze: incomplete request")

// ValidationError reports that the request-target, method or headers
// failed a length or syntax constraint. The Status is the response the
// caller should craft (Parse's caller never needs to invent its
// own mapping from error to status).
type ValidationError struct {
	Status Status
}

func (e *ValidationError) Error() string {
	return "breeze: invalid request: " + e.Status.ReasonPhrase()
}

// ParseError reports a malformed request that isn't covered by a specific
// ValidationError status (a missing request-line component, for
// instance). The connection read step responds 400 for any ParseError,
// same as it would for most ValidationErrors — the distinction exists so
// tests can assert on the categorization, not because the wire behavior
// differs.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "breeze: parse error: " + e.Reason }

// Request is an immutable-after-parse HTTP request. Body references the
// input buffer — Parse does not copy the request body. Header values are
// copied out of the buffer into strings.
type Request struct {
	Method  Method
	URI     URI
	Headers Headers
	Body    []byte
}

var crlfcrlf = []byte("\r\n\r\n")

// Parse parses a raw byte buffer (as accumulated so far from a
// connection's read loop) into a Request. It returns (nil, ErrIncomplete)
// when data does not yet contain a full request and the caller should
// read more; (nil, *ValidationError) when a length/syntax constraint was
// violated and the caller should respond with the given status;
// (nil, *ParseError) for any other malformed input, which the caller
// should turn into a 400; or (req, nil) on success.
func Parse(data []byte) (*Request, error) {
	if len(data) > maxRequestSize {
		return nil, &ValidationError{Status: StatusPayloadTooLarge}
	}

	headerEnd := bytes.Index(data, crlfcrlf)
	if headerEnd < 0 {
		return nil, ErrIncomplete
	}

	lines := strings.Split(string(data[:headerEnd]), "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, &ParseError{Reason: "empty request line"}
	}

	method, uri, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}

	headers, err := parseHeaderLines(lines[1:])
	if err != nil {
		return nil, err
	}

	return &Request{
		Method:  method,
		URI:     uri,
		Headers: headers,
		Body:    data[headerEnd+len(crlfcrlf):],
	}, nil
}

func parseRequestLine(line string) (Method, URI, error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return 0, URI{}, &ParseError{Reason: "malformed request line"}
	}

	methodToken, target, version := parts[0], parts[1], parts[2]

	if !strings.HasPrefix(version, "HTTP/1.") {
		return 0, URI{}, &ParseError{Reason: "unsupported HTTP version"}
	}

	if len(target) > maxURILen {
		return 0, URI{}, &ValidationError{Status: StatusURITooLong}
	}

	if target == "" || target[0] != '/' {
		return 0, URI{}, &ValidationError{Status: StatusBadRequest}
	}

	uri := ParseURI(target)
	if hasParentDirComponent(uri.Path) {
		return 0, URI{}, &ValidationError{Status: StatusBadRequest}
	}

	method, ok := parseMethod(methodToken)
	if !ok {
		return 0, URI{}, &ValidationError{Status: StatusBadRequest}
	}

	return method, uri, nil
}

func parseHeaderLines(lines []string) (Headers, error) {
	headers := make(Headers)

	count := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		if count >= maxHeaderCount {
			break
		}

		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}

		name, ok := parseHeaderName(strings.TrimSpace(line[:i]))
		if !ok {
			continue // Unknown header names are dropped silently.
		}

		value := strings.TrimSpace(line[i+1:])
		if len(value) > maxHeaderValueLen {
			return nil, &ValidationError{Status: StatusRequestHeaderFieldsTooLarge}
		}
		if !httpguts.ValidHeaderFieldValue(value) || !utf8.ValidString(value) {
			continue // Non-UTF-8/invalid values are dropped silently.
		}

		headers.Add(name, value)
		count++
	}

	return headers, nil
}
