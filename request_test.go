package breeze

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIncomplete(t *testing.T) {
	_, err := Parse([]byte("GET / HTTP/1.1\r\nHost: example.com\r\n"))
	assert.True(t, errors.Is(err, ErrIncomplete))
}

func TestParseTooLarge(t *testing.T) {
	data := make([]byte, maxRequestSize+1)
	_, err := Parse(data)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, StatusPayloadTooLarge, verr.Status)
}

func TestParseBasicRequest(t *testing.T) {
	raw := "GET /search?q=go HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhello"
	req, err := Parse([]byte(raw))
	assert.NoError(t, err)
	assert.Equal(t, GET, req.Method)
	assert.Equal(t, "/search", req.URI.Path)
	assert.Equal(t, "go", req.URI.Query.Get("q"))
	assert.Equal(t, "example.com", req.Headers.Get(HeaderHost))
	assert.Equal(t, "hello", string(req.Body))
}

func TestParseMalformedRequestLine(t *testing.T) {
	_, err := Parse([]byte("GET\r\n\r\n"))
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseUnsupportedVersion(t *testing.T) {
	_, err := Parse([]byte("GET / HTTP/2.0\r\n\r\n"))
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseURITooLong(t *testing.T) {
	longPath := "/" + strings.Repeat("a", maxURILen+1)
	_, err := Parse([]byte("GET " + longPath + " HTTP/1.1\r\n\r\n"))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, StatusURITooLong, verr.Status)
}

func TestParseTargetMustStartWithSlash(t *testing.T) {
	_, err := Parse([]byte("GET foo HTTP/1.1\r\n\r\n"))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, StatusBadRequest, verr.Status)
}

func TestParseRejectsParentDirTraversal(t *testing.T) {
	_, err := Parse([]byte("GET /../etc/passwd HTTP/1.1\r\n\r\n"))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, StatusBadRequest, verr.Status)
}

func TestParseUnknownMethod(t *testing.T) {
	_, err := Parse([]byte("FOOBAR / HTTP/1.1\r\n\r\n"))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, StatusBadRequest, verr.Status)
}

func TestParseHeaderLinesDropsUnknownHeaders(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nHost: example.com\r\nX-Custom: ignored\r\n\r\n"
	req, err := Parse([]byte(raw))
	assert.NoError(t, err)
	assert.Equal(t, "example.com", req.Headers.Get(HeaderHost))
}

func TestParseHeaderValueTooLarge(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nHost: " + strings.Repeat("a", maxHeaderValueLen+1) + "\r\n\r\n"
	_, err := Parse([]byte(raw))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, StatusRequestHeaderFieldsTooLarge, verr.Status)
}

func TestParseHeaderCountCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("GET / HTTP/1.1\r\n")
	for i := 0; i < maxHeaderCount+10; i++ {
		b.WriteString("Host: example.com\r\n")
	}
	b.WriteString("\r\n")

	req, err := Parse([]byte(b.String()))
	assert.NoError(t, err)
	assert.Len(t, req.Headers.Values(HeaderHost), maxHeaderCount)
}
