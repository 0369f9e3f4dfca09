package breeze

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	"github.com/rowanco/breeze/internal/blog"
)

func socketPair(t *testing.T) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestConnectionReadStepParsesFullRequest(t *testing.T) {
	server, client := socketPair(t)
	bufs := newBufferPool(1024)
	conn := newConnection(server, 1, bufs, nil)

	req := "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"
	_, err := unix.Write(client, []byte(req))
	assert.NoError(t, err)

	handled := false
	sig := conn.readStep(func(r *Request) *Response {
		handled = true
		assert.Equal(t, "/", r.URI.Path)
		return FromStatus(StatusOK)
	})

	assert.True(t, handled)
	assert.Equal(t, sigInterest, sig.kind)
	assert.Equal(t, interestWrite, sig.in)
	assert.Equal(t, connWriting, conn.state)
}

func TestConnectionReadStepIncompleteAsksForMoreReads(t *testing.T) {
	server, client := socketPair(t)
	bufs := newBufferPool(1024)
	conn := newConnection(server, 1, bufs, nil)

	_, err := unix.Write(client, []byte("GET / HTTP/1.1\r\n"))
	assert.NoError(t, err)

	sig := conn.readStep(func(r *Request) *Response { return FromStatus(StatusOK) })
	assert.Equal(t, sigInterest, sig.kind)
	assert.Equal(t, interestRead, sig.in)
	assert.Equal(t, connReading, conn.state)
}

func TestConnectionReadStepEOFWithPartialBufferCloses(t *testing.T) {
	server, client := socketPair(t)
	bufs := newBufferPool(1024)
	conn := newConnection(server, 1, bufs, nil)

	_, err := unix.Write(client, []byte("GET / HTTP/1.1\r\n"))
	assert.NoError(t, err)
	unix.Close(client)

	sig := conn.readStep(func(r *Request) *Response { return FromStatus(StatusOK) })
	assert.Equal(t, sigClose, sig.kind)
}

func TestConnectionWriteStepDrainsBuffer(t *testing.T) {
	server, client := socketPair(t)
	bufs := newBufferPool(1024)
	conn := newConnection(server, 1, bufs, nil)

	resp := FromStatus(StatusOK)
	conn.beginWrite(resp, nil)

	sig := conn.writeStep()
	assert.Equal(t, sigInterest, sig.kind)
	assert.Equal(t, interestRead, sig.in)
	assert.Equal(t, connReading, conn.state)

	buf := make([]byte, 4096)
	n, err := unix.Read(client, buf)
	assert.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "HTTP/1.1 200 OK")
}

func TestConnectionWriteStepSignalsUpgrade(t *testing.T) {
	server, _ := socketPair(t)
	bufs := newBufferPool(1024)
	conn := newConnection(server, 1, bufs, nil)

	req := &Request{}
	conn.beginWrite(HandshakeResponse(&Request{Headers: Headers{}}), &pendingUpgrade{req: req})

	sig := conn.writeStep()
	assert.Equal(t, sigUpgrade, sig.kind)
	assert.Same(t, req, sig.ws.req)
}

func TestIsExpectedIOError(t *testing.T) {
	assert.True(t, isExpectedIOError(unix.ECONNRESET))
	assert.True(t, isExpectedIOError(unix.EPIPE))
	assert.False(t, isExpectedIOError(unix.EAGAIN))
}

func TestConnectionReadStepLogsUnexpectedError(t *testing.T) {
	server, client := socketPair(t)
	unix.Close(client) // force a read against an already-closed peer fd

	var buf bytes.Buffer
	logger := blog.New()
	logger.SetOutput(&buf)

	bufs := newBufferPool(1024)
	conn := newConnection(server, 1, bufs, logger)

	unix.Close(server)
	sig := conn.readStep(func(r *Request) *Response { return FromStatus(StatusOK) })

	assert.Equal(t, sigClose, sig.kind)
	var record map[string]interface{}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "connection read failed", record["message"])
}
