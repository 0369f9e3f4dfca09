package breeze

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"

	"github.com/rowanco/breeze/internal/blog"
)

// connState is the two-state machine a Connection moves through: it is
// always either accumulating a request or draining a response.
type connState uint8

const (
	connReading connState = iota
	connWriting
)

// signalKind is what a read/write step asks the loop to do next.
type signalKind uint8

const (
	sigContinue signalKind = iota
	sigInterest
	sigClose
	sigUpgrade
)

// Signal is the result of a connection read or write step, per the
// per-tick algorithm's "Apply Signals" rule.
type Signal struct {
	kind signalKind
	in   interest
	ws   *pendingUpgrade
}

func sigInterestOf(in interest) Signal { return Signal{kind: sigInterest, in: in} }
func sigCloseOf() Signal               { return Signal{kind: sigClose} }
func sigContinueOf() Signal            { return Signal{kind: sigContinue} }
func sigUpgradeOf(p *pendingUpgrade) Signal {
	return Signal{kind: sigUpgrade, ws: p}
}

// pendingUpgrade carries the information needed to hand a connection off
// to the WebSocket peer set once its 101 response has fully drained.
type pendingUpgrade struct {
	req *Request
}

const readChunk = 1024 // 1 KiB per syscall, per the connection read step.

// connection is one accepted socket, tracked by the event loop.
type connection struct {
	fd    int
	token int32

	state connState

	bufs    *bufferPool
	readBuf []byte

	writeBuf []byte
	writeOff int

	pending *pendingUpgrade

	lastActivity time.Time

	log *blog.Logger
}

func newConnection(fd int, token int32, bufs *bufferPool, log *blog.Logger) *connection {
	return &connection{
		fd:           fd,
		token:        token,
		state:        connReading,
		bufs:         bufs,
		readBuf:      bufs.get(),
		lastActivity: time.Now(),
		log:          log,
	}
}

// release returns c's pooled buffers. Called once c leaves the event
// loop's bookkeeping (closed, or handed off to the WebSocket peer set).
func (c *connection) release() {
	if c.readBuf != nil {
		c.bufs.put(c.readBuf)
		c.readBuf = nil
	}
}

// isExpectedIOError reports whether err is one of the socket errors the
// connection read/write steps treat as an ordinary disconnect (silent
// close) rather than something worth logging.
func isExpectedIOError(err error) bool {
	return errors.Is(err, unix.ECONNRESET) ||
		errors.Is(err, unix.ECONNABORTED) ||
		errors.Is(err, unix.EPIPE) ||
		errors.Is(err, unix.ENOTCONN)
}

// readStep implements the connection read step: accumulate into readBuf
// until WouldBlock or EOF, attempt to parse a Request on every chunk,
// and dispatch to handle once a full request is available.
func (c *connection) readStep(handle Handler) Signal {
	for {
		var chunk [readChunk]byte
		n, err := unix.Read(c.fd, chunk[:])

		if n > 0 {
			c.readBuf = append(c.readBuf, chunk[:n]...)
			c.lastActivity = time.Now()
		}

		if err == unix.EAGAIN {
			return c.tryParse(handle, false)
		}

		if n == 0 && err == nil {
			// EOF.
			return c.tryParse(handle, true)
		}

		if err != nil {
			if !isExpectedIOError(err) && c.log != nil {
				c.log.Warn("connection read failed", map[string]interface{}{"error": err.Error()})
			}
			return sigCloseOf()
		}
	}
}

// tryParse attempts to parse a Request out of c.readBuf. eof indicates
// the peer has shut down its write side; a partial buffer at EOF closes
// the connection, per the read step's EOF handling.
func (c *connection) tryParse(handle Handler, eof bool) Signal {
	req, err := Parse(c.readBuf)
	if err != nil {
		if errors.Is(err, ErrIncomplete) {
			if eof {
				return sigCloseOf()
			}
			return sigInterestOf(interestRead)
		}

		var resp *Response
		var verr *ValidationError
		if errors.As(err, &verr) {
			resp = FromStatus(verr.Status)
		} else {
			resp = FromStatus(StatusBadRequest)
		}

		return c.beginWrite(resp, nil)
	}

	resp := handle(req)
	var pending *pendingUpgrade
	if resp.Status == StatusSwitchingProtocols {
		pending = &pendingUpgrade{req: req}
	}

	return c.beginWrite(resp, pending)
}

func (c *connection) beginWrite(resp *Response, pending *pendingUpgrade) Signal {
	c.state = connWriting
	c.writeBuf = resp.Serialize()
	c.writeOff = 0
	c.pending = pending
	c.bufs.put(c.readBuf)
	c.readBuf = nil
	return sigInterestOf(interestWrite)
}

// writeStep implements the connection write step: drain writeBuf with
// non-blocking writes until exhausted or WouldBlock.
func (c *connection) writeStep() Signal {
	for c.writeOff < len(c.writeBuf) {
		n, err := unix.Write(c.fd, c.writeBuf[c.writeOff:])
		if n > 0 {
			c.writeOff += n
			c.lastActivity = time.Now()
		}

		if err == unix.EAGAIN {
			return sigInterestOf(interestWrite)
		}
		if err != nil {
			if !isExpectedIOError(err) && c.log != nil {
				c.log.Warn("connection write failed", map[string]interface{}{"error": err.Error()})
			}
			return sigCloseOf()
		}
	}

	if c.pending != nil {
		p := c.pending
		return sigUpgradeOf(p)
	}

	c.state = connReading
	c.writeBuf = nil
	c.writeOff = 0
	c.readBuf = c.bufs.get()
	return sigInterestOf(interestRead)
}
