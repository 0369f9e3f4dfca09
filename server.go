package breeze

import (
	"fmt"
	"math"
	"net"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sys/unix"

	"github.com/rowanco/breeze/internal/blog"
)

// wakerToken is the reserved sentinel token identifying the loop's
// waker, per the registration scheme: tokens in [0, A) are acceptors,
// [A, A+N) are HTTP connections, and the maximum int32 value is the
// waker.
const wakerToken int32 = math.MaxInt32

// Server is the single-threaded, non-blocking HTTP/1.1 event loop. It
// owns exactly one OS thread's worth of execution once Serve is called:
// all accept/read/write/upgrade work happens inline on that call.
type Server struct {
	opts    ServerOptions
	handler Handler
	log     *blog.Logger

	poller   *poller
	acceptor *acceptor
	waker    *Waker

	reloadCh <-chan string

	conns   map[int32]*connection
	nextTok int32
	bufs    *bufferPool

	peers map[int32]*websocket.Conn
}

// NewServer constructs a Server bound to opts.Address, dispatching every
// parsed request to handler, and broadcasting every string received on
// reloadCh to connected WebSocket peers when the waker fires.
func NewServer(opts ServerOptions, handler Handler, reloadCh <-chan string, log *blog.Logger) (*Server, error) {
	if log == nil {
		log = blog.New()
	}

	p, err := newPoller()
	if err != nil {
		return nil, err
	}

	acc, err := newAcceptor(opts.Address, 0)
	if err != nil {
		p.close()
		return nil, err
	}

	if err := p.add(acc.fd, acc.token, interestRead); err != nil {
		p.close()
		acc.close()
		return nil, err
	}

	w, err := newWaker()
	if err != nil {
		p.close()
		acc.close()
		return nil, err
	}

	if err := p.add(w.fd, wakerToken, interestRead); err != nil {
		p.close()
		acc.close()
		w.close()
		return nil, err
	}

	return &Server{
		opts:     opts,
		handler:  handler,
		log:      log,
		poller:   p,
		acceptor: acc,
		waker:    w,
		reloadCh: reloadCh,
		conns:    make(map[int32]*connection),
		nextTok:  1,
		bufs:     newBufferPool(readChunk * 4),
		peers:    make(map[int32]*websocket.Conn),
	}, nil
}

// Waker returns the handle external threads use to interrupt the poll,
// per the server's concurrency interface.
func (s *Server) Waker() *Waker { return s.waker }

// Serve runs the event loop until a terminal error occurs: multiplexer
// failure, or the reload channel closing. It never returns nil.
func (s *Server) Serve() error {
	var events []readyEvent

	for {
		events = events[:0]

		timeoutMs := int(s.opts.PollTimeout / time.Millisecond)
		var err error
		events, err = s.poller.wait(events, timeoutMs)
		if err != nil {
			return fmt.Errorf("breeze: multiplexer wait: %w", err)
		}

		s.reap()

		for _, ev := range events {
			switch ev.token {
			case wakerToken:
				if err := s.handleWaker(); err != nil {
					return err
				}
			case s.acceptor.token:
				s.handleAcceptor()
			default:
				s.handleConnection(ev)
			}
		}
	}
}

// reap evicts connections idle past opts.IdleTimeout, per the per-tick
// sweep step. One time.Now() call stamps the whole sweep, bounding the
// cost of timestamping under load while preserving the timeout semantic.
func (s *Server) reap() {
	now := time.Now()
	for tok, c := range s.conns {
		if now.Sub(c.lastActivity) > s.opts.IdleTimeout {
			s.closeConnection(tok)
		}
	}
}

// handleWaker drains the reload channel and broadcasts every payload to
// every connected WebSocket peer, per the live-reload protocol.
func (s *Server) handleWaker() error {
	if err := s.waker.drain(); err != nil {
		return fmt.Errorf("breeze: waker drain: %w", err)
	}

	for {
		select {
		case path, ok := <-s.reloadCh:
			if !ok {
				return fmt.Errorf("breeze: reload channel closed")
			}
			s.broadcast(path)
		default:
			return nil
		}
	}
}

func (s *Server) broadcast(path string) {
	for tok, peer := range s.peers {
		if err := peer.WriteMessage(websocket.TextMessage, []byte(path)); err != nil {
			peer.Close()
			delete(s.peers, tok)
		}
	}
}

func (s *Server) handleAcceptor() {
	for {
		fd, err := s.acceptor.acceptOne()
		if err != nil {
			if err != unix.EAGAIN {
				s.log.Warn("accept failed", map[string]interface{}{"error": err.Error()})
			}
			return
		}

		if len(s.conns) >= s.opts.MaxConnections {
			unix.Close(fd)
			continue
		}

		tok := s.allocToken()
		if err := s.poller.add(fd, tok, interestRead); err != nil {
			unix.Close(fd)
			continue
		}

		s.conns[tok] = newConnection(fd, tok, s.bufs, s.log)
	}
}

func (s *Server) allocToken() int32 {
	for {
		s.nextTok++
		if s.nextTok == wakerToken || s.nextTok == s.acceptor.token {
			continue
		}
		if _, used := s.conns[s.nextTok]; !used {
			return s.nextTok
		}
	}
}

func (s *Server) handleConnection(ev readyEvent) {
	c, ok := s.conns[ev.token]
	if !ok {
		return
	}

	if ev.hup {
		s.closeConnection(ev.token)
		return
	}

	var sig Signal
	switch {
	case ev.writable && c.state == connWriting:
		sig = c.writeStep()
	case ev.readable && c.state == connReading:
		sig = c.readStep(s.handler)
	default:
		return
	}

	s.applySignal(c, sig)
}

func (s *Server) applySignal(c *connection, sig Signal) {
	switch sig.kind {
	case sigContinue:
		return
	case sigInterest:
		s.poller.modify(c.fd, c.token, sig.in)
	case sigClose:
		s.closeConnection(c.token)
	case sigUpgrade:
		s.upgradeConnection(c, sig.ws)
	}
}

func (s *Server) closeConnection(tok int32) {
	c, ok := s.conns[tok]
	if !ok {
		return
	}
	s.poller.remove(c.fd)
	unix.Close(c.fd)
	c.release()
	delete(s.conns, tok)
}

// upgradeConnection removes c from the HTTP connection set, deregisters
// its raw fd from interest-based polling, and wraps it as a
// *websocket.Conn added to the WebSocket peer set, per the Upgrade
// signal's handling rule.
func (s *Server) upgradeConnection(c *connection, pending *pendingUpgrade) {
	s.poller.remove(c.fd)
	delete(s.conns, c.token)
	c.release()

	file := os.NewFile(uintptr(c.fd), "")
	netConn, err := net.FileConn(file)
	file.Close()
	if err != nil {
		s.log.Error("websocket upgrade: wrap fd", map[string]interface{}{"error": err.Error()})
		unix.Close(c.fd)
		return
	}

	peer := websocket.NewConn(netConn, true, 0, 0, nil, nil)
	s.peers[c.token] = peer
}

// Close tears down the loop's own resources (poller, acceptor, waker).
// It does not close already-accepted connections or WebSocket peers.
func (s *Server) Close() error {
	s.poller.close()
	s.acceptor.close()
	return s.waker.close()
}
