package breeze

import (
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// acceptor owns the raw listening socket the event loop polls for new
// connections. TCP keep-alive is set on every accepted socket (costs
// nothing for local dev connections); see DESIGN.md for what this
// deliberately leaves out.
type acceptor struct {
	fd    int
	token int32
}

// newAcceptor binds address (host:port) and returns a non-blocking
// listening socket ready to be registered with a poller.
func newAcceptor(address string, token int32) (*acceptor, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, &net.AddrError{Err: "no such host", Addr: host}
	}

	ip4 := ips[0].To4()
	family := unix.AF_INET
	if ip4 == nil {
		family = unix.AF_INET6
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, err
	}

	var sa unix.Sockaddr
	if family == unix.AF_INET {
		var addr [4]byte
		copy(addr[:], ip4)
		sa = &unix.SockaddrInet4{Port: port, Addr: addr}
	} else {
		var addr [16]byte
		copy(addr[:], ips[0].To16())
		sa = &unix.SockaddrInet6{Port: port, Addr: addr}
	}

	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, err
	}

	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &acceptor{fd: fd, token: token}, nil
}

// acceptOne accepts a single pending connection, already non-blocking and
// with TCP keep-alive enabled. Returns (-1, unix.EAGAIN) when the accept
// queue is drained, per the per-tick "accept in a loop until WouldBlock"
// rule.
func (a *acceptor) acceptOne() (int, error) {
	fd, _, err := unix.Accept4(a.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, err
	}

	unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)

	return fd, nil
}

func (a *acceptor) close() error {
	return unix.Close(a.fd)
}
