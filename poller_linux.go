package breeze

import "golang.org/x/sys/unix"

// interest is the set of readiness events a registration cares about.
type interest uint8

const (
	interestRead interest = 1 << iota
	interestWrite
)

func (i interest) toEpoll() uint32 {
	var e uint32
	if i&interestRead != 0 {
		e |= unix.EPOLLIN
	}
	if i&interestWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

// readyEvent is one readiness notification from a poll, resolved back to
// the small integer token the registration scheme in the server's
// doc comment describes.
type readyEvent struct {
	token    int32
	readable bool
	writable bool
	hup      bool
}

// poller wraps a Linux epoll instance. It is not safe for concurrent use
// except that registrations may be added/removed from the loop thread
// while Wait blocks on another fd's behalf is never a concern here: the
// loop itself is single-threaded, per the event loop's scheduling model.
type poller struct {
	epfd int
}

func newPoller() (*poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &poller{epfd: fd}, nil
}

func (p *poller) add(fd int, token int32, in interest) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: in.toEpoll(),
		Fd:     token,
	})
}

func (p *poller) modify(fd int, token int32, in interest) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: in.toEpoll(),
		Fd:     token,
	})
}

func (p *poller) remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// wait blocks until at least one registered fd is ready or timeoutMs
// elapses (a negative timeoutMs blocks indefinitely), appending
// readyEvents to out and returning the extended slice.
func (p *poller) wait(out []readyEvent, timeoutMs int) ([]readyEvent, error) {
	var raw [256]unix.EpollEvent

	n, err := unix.EpollWait(p.epfd, raw[:], timeoutMs)
	if err == unix.EINTR {
		return out, nil
	}
	if err != nil {
		return out, err
	}

	for i := 0; i < n; i++ {
		ev := raw[i]
		out = append(out, readyEvent{
			token:    ev.Fd,
			readable: ev.Events&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP) != 0,
			writable: ev.Events&unix.EPOLLOUT != 0,
			hup:      ev.Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0,
		})
	}

	return out, nil
}

func (p *poller) close() error {
	return unix.Close(p.epfd)
}
