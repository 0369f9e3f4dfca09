package breeze

import "golang.org/x/sys/unix"

// Waker is a handle that may be signaled from any thread to interrupt the
// event loop's multiplexer poll. It wraps a Linux eventfd: Wake writes a
// single counter increment, which both unblocks an in-progress
// EpollWait and leaves the fd readable so the loop notices it even if
// the write race loses to a poll that hadn't started yet.
type Waker struct {
	fd int
}

func newWaker() (*Waker, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Waker{fd: fd}, nil
}

// Wake interrupts the loop's poll. Safe to call from any goroutine,
// concurrently, any number of times.
func (w *Waker) Wake() error {
	var one [8]byte
	one[7] = 1
	_, err := unix.Write(w.fd, one[:])
	if err == unix.EAGAIN {
		// The counter is already non-zero (someone else's wake is
		// pending); the loop will still observe it.
		return nil
	}
	return err
}

// drain clears the eventfd's counter after the loop has observed it
// readable, per the usual eventfd read-to-rearm protocol.
func (w *Waker) drain() error {
	var buf [8]byte
	_, err := unix.Read(w.fd, buf[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (w *Waker) close() error {
	return unix.Close(w.fd)
}
