package breeze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestPollerWaitObservesReadability(t *testing.T) {
	server, client := socketPair(t)

	p, err := newPoller()
	assert.NoError(t, err)
	defer p.close()

	assert.NoError(t, p.add(server, 7, interestRead))

	_, err = unix.Write(client, []byte("hi"))
	assert.NoError(t, err)

	events, err := p.wait(nil, 1000)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, int32(7), events[0].token)
	assert.True(t, events[0].readable)
}

func TestPollerModifyAndRemove(t *testing.T) {
	server, _ := socketPair(t)

	p, err := newPoller()
	assert.NoError(t, err)
	defer p.close()

	assert.NoError(t, p.add(server, 1, interestRead))
	assert.NoError(t, p.modify(server, 1, interestWrite))
	assert.NoError(t, p.remove(server))
}

func TestInterestToEpoll(t *testing.T) {
	assert.Equal(t, uint32(unix.EPOLLIN), interestRead.toEpoll())
	assert.Equal(t, uint32(unix.EPOLLOUT), interestWrite.toEpoll())
	assert.Equal(t, uint32(unix.EPOLLIN|unix.EPOLLOUT), (interestRead | interestWrite).toEpoll())
}
