package breeze

import "sync"

// bufferPool recycles the byte slices used for per-connection read/write
// buffering via sync.Pool, narrowed to the one thing this event loop
// actually allocates per connection.
type bufferPool struct {
	pool *sync.Pool
}

func newBufferPool(size int) *bufferPool {
	return &bufferPool{
		pool: &sync.Pool{
			New: func() interface{} {
				b := make([]byte, 0, size)
				return &b
			},
		},
	}
}

func (p *bufferPool) get() []byte {
	b := p.pool.Get().(*[]byte)
	return (*b)[:0]
}

func (p *bufferPool) put(b []byte) {
	p.pool.Put(&b)
}
