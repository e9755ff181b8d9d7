package reqpool

import "sync"

// MinBufferSize is the smallest request/response scratch buffer the arena
// hands out, matching the 256 KiB message buffer floor used throughout this
// client (one size for both call and reply, as the original implementation
// does with a single fixed-size buffer per slot).
const MinBufferSize = 256 << 10

// Arena is a sync.Pool-backed source of reusable byte buffers sized at or
// above MinBufferSize. Unlike bufpool's two tiers (Control and Bulk), the
// arena has a single tier sized to the mount's configured message buffer
// size.
type Arena struct {
	pool    sync.Pool
	bufSize int
}

// NewArena creates an Arena whose buffers are at least MinBufferSize and at
// least large enough to hold size bytes (bench.Dial passes the mount's
// configured message buffer size).
func NewArena(size int) *Arena {
	if size < MinBufferSize {
		size = MinBufferSize
	}
	a := &Arena{bufSize: size}
	a.pool.New = func() any {
		buf := make([]byte, a.bufSize)
		return &buf
	}
	return a
}

// Get returns a buffer of exactly a.bufSize bytes from the pool.
func (a *Arena) Get() []byte {
	bufPtr := a.pool.Get().(*[]byte)
	return (*bufPtr)[:a.bufSize]
}

// Put returns buf to the pool. Buffers not obtained from Get (wrong
// capacity) are silently dropped rather than pooled.
func (a *Arena) Put(buf []byte) {
	if cap(buf) != a.bufSize {
		return
	}
	full := buf[:a.bufSize]
	a.pool.Put(&full)
}
