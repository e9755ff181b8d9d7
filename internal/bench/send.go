package bench

import (
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/marmos91/nfsbench/internal/nfs3"
	"github.com/marmos91/nfsbench/internal/reqpool"
	"github.com/marmos91/nfsbench/internal/rpc"
)

// buildCall frames one NFSv3 RPC call under the mount's credentials. xid was
// already allocated by the caller (under sendMu), matching the spec's
// "assign xid, then write it into the buffer" ordering.
func buildCall(m *Mount, xid, proc uint32, args []byte) ([]byte, error) {
	return rpc.EncodeCall(xid, nfs3.Program, nfs3.Version, proc, m.Cred, args)
}

// slotFor allocates a new in-flight slot for xid. Returning *Slot (rather
// than Slot) lets callers pass it straight to Table.Insert without an
// address-of-a-call-result, which Go disallows.
func slotFor(xid uint32, sentAt time.Time, sentLen int, onComplete func([]byte, error), requeue func() error) *reqpool.Slot {
	return &reqpool.Slot{
		XID:        xid,
		SentAt:     sentAt,
		SentLen:    uint64(sentLen),
		OnComplete: onComplete,
		Requeue:    requeue,
	}
}

// writeFrame writes the framed call to the mount's live connection. Callers
// hold sendMu, matching the spec's single-sender-mutex serialization of
// socket writes.
func writeFrame(m *Mount, call []byte) error {
	return rpc.WriteFrame(m.Conn(), call)
}

// sharedOffset is the read workload's atomically-advanced file offset,
// wrapped modulo the file size so a long-running read job cycles through
// the whole file.
type sharedOffset struct {
	size    uint64
	current atomic.Uint64
}

func newSharedOffset(size uint64) *sharedOffset {
	o := &sharedOffset{size: size}
	// Start at a randomized offset so multiple concurrent read jobs don't
	// all walk the file in lockstep.
	o.current.Store(uint64(rand.Int63n(int64(size))))
	return o
}

// next returns the current offset and advances it by blockSize, wrapping
// modulo the file size.
func (o *sharedOffset) next(blockSize uint64) uint64 {
	for {
		cur := o.current.Load()
		next := (cur + blockSize) % o.size
		if o.current.CompareAndSwap(cur, next) {
			return cur
		}
	}
}
