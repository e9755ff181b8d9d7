// Package reqpool implements the in-flight request table and reusable
// request/response buffer arena that sit between the sender and receiver
// goroutines of a Mount: an XID is allocated and inserted by the sender
// under its own serialization, and later looked up and cleared by whichever
// receiver goroutine's turn it is to read that reply off the wire.
package reqpool

import (
	"fmt"
	"sync/atomic"
	"time"
)

// xidStride is added to the XID counter on each allocation rather than 1, so
// consecutive in-flight requests land in table slots that are spread across
// cache lines instead of adjacent ones, reducing false sharing between
// receiver goroutines that touch neighboring slots concurrently. 11 is
// coprime with any power-of-two table size, so every slot is still visited
// before the counter repeats.
const xidStride = 11

// Slot holds everything needed to complete a single in-flight request: the
// XID it was sent under, when it was sent (for latency accounting), and the
// callback the receiver invokes with the decoded reply (or an error).
type Slot struct {
	XID    uint32
	SentAt time.Time
	// SentLen is the byte length of the framed call this slot was sent
	// under, stamped by the sender so receivers can credit bytes_sent
	// without re-deriving it from the (unrelated) reply frame.
	SentLen uint64
	// OnComplete is invoked exactly once by whichever receiver goroutine
	// reads this slot's reply. payload is the RPC reply body past the
	// accepted-success header; err is non-nil for protocol/transport
	// failures attributed to this request.
	OnComplete func(payload []byte, err error)
	// Requeue re-sends the request this slot was tracking under a fresh
	// XID. The reconnect supervisor calls it for every slot still
	// outstanding when a connection is severed, instead of concluding the
	// job outright.
	Requeue func() error
}

// ErrTableFull is returned by Insert when every slot at an XID's table index
// is already occupied — the in-flight window is saturated and the sender
// must back off before issuing more requests.
var ErrTableFull = fmt.Errorf("reqpool: in-flight table slot occupied")

// Table is a fixed-size, power-of-two-sized map from XID to in-flight Slot.
// A request's table index is xid & mask, matching the spec's "xid mod
// REQ_MAX" placement with REQ_MAX constrained to a power of two so the mod
// is a mask.
type Table struct {
	slots   []atomic.Pointer[Slot]
	mask    uint32
	nextXID atomic.Uint32
}

// NewTable creates a Table with the given slot count, which must be a power
// of two. seed is the XID counter's starting value and is not itself handed
// out: the n-th AllocXID returns seed + n*xidStride (skipping zero).
func NewTable(size int, seed uint32) (*Table, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("reqpool: table size %d is not a positive power of two", size)
	}
	t := &Table{
		slots: make([]atomic.Pointer[Slot], size),
		mask:  uint32(size - 1),
	}
	t.nextXID.Store(seed)
	return t, nil
}

// AllocXID returns the next XID in the stride-11 sequence. XID 0 is skipped
// since some servers treat it as a sentinel.
func (t *Table) AllocXID() uint32 {
	for {
		xid := t.nextXID.Add(xidStride)
		if xid != 0 {
			return xid
		}
	}
}

// Insert places slot at its XID's table index. It fails with ErrTableFull if
// that index is already occupied by another in-flight request.
func (t *Table) Insert(slot *Slot) error {
	idx := slot.XID & t.mask
	if !t.slots[idx].CompareAndSwap(nil, slot) {
		return ErrTableFull
	}
	return nil
}

// Take looks up and clears the slot for xid. It returns (nil, false) if no
// slot is in flight under that XID, or if the occupying slot's XID doesn't
// match (a stale/duplicate reply).
func (t *Table) Take(xid uint32) (*Slot, bool) {
	idx := xid & t.mask
	slot := t.slots[idx].Load()
	if slot == nil || slot.XID != xid {
		return nil, false
	}
	if !t.slots[idx].CompareAndSwap(slot, nil) {
		return nil, false
	}
	return slot, true
}

// TakeAt unconditionally clears whatever slot occupies table index idx and
// returns it along with its XID. Used by the reconnect supervisor to walk
// every in-flight slot regardless of XID, since a severed connection means
// no more replies will ever arrive to claim them normally.
func (t *Table) TakeAt(idx int) (*Slot, uint32, bool) {
	slot := t.slots[idx].Swap(nil)
	if slot == nil {
		return nil, 0, false
	}
	return slot, slot.XID, true
}

// Len reports the current number of occupied slots. O(size); intended for
// diagnostics and tests, not the hot path.
func (t *Table) Len() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].Load() != nil {
			n++
		}
	}
	return n
}

// Size returns the table's fixed slot count.
func (t *Table) Size() int {
	return len(t.slots)
}
