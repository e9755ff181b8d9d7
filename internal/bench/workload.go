package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/nfsbench/internal/logger"
	"github.com/marmos91/nfsbench/internal/nfs3"
	"github.com/marmos91/nfsbench/internal/pacer"
)

// Workload is the capability set a driven operation must provide: how to
// build the first request for a job, and how to react to each reply. This
// stands in for the function-pointer pair (start_fn/callback_fn) of a
// traditional C harness as a small per-operation interface instead of a
// struct of function pointers.
type Workload interface {
	// Start issues the first request for job, arming its own OnComplete
	// closure so subsequent replies re-enter this workload without the
	// driver's involvement. deadline is absolute wall-clock time; once a
	// reply arrives at or after it, the job concludes.
	Start(ctx context.Context, m *Mount, job int, deadline time.Time, clock pacer.Clock) error
}

// send is the shared plumbing every workload's Start and re-arm path uses:
// allocate an XID, register the slot, frame the call, and write it. requeue
// is stashed on the slot so the reconnect supervisor can re-send this same
// logical request (via a fresh XID) if the connection is severed before a
// reply arrives.
func send(m *Mount, proc uint32, args []byte, sentAt time.Time, onComplete func([]byte, error), requeue func() error) error {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	xid := m.Table.AllocXID()
	call, err := buildCall(m, xid, proc, args)
	if err != nil {
		return fmt.Errorf("build call for xid %d: %w", xid, err)
	}

	if err := m.Table.Insert(slotFor(xid, sentAt, len(call), onComplete, requeue)); err != nil {
		return fmt.Errorf("register xid %d: %w", xid, err)
	}

	if err := writeFrame(m, call); err != nil {
		m.Table.Take(xid)
		return fmt.Errorf("send xid %d: %w", xid, err)
	}
	return nil
}

// NullWorkload repeatedly issues NFSPROC3_NULL calls until the job's
// deadline passes.
type NullWorkload struct{}

func (NullWorkload) Start(ctx context.Context, m *Mount, job int, deadline time.Time, clock pacer.Clock) error {
	var arm func() error
	arm = func() error {
		sentAt := clock.Now()
		return send(m, nfs3.ProcNull, nfs3.EncodeNullArgs(), sentAt, func(payload []byte, err error) {
			onReply(m, job, deadline, clock, err, arm)
		}, arm)
	}
	return arm()
}

// GetattrWorkload repeatedly issues GETATTR against the mount's root handle.
type GetattrWorkload struct{}

func (GetattrWorkload) Start(ctx context.Context, m *Mount, job int, deadline time.Time, clock pacer.Clock) error {
	var arm func() error
	arm = func() error {
		req := &nfs3.GetattrRequest{Handle: m.RootHandle}
		args, err := req.Encode()
		if err != nil {
			return err
		}
		sentAt := clock.Now()
		return send(m, nfs3.ProcGetattr, args, sentAt, func(payload []byte, err error) {
			onReply(m, job, deadline, clock, err, arm)
		}, arm)
	}
	return arm()
}

// ReadWorkload repeatedly issues READ against the mount's root handle at a
// shared, atomically-advanced offset wrapped modulo the file size. It fails
// fast if the file is smaller than one read block.
type ReadWorkload struct {
	BlockSize uint32
	offset    *sharedOffset
}

// NewReadWorkload validates the root file's size against blockSize and
// returns a ready-to-run ReadWorkload, or an error if the file is too small.
func NewReadWorkload(m *Mount, blockSize uint32) (*ReadWorkload, error) {
	if m.RootAttr == nil || m.RootAttr.Size < uint64(blockSize) {
		return nil, fmt.Errorf("bench: root file smaller than read block size %d", blockSize)
	}
	return &ReadWorkload{
		BlockSize: blockSize,
		offset:    newSharedOffset(m.RootAttr.Size),
	}, nil
}

func (w *ReadWorkload) Start(ctx context.Context, m *Mount, job int, deadline time.Time, clock pacer.Clock) error {
	var arm func() error
	arm = func() error {
		off := w.offset.next(uint64(w.BlockSize))
		req := &nfs3.ReadRequest{Handle: m.RootHandle, Offset: off, Count: w.BlockSize}
		args, err := req.Encode()
		if err != nil {
			return err
		}
		sentAt := clock.Now()
		return send(m, nfs3.ProcRead, args, sentAt, func(payload []byte, err error) {
			onReply(m, job, deadline, clock, err, arm)
		}, arm)
	}
	return arm()
}

// onReply is the shared re-arm/conclude decision every workload's callback
// delegates to: past the job's deadline, or on a protocol error, the job
// concludes and JobDone fires; otherwise re-arm fires the next request.
func onReply(m *Mount, job int, deadline time.Time, clock pacer.Clock, err error, arm func() error) {
	now := clock.Now()
	if err != nil {
		logger.Error("workload reply failed, concluding job", "job", job, "error", err)
		m.JobDone()
		return
	}
	if !now.Before(deadline) {
		m.JobDone()
		return
	}
	if rearmErr := arm(); rearmErr != nil {
		logger.Error("workload re-arm failed, concluding job", "job", job, "error", rearmErr)
		m.JobDone()
	}
}
