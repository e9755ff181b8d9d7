package bench

import (
	"fmt"
	"time"

	"github.com/marmos91/nfsbench/internal/rpc"
)

// Call issues one blocking RPC request on the mount's live connection and
// waits for its reply, bypassing the in-flight table and receiver pool
// entirely. It exists for interactive, one-request-at-a-time callers (the
// shell REPL) rather than the concurrent benchmark pipeline, so it must not
// be used concurrently with Run on the same Mount.
func (m *Mount) Call(proc uint32, args []byte, timeout time.Duration) ([]byte, error) {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	m.recvMu.Lock()
	defer m.recvMu.Unlock()

	conn := m.Conn()
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return nil, fmt.Errorf("set call deadline: %w", err)
		}
		defer func() { _ = conn.SetDeadline(time.Time{}) }()
	}

	xid := m.Table.AllocXID()
	call, err := buildCall(m, xid, proc, args)
	if err != nil {
		return nil, fmt.Errorf("build call: %w", err)
	}

	if err := rpc.WriteFrame(conn, call); err != nil {
		return nil, fmt.Errorf("write call: %w", err)
	}

	frame, err := rpc.ReadFrame(conn)
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}

	replyXID, err := rpc.PeekXID(frame)
	if err != nil {
		return nil, fmt.Errorf("peek reply xid: %w", err)
	}
	if replyXID != xid {
		return nil, fmt.Errorf("reply xid %d does not match call xid %d", replyXID, xid)
	}

	_, payload, err := rpc.DecodeReply(frame)
	if err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return payload, nil
}
