package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/nfsbench/internal/logger"
	"github.com/marmos91/nfsbench/internal/metrics"
	"github.com/marmos91/nfsbench/internal/pacer"
	"github.com/marmos91/nfsbench/internal/rpc"
)

// ErrProtocol marks a decode or correlation failure; the CLI maps it to the
// protocol exit status. The receiver loop does not return it: replies with an
// unreadable or unknown XID are logged and dropped, and decode errors are
// passed to the slot's OnComplete.
var ErrProtocol = errors.New("bench: protocol error")

// runReceiver is the body of one receiver goroutine. recvMu serializes the
// socket read only; decode, XID lookup, stats accounting, and the callback
// all run without holding it, so other receivers can begin their next read
// immediately.
func (m *Mount) runReceiver(clock pacer.Clock) error {
	local := NewLocal(clock)
	var lastLatency time.Duration

	for {
		m.recvMu.Lock()
		conn := m.Conn()
		frame, err := rpc.ReadFrame(conn)
		m.recvMu.Unlock()

		if err != nil {
			if isOrderlyShutdown(err) {
				return nil
			}
			if reconErr := m.reconnect(clock); reconErr != nil {
				return fmt.Errorf("reconnect after recv failure: %w", reconErr)
			}
			continue
		}

		recvStop := clock.Now()

		xid, err := rpc.PeekXID(frame)
		if err != nil {
			logger.Error("dropping reply with unreadable XID", "error", err)
			continue
		}

		slot, ok := m.Table.Take(xid)
		if !ok {
			logger.Warn("reply for unknown or stale XID, dropping", "xid", xid)
			continue
		}

		latency := recvStop.Sub(slot.SentAt)
		lastLatency = latency

		_, payload, decodeErr := rpc.DecodeReply(frame)

		recvLen := uint64(len(frame))
		local.Add(slot.SentLen, recvLen, latency)
		if local.ShouldFlush(recvStop) {
			m.Stats.Flush(local, lastLatency, recvStop)
		}
		metrics.Get().RecordReply(slot.SentLen, recvLen, latency.Seconds())

		if slot.OnComplete != nil {
			slot.OnComplete(payload, decodeErr)
		}
	}
}

// isOrderlyShutdown reports whether err reflects the peer (or this side, via
// halfCloseForEOF) deliberately ending the connection rather than a
// transport fault: clean EOF on a real half-closed TCP socket, or the
// connection having already been closed locally.
func isOrderlyShutdown(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}

// reconnect delegates to the Mount's reconnect supervisor, used by the
// receiver loop when a recv fails.
func (m *Mount) reconnect(clock pacer.Clock) error {
	return reconnectMount(m, clock)
}

// runReceivers launches cfg.MaxReceivers receiver goroutines under an
// errgroup.Group and blocks until all of them return, surfacing the first
// non-nil error. errgroup is the idiomatic Go rendering of the original's
// "job count reaches zero propagates EOF to peer receivers" shutdown
// signal: each receiver's exit is just a goroutine return, not a shared
// channel-close dance.
func (m *Mount) runReceivers(ctx context.Context, clock pacer.Clock) error {
	n := m.cfg.MaxReceivers
	if n <= 0 {
		n = 1
	}

	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return m.runReceiver(clock)
		})
	}
	return g.Wait()
}

// halfCloseForEOF is invoked by the last job to complete: it shuts down the
// write side of the connection so sibling receiver goroutines observe a
// clean EOF on their next read and exit without an error.
func (m *Mount) halfCloseForEOF() {
	type halfCloser interface {
		CloseWrite() error
	}
	conn := m.Conn()
	if hc, ok := conn.(halfCloser); ok {
		_ = hc.CloseWrite()
		return
	}
	_ = conn.Close()
}
