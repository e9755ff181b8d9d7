package bench

import (
	"fmt"
	"net"
	"time"

	"github.com/marmos91/nfsbench/internal/logger"
	"github.com/marmos91/nfsbench/internal/metrics"
	"github.com/marmos91/nfsbench/internal/pacer"
)

// reconnectBackoff is the linear backoff schedule applied between attempts:
// 0, 3, 6, 9, 12 seconds, five attempts total before the run aborts.
var reconnectBackoff = []time.Duration{
	0,
	3 * time.Second,
	6 * time.Second,
	9 * time.Second,
	12 * time.Second,
}

// ErrReconnectExhausted is returned once every attempt in reconnectBackoff
// has failed; callers treat this as fatal.
var ErrReconnectExhausted = fmt.Errorf("bench: reconnect exhausted all attempts")

// reconnectMount re-dials the server after a transport failure, following
// the linear backoff schedule, then re-sends every request still
// outstanding in the in-flight table against the new connection: each
// slot's elapsed wait is credited to cumulative latency before its Requeue
// closure re-arms it under a fresh XID.
func reconnectMount(m *Mount, clock pacer.Clock) error {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))

	var lastErr error
	for attempt, wait := range reconnectBackoff {
		if wait > 0 {
			time.Sleep(wait)
		}
		logger.Warn("attempting reconnect", "attempt", attempt+1, "of", len(reconnectBackoff))

		conn, err := net.DialTimeout("tcp", addr, m.cfg.DialTimeout)
		if err != nil {
			lastErr = err
			logger.Warn("reconnect attempt failed", "attempt", attempt+1, "error", err)
			continue
		}

		m.swapConn(conn)
		metrics.Get().RecordReconnect()
		m.requeueInFlight(clock)
		logger.Info("reconnected", "attempt", attempt+1)
		return nil
	}

	return fmt.Errorf("%w: %v", ErrReconnectExhausted, lastErr)
}

// requeueInFlight walks the in-flight table crediting every still-
// outstanding slot's elapsed wait to cumulative latency, then re-sends it
// via its Requeue closure so the job keeps running against the new
// connection. Only a slot with no Requeue, or one whose re-send itself
// fails, concludes its job. If the original reply eventually arrives from
// the old (now-severed) connection it is simply discarded, since the server
// invalidates outstanding state on disconnect in any case.
func (m *Mount) requeueInFlight(clock pacer.Clock) {
	now := clock.Now()
	local := NewLocal(clock)

	for i := 0; i < m.Table.Size(); i++ {
		slot, xid, ok := m.Table.TakeAt(i)
		if !ok {
			continue
		}
		elapsed := now.Sub(slot.SentAt)
		local.Add(0, 0, elapsed)
		m.Stats.Flush(local, elapsed, now)

		if slot.Requeue == nil {
			if slot.OnComplete != nil {
				slot.OnComplete(nil, fmt.Errorf("bench: connection reset, request %d had no re-send path", xid))
			}
			continue
		}

		if err := slot.Requeue(); err != nil {
			logger.Error("re-send after reconnect failed, concluding job", "xid", xid, "error", err)
			if slot.OnComplete != nil {
				slot.OnComplete(nil, err)
			}
		}
	}
}
