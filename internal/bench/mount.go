// Package bench implements the concurrent request pipeline this program
// exists to run: the per-mount request pool, the XID-indexed in-flight
// table, the sender, the receiver pool, the stats accumulator, the
// fixed-cadence sampler, and the reconnect supervisor.
package bench

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/nfsbench/internal/bufpool"
	"github.com/marmos91/nfsbench/internal/logger"
	"github.com/marmos91/nfsbench/internal/metrics"
	"github.com/marmos91/nfsbench/internal/mount"
	"github.com/marmos91/nfsbench/internal/nfs3"
	"github.com/marmos91/nfsbench/internal/portmap"
	"github.com/marmos91/nfsbench/internal/reqpool"
	"github.com/marmos91/nfsbench/internal/rpc"
)

// Config carries everything needed to perform the mount handshake and size
// the resulting Mount's resources.
type Config struct {
	Host string
	Path string
	Port int // explicit NFS port; 0 means resolve via portmap

	MaxJobs      int
	MaxReceivers int
	ReqMax       int // in-flight table size, must be a power of two
	BufferSize   int // per-slot message buffer size

	DialTimeout time.Duration
}

// Mount is the root aggregate for one NFS session: the live connection, the
// credentials and root file handle it was established with, and the shared
// resources (request arena, in-flight table, stats) the sender, receivers,
// and sampler all operate on.
type Mount struct {
	cfg       Config
	SessionID uuid.UUID

	Cred       *rpc.UnixAuth
	RootHandle []byte
	RootAttr   *nfs3.FileAttr

	Arena *reqpool.Arena
	Table *reqpool.Table
	Stats *Stats

	ActiveJobs atomic.Int64

	connMu sync.RWMutex // guards conn and reconnect transitions
	conn   net.Conn

	sendMu sync.Mutex
	recvMu sync.Mutex

	reconnects atomic.Uint64
}

// Dial performs the full startup handshake: resolve the NFS port (via
// portmap unless cfg.Port is given), perform the MOUNT protocol MNT call to
// obtain the root file handle, issue one GETATTR to populate root
// attributes, then connect to the NFS service. The returned Mount is ready
// for Send/receivers/sampler.
func Dial(ctx context.Context, cfg Config) (*Mount, error) {
	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = 1
	}
	if cfg.MaxReceivers <= 0 {
		cfg.MaxReceivers = 1
	}
	if cfg.ReqMax <= 0 {
		cfg.ReqMax = 1024
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	bufpool.Configure(cfg.BufferSize)

	port := cfg.Port
	if port == 0 {
		resolved, err := portmap.GetPort(cfg.Host, 0, nfs3.Program, nfs3.Version, portmap.ProtoTCP, cfg.DialTimeout)
		if err != nil {
			return nil, fmt.Errorf("resolve NFS port via portmap: %w", err)
		}
		if resolved == 0 {
			return nil, fmt.Errorf("portmap: no NFS mapping registered on %s", cfg.Host)
		}
		port = int(resolved)
	}
	cfg.Port = port

	handle, attr, err := performMountHandshake(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("mount handshake: %w", err)
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", addr, cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial NFS service at %s: %w", addr, err)
	}

	table, err := reqpool.NewTable(cfg.ReqMax, uint32(time.Now().UnixNano()))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create in-flight table: %w", err)
	}

	m := &Mount{
		cfg:        cfg,
		SessionID:  uuid.New(),
		Cred:       defaultCredentials(),
		RootHandle: handle,
		RootAttr:   attr,
		Arena:      reqpool.NewArena(cfg.BufferSize),
		Table:      table,
		Stats:      NewStats(),
		conn:       conn,
	}

	logger.Info("mounted NFS export",
		"session", m.SessionID, "host", cfg.Host, "path", cfg.Path, "port", port,
		"root_size", attrSize(attr))

	return m, nil
}

func attrSize(attr *nfs3.FileAttr) uint64 {
	if attr == nil {
		return 0
	}
	return attr.Size
}

// performMountHandshake resolves MOUNT_PROGRAM/MOUNT_V3 via portmap on a
// throwaway connection, performs the MNT call, and returns the root file
// handle. The ephemeral socket is closed before this returns, per spec.
func performMountHandshake(ctx context.Context, cfg Config) ([]byte, *nfs3.FileAttr, error) {
	mountPort, err := portmap.GetPort(cfg.Host, 0, mount.Program, mount.Version, portmap.ProtoTCP, cfg.DialTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve MOUNT port via portmap: %w", err)
	}
	if mountPort == 0 {
		return nil, nil, fmt.Errorf("portmap: no MOUNT mapping registered on %s", cfg.Host)
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", mountPort))
	conn, err := net.DialTimeout("tcp", addr, cfg.DialTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("dial MOUNT service at %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()
	if err := conn.SetDeadline(time.Now().Add(cfg.DialTimeout)); err != nil {
		return nil, nil, err
	}

	args, err := mount.EncodeMntArgs(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("encode MNT args: %w", err)
	}

	call, err := rpc.EncodeCall(1, mount.Program, mount.Version, mount.ProcMnt, defaultCredentials(), args)
	if err != nil {
		return nil, nil, fmt.Errorf("build MNT call: %w", err)
	}
	if err := rpc.WriteFrame(conn, call); err != nil {
		return nil, nil, fmt.Errorf("send MNT call: %w", err)
	}

	reply, err := rpc.ReadFrame(conn)
	if err != nil {
		return nil, nil, fmt.Errorf("read MNT reply: %w", err)
	}
	_, payload, err := rpc.DecodeReply(reply)
	if err != nil {
		return nil, nil, fmt.Errorf("MNT call rejected: %w", err)
	}

	mntResp, err := mount.DecodeMntResponse(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("decode MNT response: %w", err)
	}
	if mntResp.Status != mount.MountOK {
		return nil, nil, fmt.Errorf("MNT rejected export %q: status %d", cfg.Path, mntResp.Status)
	}

	attr, err := fetchRootAttr(cfg, mntResp.Handle)
	if err != nil {
		logger.Warn("GETATTR on root handle failed during handshake", "error", err)
		attr = nil
	}

	return mntResp.Handle, attr, nil
}

// fetchRootAttr issues a single GETATTR against the NFS service to populate
// root attributes (notably Size, needed by the read workload) before the
// sampler loop starts.
func fetchRootAttr(cfg Config, handle []byte) (*nfs3.FileAttr, error) {
	port := cfg.Port
	if port == 0 {
		resolved, err := portmap.GetPort(cfg.Host, 0, nfs3.Program, nfs3.Version, portmap.ProtoTCP, cfg.DialTimeout)
		if err != nil {
			return nil, err
		}
		port = int(resolved)
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", addr, cfg.DialTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()
	if err := conn.SetDeadline(time.Now().Add(cfg.DialTimeout)); err != nil {
		return nil, err
	}

	req := &nfs3.GetattrRequest{Handle: handle}
	args, err := req.Encode()
	if err != nil {
		return nil, err
	}
	call, err := rpc.EncodeCall(1, nfs3.Program, nfs3.Version, nfs3.ProcGetattr, defaultCredentials(), args)
	if err != nil {
		return nil, err
	}
	if err := rpc.WriteFrame(conn, call); err != nil {
		return nil, err
	}
	reply, err := rpc.ReadFrame(conn)
	if err != nil {
		return nil, err
	}
	_, payload, err := rpc.DecodeReply(reply)
	if err != nil {
		return nil, err
	}
	resp, err := nfs3.DecodeGetattrResponse(payload)
	if err != nil {
		return nil, err
	}
	if resp.Status != nfs3.NFS3OK {
		return nil, fmt.Errorf("GETATTR on root handle: %s", nfs3.StatusString(resp.Status))
	}
	return resp.Attr, nil
}

func defaultCredentials() *rpc.UnixAuth {
	host, _ := osHostname()
	return &rpc.UnixAuth{
		Stamp:       uint32(time.Now().Unix()),
		MachineName: host,
		UID:         uint32(osUID()),
		GID:         uint32(osGID()),
		GIDs:        nil,
	}
}

// Conn returns the live connection under a read lock. The lock is released
// before Conn returns, so a concurrent reconnect may swap the connection
// after the caller has obtained it.
func (m *Mount) Conn() net.Conn {
	m.connMu.RLock()
	defer m.connMu.RUnlock()
	return m.conn
}

// swapConn installs a freshly dialed connection, used by the reconnect
// supervisor after a transport failure.
func (m *Mount) swapConn(conn net.Conn) {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	_ = m.conn.Close()
	m.conn = conn
	m.reconnects.Add(1)
}

// Reconnects reports how many times the reconnect supervisor has
// successfully re-established the connection during this run.
func (m *Mount) Reconnects() uint64 {
	return m.reconnects.Load()
}

// JobDone decrements the active-job counter. When it reaches zero this was
// the last outstanding job: half-close the socket so sibling receivers
// observe EOF and exit, and report true so the caller (a receiver) knows it
// triggered shutdown.
func (m *Mount) JobDone() bool {
	remaining := m.ActiveJobs.Add(-1)
	metrics.Get().SetActiveJobs(remaining)
	if remaining == 0 {
		m.halfCloseForEOF()
		return true
	}
	return false
}

// Close tears down the connection. Safe to call once all receivers and the
// sampler have exited.
func (m *Mount) Close() error {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}
