// Package portmap implements the client side of the RPC portmapper protocol
// (RFC 1833, version 2) needed to resolve the TCP port an NFS or MOUNT
// service is listening on when the caller only knows a host and program
// number, not a fixed port.
package portmap

import (
	"bytes"
	"fmt"
	"net"
	"time"

	"github.com/marmos91/nfsbench/internal/rpc"
	"github.com/marmos91/nfsbench/internal/xdr"
)

// Program and version identify the portmapper RPC program on the wire.
const (
	Program uint32 = 100000
	Version uint32 = 2
)

// Procedure numbers, per RFC 1833 Section 3.
const (
	ProcNull    uint32 = 0
	ProcSet     uint32 = 1
	ProcUnset   uint32 = 2
	ProcGetPort uint32 = 3
	ProcDump    uint32 = 4
)

// Well-known transport protocol numbers used in the mapping struct.
const (
	ProtoTCP uint32 = 6
	ProtoUDP uint32 = 17
)

// DefaultPort is the well-known portmapper port.
const DefaultPort = 111

// GetPort dials host:111 (or the override in portmapperPort, if nonzero),
// asks the portmapper for the port registered for (program, version, proto),
// and returns it. A zero return means no mapping exists.
func GetPort(host string, portmapperPort int, program, version, proto uint32, timeout time.Duration) (uint16, error) {
	if portmapperPort == 0 {
		portmapperPort = DefaultPort
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", portmapperPort))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return 0, fmt.Errorf("portmap: dial %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return 0, fmt.Errorf("portmap: set deadline: %w", err)
	}

	args := new(bytes.Buffer)
	if err := xdr.WriteUint32(args, program); err != nil {
		return 0, err
	}
	if err := xdr.WriteUint32(args, version); err != nil {
		return 0, err
	}
	if err := xdr.WriteUint32(args, proto); err != nil {
		return 0, err
	}
	if err := xdr.WriteUint32(args, 0); err != nil { // port field unused in request
		return 0, err
	}

	call, err := rpc.EncodeCall(1, Program, Version, ProcGetPort, nil, args.Bytes())
	if err != nil {
		return 0, fmt.Errorf("portmap: build GETPORT call: %w", err)
	}
	if err := rpc.WriteFrame(conn, call); err != nil {
		return 0, fmt.Errorf("portmap: send GETPORT call: %w", err)
	}

	reply, err := rpc.ReadFrame(conn)
	if err != nil {
		return 0, fmt.Errorf("portmap: read GETPORT reply: %w", err)
	}

	_, payload, err := rpc.DecodeReply(reply)
	if err != nil {
		return 0, fmt.Errorf("portmap: GETPORT rejected: %w", err)
	}

	port, err := xdr.DecodeUint32(bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("portmap: decode port: %w", err)
	}

	return uint16(port), nil
}
