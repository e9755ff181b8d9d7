package portmap

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakePortmapper accepts one connection, reads one framed GETPORT call, and
// replies with a fixed port number. It mirrors the byte-level shape a real
// portmapper would send.
func fakePortmapper(t *testing.T, port uint32) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		var fragHdr [4]byte
		if _, err := io.ReadFull(conn, fragHdr[:]); err != nil {
			return
		}
		fragLen := binary.BigEndian.Uint32(fragHdr[:]) & 0x7FFFFFFF
		call := make([]byte, fragLen)
		if _, err := io.ReadFull(conn, call); err != nil {
			return
		}

		xid := binary.BigEndian.Uint32(call[0:4])

		reply := make([]byte, 28)
		binary.BigEndian.PutUint32(reply[0:4], xid)
		binary.BigEndian.PutUint32(reply[4:8], 1) // REPLY
		binary.BigEndian.PutUint32(reply[8:12], 0) // MSG_ACCEPTED
		binary.BigEndian.PutUint32(reply[12:16], 0) // verf flavor
		binary.BigEndian.PutUint32(reply[16:20], 0) // verf len
		binary.BigEndian.PutUint32(reply[20:24], 0) // accept_stat = SUCCESS
		binary.BigEndian.PutUint32(reply[24:28], port)

		var outHdr [4]byte
		binary.BigEndian.PutUint32(outHdr[:], uint32(len(reply))|0x80000000)
		_, _ = conn.Write(outHdr[:])
		_, _ = conn.Write(reply)
	}()

	return ln
}

func TestGetPort(t *testing.T) {
	ln := fakePortmapper(t, 2049)
	defer func() { _ = ln.Close() }()

	addr := ln.Addr().(*net.TCPAddr)
	port, err := GetPort("127.0.0.1", addr.Port, 100003, 3, ProtoTCP, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, uint16(2049), port)
}

func TestGetPortConnectRefused(t *testing.T) {
	_, err := GetPort("127.0.0.1", 1, 100003, 3, ProtoTCP, 100*time.Millisecond)
	require.Error(t, err)
}
