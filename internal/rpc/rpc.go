// Package rpc implements the client side of Sun RPC (RFC 5531) framing,
// AUTH_UNIX credentials, and call/reply header encoding needed to drive an
// NFSv3 or MOUNT server. It deliberately implements only what a client
// needs: building CALL messages and parsing REPLY messages. There is no
// server-side dispatch here.
package rpc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/marmos91/nfsbench/internal/xdr"
)

// Message types, per RFC 5531 Section 9.
const (
	MsgCall  uint32 = 0
	MsgReply uint32 = 1
)

// Reply status, per RFC 5531 Section 9.
const (
	MsgAccepted uint32 = 0
	MsgDenied   uint32 = 1
)

// Accept status values carried in an accepted reply.
const (
	Success      uint32 = 0
	ProgUnavail  uint32 = 1
	ProgMismatch uint32 = 2
	ProcUnavail  uint32 = 3
	GarbageArgs  uint32 = 4
	SystemErr    uint32 = 5
)

// Reject status values carried in a denied reply.
const (
	RPCMismatch uint32 = 0
	AuthError   uint32 = 1
)

// Authentication flavors, per RFC 5531 Section 8.2.
const (
	AuthNone  uint32 = 0
	AuthUnix  uint32 = 1
	AuthShort uint32 = 2
	AuthDES   uint32 = 3
)

// RPCVersion is the only RPC protocol version this client speaks.
const RPCVersion uint32 = 2

// Sentinel errors returned by DecodeReply so callers can distinguish
// protocol-level rejection from a malformed/short message.
var (
	ErrRPCMismatch  = fmt.Errorf("rpc: server rejected call: RPC version mismatch")
	ErrAuthError    = fmt.Errorf("rpc: server rejected call: authentication error")
	ErrProgUnavail  = fmt.Errorf("rpc: program unavailable")
	ErrProgMismatch = fmt.Errorf("rpc: program version mismatch")
	ErrProcUnavail  = fmt.Errorf("rpc: procedure unavailable")
	ErrGarbageArgs  = fmt.Errorf("rpc: garbage arguments")
	ErrSystemErr    = fmt.Errorf("rpc: remote system error")
	ErrShortReply   = fmt.Errorf("rpc: reply too short")
	ErrUnknownReply = fmt.Errorf("rpc: unrecognized reply status")
)

// UnixAuth is the AUTH_UNIX (AUTH_SYS) credential structure carried on every
// call this client issues, per RFC 5531 Section 8.3.
type UnixAuth struct {
	Stamp       uint32
	MachineName string
	UID         uint32
	GID         uint32
	GIDs        []uint32
}

// Encode writes the credential body (not the flavor/length envelope) in XDR
// form: stamp, machine name, uid, gid, gids.
func (a *UnixAuth) Encode(buf *bytes.Buffer) error {
	if err := xdr.WriteUint32(buf, a.Stamp); err != nil {
		return err
	}
	if err := xdr.WriteXDRString(buf, a.MachineName); err != nil {
		return err
	}
	if err := xdr.WriteUint32(buf, a.UID); err != nil {
		return err
	}
	if err := xdr.WriteUint32(buf, a.GID); err != nil {
		return err
	}
	if err := xdr.WriteUint32(buf, uint32(len(a.GIDs))); err != nil {
		return err
	}
	for _, gid := range a.GIDs {
		if err := xdr.WriteUint32(buf, gid); err != nil {
			return err
		}
	}
	return nil
}

// String renders the credential for debug logging.
func (a *UnixAuth) String() string {
	return fmt.Sprintf("UnixAuth{machine=%s uid=%d gid=%d gids=%v}", a.MachineName, a.UID, a.GID, a.GIDs)
}

// EncodeCall builds a complete RPC CALL message body: header (xid, msg type,
// rpc version, program, version, procedure), AUTH_UNIX credential (or
// AUTH_NONE when cred is nil), an empty verifier, followed by proc-specific
// args already encoded by the caller.
func EncodeCall(xid, program, version, procedure uint32, cred *UnixAuth, args []byte) ([]byte, error) {
	buf := new(bytes.Buffer)

	if err := xdr.WriteUint32(buf, xid); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(buf, MsgCall); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(buf, RPCVersion); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(buf, program); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(buf, version); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(buf, procedure); err != nil {
		return nil, err
	}

	if cred == nil {
		if err := xdr.WriteUint32(buf, AuthNone); err != nil {
			return nil, err
		}
		if err := xdr.WriteUint32(buf, 0); err != nil {
			return nil, err
		}
	} else {
		credBody := new(bytes.Buffer)
		if err := cred.Encode(credBody); err != nil {
			return nil, fmt.Errorf("encode AUTH_UNIX credential: %w", err)
		}
		if err := xdr.WriteUint32(buf, AuthUnix); err != nil {
			return nil, err
		}
		if err := xdr.WriteXDROpaque(buf, credBody.Bytes()); err != nil {
			return nil, err
		}
	}

	// Verifier: AUTH_NONE, zero length.
	if err := xdr.WriteUint32(buf, AuthNone); err != nil {
		return nil, err
	}
	if err := xdr.WriteUint32(buf, 0); err != nil {
		return nil, err
	}

	if len(args) > 0 {
		buf.Write(args)
	}

	return buf.Bytes(), nil
}

// ReplyHeader is the parsed, fixed-size portion of an RPC REPLY message.
type ReplyHeader struct {
	XID         uint32
	ReplyStat   uint32
	RejectStat  uint32
	AcceptStat  uint32
	LowVersion  uint32
	HighVersion uint32
}

// DecodeReply parses an RPC REPLY message and returns the header plus the
// remaining procedure-specific payload. It returns one of the sentinel
// errors above when the server rejected the call or reported a non-SUCCESS
// accept status; in those cases the returned payload is nil.
func DecodeReply(data []byte) (*ReplyHeader, []byte, error) {
	r := bytes.NewReader(data)

	xid, err := xdr.DecodeUint32(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: xid: %v", ErrShortReply, err)
	}
	msgType, err := xdr.DecodeUint32(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: msg type: %v", ErrShortReply, err)
	}
	if msgType != MsgReply {
		return nil, nil, fmt.Errorf("rpc: expected REPLY, got msg_type=%d", msgType)
	}

	hdr := &ReplyHeader{XID: xid}

	replyStat, err := xdr.DecodeUint32(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reply_stat: %v", ErrShortReply, err)
	}
	hdr.ReplyStat = replyStat

	switch replyStat {
	case MsgDenied:
		rejectStat, err := xdr.DecodeUint32(r)
		if err != nil {
			return hdr, nil, fmt.Errorf("%w: reject_stat: %v", ErrShortReply, err)
		}
		hdr.RejectStat = rejectStat
		if rejectStat == RPCMismatch {
			return hdr, nil, ErrRPCMismatch
		}
		return hdr, nil, ErrAuthError

	case MsgAccepted:
		// verifier: flavor + opaque body
		if _, err := xdr.DecodeUint32(r); err != nil {
			return hdr, nil, fmt.Errorf("%w: verf flavor: %v", ErrShortReply, err)
		}
		if _, err := xdr.DecodeOpaque(r); err != nil {
			return hdr, nil, fmt.Errorf("%w: verf body: %v", ErrShortReply, err)
		}

		acceptStat, err := xdr.DecodeUint32(r)
		if err != nil {
			return hdr, nil, fmt.Errorf("%w: accept_stat: %v", ErrShortReply, err)
		}
		hdr.AcceptStat = acceptStat

		switch acceptStat {
		case Success:
			rest, err := io.ReadAll(r)
			if err != nil {
				return hdr, nil, fmt.Errorf("rpc: read payload: %w", err)
			}
			return hdr, rest, nil
		case ProgMismatch:
			low, _ := xdr.DecodeUint32(r)
			high, _ := xdr.DecodeUint32(r)
			hdr.LowVersion, hdr.HighVersion = low, high
			return hdr, nil, ErrProgMismatch
		case ProgUnavail:
			return hdr, nil, ErrProgUnavail
		case ProcUnavail:
			return hdr, nil, ErrProcUnavail
		case GarbageArgs:
			return hdr, nil, ErrGarbageArgs
		case SystemErr:
			return hdr, nil, ErrSystemErr
		default:
			return hdr, nil, fmt.Errorf("%w: accept_stat=%d", ErrUnknownReply, acceptStat)
		}

	default:
		return hdr, nil, fmt.Errorf("%w: reply_stat=%d", ErrUnknownReply, replyStat)
	}
}

// PeekXID extracts the XID (first 4 bytes) from a raw reply message without
// fully decoding it. Used by the receiver to route a reply to its in-flight
// slot before paying for the full decode.
func PeekXID(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, ErrShortReply
	}
	return binary.BigEndian.Uint32(data[:4]), nil
}
