// Package nfs3 implements the subset of the NFSv3 protocol (RFC 1813) this
// client drives: NULL, GETATTR, and READ. Unlike a server, this package only
// needs to encode call arguments and decode replies.
package nfs3

import (
	"bytes"
	"fmt"
	"io"

	rxdr "github.com/rasky/go-xdr/xdr2"

	"github.com/marmos91/nfsbench/internal/xdr"
)

// Program and version identify the NFS RPC program on the wire.
const (
	Program uint32 = 100003
	Version uint32 = 3
)

// Procedure numbers, per RFC 1813 Section 3.3.
const (
	ProcNull    uint32 = 0
	ProcGetattr uint32 = 1
	ProcRead    uint32 = 6
)

// Status codes, per RFC 1813 Section 2.6 (nfsstat3). Only OK and the handful
// of codes a benchmark client is likely to see are named; anything else is
// rendered numerically by StatusString.
const (
	NFS3OK             uint32 = 0
	NFS3ErrPerm        uint32 = 1
	NFS3ErrNoEnt       uint32 = 2
	NFS3ErrIO          uint32 = 5
	NFS3ErrAccess      uint32 = 13
	NFS3ErrNotDir      uint32 = 20
	NFS3ErrFBig        uint32 = 27
	NFS3ErrNoSpc       uint32 = 28
	NFS3ErrROFS        uint32 = 30
	NFS3ErrNameTooLong uint32 = 63
	NFS3ErrStale       uint32 = 70
	NFS3ErrJukebox     uint32 = 10008
)

var statusNames = map[uint32]string{
	NFS3OK:             "NFS3_OK",
	NFS3ErrPerm:        "NFS3ERR_PERM",
	NFS3ErrNoEnt:       "NFS3ERR_NOENT",
	NFS3ErrIO:          "NFS3ERR_IO",
	NFS3ErrAccess:      "NFS3ERR_ACCES",
	NFS3ErrNotDir:      "NFS3ERR_NOTDIR",
	NFS3ErrFBig:        "NFS3ERR_FBIG",
	NFS3ErrNoSpc:       "NFS3ERR_NOSPC",
	NFS3ErrROFS:        "NFS3ERR_ROFS",
	NFS3ErrNameTooLong: "NFS3ERR_NAMETOOLONG",
	NFS3ErrStale:       "NFS3ERR_STALE",
	NFS3ErrJukebox:     "NFS3ERR_JUKEBOX",
}

// StatusString renders an nfsstat3 value for logging.
func StatusString(status uint32) string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return fmt.Sprintf("NFS3ERR_UNKNOWN(%d)", status)
}

// TimeVal is the NFSv3 nfstime3 structure: seconds and nanoseconds since the
// epoch, each encoded as a uint32.
type TimeVal struct {
	Seconds  uint32
	Nseconds uint32
}

// FileAttr is the NFSv3 fattr3 structure, RFC 1813 Section 2.5.
type FileAttr struct {
	Type   uint32
	Mode   uint32
	Nlink  uint32
	UID    uint32
	GID    uint32
	Size   uint64
	Used   uint64
	Rdev   [2]uint32
	Fsid   uint64
	Fileid uint64
	Atime  TimeVal
	Mtime  TimeVal
	Ctime  TimeVal
}

// DecodeFileAttr decodes an fattr3 structure from r. FileAttr's field order
// matches the wire layout exactly, so reflection-based unmarshaling handles
// the nested nfstime3 fields and the fixed specdata1/specdata2 pair without
// any hand-written field-by-field decode.
func DecodeFileAttr(r io.Reader) (*FileAttr, error) {
	a := &FileAttr{}
	if _, err := rxdr.Unmarshal(r, a); err != nil {
		return nil, fmt.Errorf("decode fattr3: %w", err)
	}
	return a, nil
}

// decodePostOpAttr decodes a post_op_attr union: a bool present flag followed
// by an fattr3 when true.
func decodePostOpAttr(r io.Reader) (*FileAttr, error) {
	present, err := xdr.DecodeBool(r)
	if err != nil {
		return nil, fmt.Errorf("post_op_attr present flag: %w", err)
	}
	if !present {
		return nil, nil
	}
	return DecodeFileAttr(r)
}

// EncodeHandle writes a file handle as XDR opaque data (RFC 1813's
// nfs_fh3 is itself a variable-length opaque, capped at 64 bytes).
func EncodeHandle(buf *bytes.Buffer, handle []byte) error {
	return xdr.WriteXDROpaque(buf, handle)
}

// decodeStatus reads the leading nfsstat3 field common to every NFSv3 reply.
func decodeStatus(r io.Reader) (uint32, error) {
	status, err := xdr.DecodeUint32(r)
	if err != nil {
		return 0, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}
