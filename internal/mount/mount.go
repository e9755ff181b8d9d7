// Package mount implements the client side of the NFS MOUNT protocol
// (RFC 1813 Appendix I), used once at startup to exchange an export path for
// the root file handle the benchmark will drive NFSv3 calls against.
package mount

import (
	"bytes"
	"fmt"

	"github.com/marmos91/nfsbench/internal/xdr"
)

// Program and version identify the MOUNT RPC program on the wire.
const (
	Program uint32 = 100005
	Version uint32 = 3
)

// Procedure numbers, per RFC 1813 Appendix I.
const (
	ProcNull    uint32 = 0
	ProcMnt     uint32 = 1
	ProcDump    uint32 = 2
	ProcUmnt    uint32 = 3
	ProcUmntAll uint32 = 4
	ProcExport  uint32 = 5
)

// Status codes returned by MNT.
const (
	MountOK       uint32 = 0
	MountErrPerm  uint32 = 1
	MountErrNoEnt uint32 = 2
	MountErrIO    uint32 = 5
	MountErrAcces uint32 = 13
	MountErrNotDir uint32 = 20
	MountErrInval uint32 = 22
)

// maxHandleLength is the largest file handle MNT3 may return (RFC 1813
// Section 5.2.1: up to 64 bytes).
const maxHandleLength = 64

// EncodeMntArgs serializes the dirpath argument to MNT.
func EncodeMntArgs(dirPath string) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := xdr.WriteXDRString(buf, dirPath); err != nil {
		return nil, fmt.Errorf("encode dirpath: %w", err)
	}
	return buf.Bytes(), nil
}

// MntResponse is the fhstatus3 union returned by MNT: a status code and, on
// success, the root file handle plus the list of authentication flavors the
// server accepts for it.
type MntResponse struct {
	Status      uint32
	Handle      []byte
	AuthFlavors []uint32
}

// DecodeMntResponse parses an MNT reply payload.
func DecodeMntResponse(payload []byte) (*MntResponse, error) {
	r := bytes.NewReader(payload)

	status, err := xdr.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	resp := &MntResponse{Status: status}

	if status != MountOK {
		return resp, nil
	}

	handle, err := xdr.DecodeOpaque(r)
	if err != nil {
		return nil, fmt.Errorf("decode handle: %w", err)
	}
	if len(handle) > maxHandleLength {
		return nil, fmt.Errorf("handle length %d exceeds maximum %d", len(handle), maxHandleLength)
	}
	resp.Handle = handle

	count, err := xdr.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("decode auth flavor count: %w", err)
	}
	const maxAuthFlavors = 16
	if count > maxAuthFlavors {
		return nil, fmt.Errorf("auth flavor count %d exceeds maximum %d", count, maxAuthFlavors)
	}
	flavors := make([]uint32, count)
	for i := range flavors {
		if flavors[i], err = xdr.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("decode auth flavor %d: %w", i, err)
		}
	}
	resp.AuthFlavors = flavors

	return resp, nil
}

// EncodeUmntArgs serializes the dirpath argument to UMNT.
func EncodeUmntArgs(dirPath string) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := xdr.WriteXDRString(buf, dirPath); err != nil {
		return nil, fmt.Errorf("encode dirpath: %w", err)
	}
	return buf.Bytes(), nil
}
