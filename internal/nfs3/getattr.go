package nfs3

import (
	"bytes"
	"fmt"
)

// GetattrRequest is the argument to GETATTR (RFC 1813 Section 3.3.1): a
// single file handle.
type GetattrRequest struct {
	Handle []byte
}

// Encode serializes the GETATTR arguments to XDR.
func (req *GetattrRequest) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := EncodeHandle(buf, req.Handle); err != nil {
		return nil, fmt.Errorf("encode handle: %w", err)
	}
	return buf.Bytes(), nil
}

// GetattrResponse is the GETATTR3res union: status, and on success the
// object's attributes.
type GetattrResponse struct {
	Status uint32
	Attr   *FileAttr
}

// DecodeGetattrResponse parses a GETATTR reply payload.
func DecodeGetattrResponse(payload []byte) (*GetattrResponse, error) {
	r := bytes.NewReader(payload)

	status, err := decodeStatus(r)
	if err != nil {
		return nil, err
	}
	resp := &GetattrResponse{Status: status}

	if status != NFS3OK {
		return resp, nil
	}

	attr, err := DecodeFileAttr(r)
	if err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	resp.Attr = attr

	return resp, nil
}
