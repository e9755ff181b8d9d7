package nfs3

import (
	"bytes"
	"fmt"

	rxdr "github.com/rasky/go-xdr/xdr2"

	"github.com/marmos91/nfsbench/internal/xdr"
)

// ReadRequest is the argument to READ (RFC 1813 Section 3.3.6): file handle,
// byte offset, and requested byte count.
type ReadRequest struct {
	Handle []byte
	Offset uint64
	Count  uint32
}

// Encode serializes the READ arguments to XDR.
func (req *ReadRequest) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := EncodeHandle(buf, req.Handle); err != nil {
		return nil, fmt.Errorf("encode handle: %w", err)
	}
	if err := xdr.WriteUint64(buf, req.Offset); err != nil {
		return nil, fmt.Errorf("encode offset: %w", err)
	}
	if err := xdr.WriteUint32(buf, req.Count); err != nil {
		return nil, fmt.Errorf("encode count: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadResponse is the READ3res union: status, post-op attributes, and on
// success the bytes actually read plus an end-of-file indicator.
type ReadResponse struct {
	Status uint32
	Attr   *FileAttr
	Count  uint32
	Eof    bool
	Data   []byte
}

// read3resok is the trailing, fixed-shape portion of READ3res on success:
// count, eof, and the data itself. Its field order matches the wire layout,
// so it decodes in one reflection-based call instead of three sequential
// ones.
type read3resok struct {
	Count uint32
	Eof   bool
	Data  []byte
}

// DecodeReadResponse parses a READ reply payload. The returned Data slice is
// freshly allocated by the decoder, independent of payload's backing array.
func DecodeReadResponse(payload []byte) (*ReadResponse, error) {
	r := bytes.NewReader(payload)

	status, err := decodeStatus(r)
	if err != nil {
		return nil, err
	}
	resp := &ReadResponse{Status: status}

	attr, err := decodePostOpAttr(r)
	if err != nil {
		return nil, fmt.Errorf("decode post-op attributes: %w", err)
	}
	resp.Attr = attr

	if status != NFS3OK {
		return resp, nil
	}

	var result read3resok
	if _, err := rxdr.Unmarshal(r, &result); err != nil {
		return nil, fmt.Errorf("decode read3resok: %w", err)
	}
	resp.Count, resp.Eof, resp.Data = result.Count, result.Eof, result.Data

	return resp, nil
}
