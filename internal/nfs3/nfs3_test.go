package nfs3

import (
	"bytes"
	"testing"

	"github.com/marmos91/nfsbench/internal/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAttr() *FileAttr {
	return &FileAttr{
		Type: 1, Mode: 0o644, Nlink: 1, UID: 1000, GID: 1000,
		Size: 4096, Used: 4096,
		Rdev: [2]uint32{0, 0}, Fsid: 1, Fileid: 42,
		Atime: TimeVal{Seconds: 1, Nseconds: 0},
		Mtime: TimeVal{Seconds: 2, Nseconds: 0},
		Ctime: TimeVal{Seconds: 3, Nseconds: 0},
	}
}

func encodeAttr(buf *bytes.Buffer, a *FileAttr) {
	_ = xdr.WriteUint32(buf, a.Type)
	_ = xdr.WriteUint32(buf, a.Mode)
	_ = xdr.WriteUint32(buf, a.Nlink)
	_ = xdr.WriteUint32(buf, a.UID)
	_ = xdr.WriteUint32(buf, a.GID)
	_ = xdr.WriteUint64(buf, a.Size)
	_ = xdr.WriteUint64(buf, a.Used)
	_ = xdr.WriteUint32(buf, a.Rdev[0])
	_ = xdr.WriteUint32(buf, a.Rdev[1])
	_ = xdr.WriteUint64(buf, a.Fsid)
	_ = xdr.WriteUint64(buf, a.Fileid)
	_ = xdr.WriteUint32(buf, a.Atime.Seconds)
	_ = xdr.WriteUint32(buf, a.Atime.Nseconds)
	_ = xdr.WriteUint32(buf, a.Mtime.Seconds)
	_ = xdr.WriteUint32(buf, a.Mtime.Nseconds)
	_ = xdr.WriteUint32(buf, a.Ctime.Seconds)
	_ = xdr.WriteUint32(buf, a.Ctime.Nseconds)
}

func TestDecodeFileAttr(t *testing.T) {
	buf := new(bytes.Buffer)
	encodeAttr(buf, sampleAttr())

	got, err := DecodeFileAttr(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, sampleAttr(), got)
}

func TestGetattrRoundTrip(t *testing.T) {
	req := &GetattrRequest{Handle: []byte{1, 2, 3, 4}}
	encoded, err := req.Encode()
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)

	buf := new(bytes.Buffer)
	_ = xdr.WriteUint32(buf, NFS3OK)
	encodeAttr(buf, sampleAttr())

	resp, err := DecodeGetattrResponse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, NFS3OK, resp.Status)
	assert.Equal(t, sampleAttr(), resp.Attr)
}

func TestGetattrErrorResponse(t *testing.T) {
	buf := new(bytes.Buffer)
	_ = xdr.WriteUint32(buf, NFS3ErrStale)

	resp, err := DecodeGetattrResponse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, NFS3ErrStale, resp.Status)
	assert.Nil(t, resp.Attr)
}

func TestReadRequestEncode(t *testing.T) {
	req := &ReadRequest{Handle: []byte{9, 9}, Offset: 1 << 20, Count: 8192}
	encoded, err := req.Encode()
	require.NoError(t, err)
	assert.NotEmpty(t, encoded)
}

func TestReadResponseRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	_ = xdr.WriteUint32(buf, NFS3OK)
	_ = xdr.WriteBool(buf, true) // post-op attr present
	encodeAttr(buf, sampleAttr())
	_ = xdr.WriteUint32(buf, 5) // count
	_ = xdr.WriteBool(buf, false)
	_ = xdr.WriteXDROpaque(buf, []byte("hello"))

	resp, err := DecodeReadResponse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, NFS3OK, resp.Status)
	assert.Equal(t, uint32(5), resp.Count)
	assert.False(t, resp.Eof)
	assert.Equal(t, []byte("hello"), resp.Data)
	assert.Equal(t, sampleAttr(), resp.Attr)
}

func TestReadResponseNoAttr(t *testing.T) {
	buf := new(bytes.Buffer)
	_ = xdr.WriteUint32(buf, NFS3ErrNoEnt)
	_ = xdr.WriteBool(buf, false) // no post-op attr

	resp, err := DecodeReadResponse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, NFS3ErrNoEnt, resp.Status)
	assert.Nil(t, resp.Attr)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "NFS3_OK", StatusString(NFS3OK))
	assert.Equal(t, "NFS3ERR_STALE", StatusString(NFS3ErrStale))
	assert.Contains(t, StatusString(9999), "UNKNOWN")
}
