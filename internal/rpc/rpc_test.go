package rpc

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnixAuthEncode(t *testing.T) {
	t.Run("EncodesFixedFields", func(t *testing.T) {
		auth := &UnixAuth{
			Stamp:       12345,
			MachineName: "bench01",
			UID:         1000,
			GID:         1000,
			GIDs:        []uint32{4, 24, 27},
		}

		buf := new(bytes.Buffer)
		require.NoError(t, auth.Encode(buf))

		b := buf.Bytes()
		assert.Equal(t, uint32(12345), binary.BigEndian.Uint32(b[0:4]))

		nameLen := binary.BigEndian.Uint32(b[4:8])
		assert.Equal(t, uint32(len("bench01")), nameLen)
		assert.Equal(t, "bench01", string(b[8:8+nameLen]))
	})

	t.Run("EmptyMachineName", func(t *testing.T) {
		auth := &UnixAuth{MachineName: "", UID: 0, GID: 0}
		buf := new(bytes.Buffer)
		require.NoError(t, auth.Encode(buf))
		assert.Equal(t, uint32(0), binary.BigEndian.Uint32(buf.Bytes()[4:8]))
	})
}

func TestEncodeCall(t *testing.T) {
	t.Run("BuildsCallWithAuthUnix", func(t *testing.T) {
		cred := &UnixAuth{Stamp: 1, MachineName: "h", UID: 0, GID: 0}
		msg, err := EncodeCall(0xABCD, 100003, 3, 0, cred, nil)
		require.NoError(t, err)

		assert.Equal(t, uint32(0xABCD), binary.BigEndian.Uint32(msg[0:4]))
		assert.Equal(t, MsgCall, binary.BigEndian.Uint32(msg[4:8]))
		assert.Equal(t, RPCVersion, binary.BigEndian.Uint32(msg[8:12]))
		assert.Equal(t, uint32(100003), binary.BigEndian.Uint32(msg[12:16]))
		assert.Equal(t, uint32(3), binary.BigEndian.Uint32(msg[16:20]))
		assert.Equal(t, uint32(0), binary.BigEndian.Uint32(msg[20:24]))
		assert.Equal(t, AuthUnix, binary.BigEndian.Uint32(msg[24:28]))
	})

	t.Run("BuildsCallWithAuthNone", func(t *testing.T) {
		msg, err := EncodeCall(1, 100005, 3, 1, nil, []byte("args"))
		require.NoError(t, err)
		assert.Equal(t, AuthNone, binary.BigEndian.Uint32(msg[24:28]))
		assert.True(t, bytes.HasSuffix(msg, []byte("args")))
	})
}

func buildAcceptedReply(xid uint32, acceptStat uint32, extra []byte) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, xid)
	_ = binary.Write(buf, binary.BigEndian, MsgReply)
	_ = binary.Write(buf, binary.BigEndian, MsgAccepted)
	_ = binary.Write(buf, binary.BigEndian, AuthNone) // verf flavor
	_ = binary.Write(buf, binary.BigEndian, uint32(0))
	_ = binary.Write(buf, binary.BigEndian, acceptStat)
	buf.Write(extra)
	return buf.Bytes()
}

func TestDecodeReply(t *testing.T) {
	t.Run("DecodesSuccess", func(t *testing.T) {
		data := buildAcceptedReply(0x42, Success, []byte{0, 0, 0, 7})
		hdr, payload, err := DecodeReply(data)
		require.NoError(t, err)
		assert.Equal(t, uint32(0x42), hdr.XID)
		assert.Equal(t, []byte{0, 0, 0, 7}, payload)
	})

	t.Run("ReturnsProgMismatchWithVersions", func(t *testing.T) {
		extra := make([]byte, 8)
		binary.BigEndian.PutUint32(extra[0:4], 2)
		binary.BigEndian.PutUint32(extra[4:8], 4)
		data := buildAcceptedReply(1, ProgMismatch, extra)

		hdr, payload, err := DecodeReply(data)
		require.ErrorIs(t, err, ErrProgMismatch)
		assert.Nil(t, payload)
		assert.Equal(t, uint32(2), hdr.LowVersion)
		assert.Equal(t, uint32(4), hdr.HighVersion)
	})

	t.Run("ReturnsProgUnavail", func(t *testing.T) {
		data := buildAcceptedReply(1, ProgUnavail, nil)
		_, _, err := DecodeReply(data)
		require.ErrorIs(t, err, ErrProgUnavail)
	})

	t.Run("ReturnsAuthError", func(t *testing.T) {
		buf := new(bytes.Buffer)
		_ = binary.Write(buf, binary.BigEndian, uint32(1))
		_ = binary.Write(buf, binary.BigEndian, MsgReply)
		_ = binary.Write(buf, binary.BigEndian, MsgDenied)
		_ = binary.Write(buf, binary.BigEndian, AuthError)

		_, _, err := DecodeReply(buf.Bytes())
		require.ErrorIs(t, err, ErrAuthError)
	})

	t.Run("RejectsShortMessage", func(t *testing.T) {
		_, _, err := DecodeReply([]byte{0, 1})
		require.ErrorIs(t, err, ErrShortReply)
	})
}

func TestPeekXID(t *testing.T) {
	data := buildAcceptedReply(0xDEADBEEF, Success, nil)
	xid, err := PeekXID(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), xid)
}
