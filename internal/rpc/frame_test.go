package rpc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrameReadFrame(t *testing.T) {
	t.Run("RoundTripsSingleFragment", func(t *testing.T) {
		payload := []byte("hello nfs")
		buf := new(bytes.Buffer)
		require.NoError(t, WriteFrame(buf, payload))

		got, err := ReadFrame(buf)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("SetsLastFragmentBit", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, WriteFrame(buf, []byte{1, 2, 3}))
		raw := buf.Bytes()[:4]
		assert.NotZero(t, raw[0]&0x80)
	})

	t.Run("ReassemblesMultipleFragments", func(t *testing.T) {
		buf := new(bytes.Buffer)
		var hdr1 [4]byte
		hdr1[3] = 3 // length=3, not last
		buf.Write(hdr1[:])
		buf.Write([]byte{1, 2, 3})

		require.NoError(t, WriteFrame(buf, []byte{4, 5}))

		got, err := ReadFrame(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3, 4, 5}, got)
	})

	t.Run("RejectsOversizedFragment", func(t *testing.T) {
		var hdr [4]byte
		hdr[0] = 0x80 | 0x7F
		hdr[1] = 0xFF
		hdr[2] = 0xFF
		hdr[3] = 0xFF
		_, err := ReadFrame(bytes.NewReader(hdr[:]))
		require.Error(t, err)
	})
}
