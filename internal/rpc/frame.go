package rpc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/marmos91/nfsbench/internal/bufpool"
)

// lastFragmentBit marks the final fragment of an RPC record, per RFC 5531
// Section 10 (Record Marking Standard).
const lastFragmentBit = 0x80000000

// maxFragmentSize bounds a single fragment to guard against a misbehaving
// or malicious peer claiming an enormous length.
const maxFragmentSize = 4 << 20 // 4MiB

type fragmentHeader struct {
	IsLast bool
	Length uint32
}

func readFragmentHeader(r io.Reader) (fragmentHeader, error) {
	var raw [4]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return fragmentHeader{}, err
	}
	v := binary.BigEndian.Uint32(raw[:])
	return fragmentHeader{
		IsLast: v&lastFragmentBit != 0,
		Length: v &^ lastFragmentBit,
	}, nil
}

// WriteFrame wraps payload in a single-fragment RPC record marking header
// and writes it to w in one call. The client never splits an outgoing call
// across fragments.
func WriteFrame(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload))|lastFragmentBit)

	framed := bufpool.Get(4 + len(payload))
	defer bufpool.Put(framed)
	framed = framed[:4+len(payload)]
	copy(framed[:4], hdr[:])
	copy(framed[4:], payload)

	_, err := w.Write(framed)
	return err
}

// ReadFrame reads one complete RPC record from r, reassembling fragments as
// needed, and returns the payload in a buffer obtained from bufpool. The
// caller must return it via bufpool.Put when finished.
func ReadFrame(r io.Reader) ([]byte, error) {
	var assembled []byte

	for {
		hdr, err := readFragmentHeader(r)
		if err != nil {
			return nil, err
		}
		if hdr.Length > maxFragmentSize {
			return nil, fmt.Errorf("rpc: fragment length %d exceeds maximum %d", hdr.Length, maxFragmentSize)
		}

		frag := bufpool.GetUint32(hdr.Length)
		if _, err := io.ReadFull(r, frag); err != nil {
			bufpool.Put(frag)
			return nil, fmt.Errorf("read fragment: %w", err)
		}

		if assembled == nil && hdr.IsLast {
			// Common case: single-fragment reply, no reassembly copy needed.
			return frag, nil
		}

		assembled = append(assembled, frag...)
		bufpool.Put(frag)

		if hdr.IsLast {
			return assembled, nil
		}
	}
}
