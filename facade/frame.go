// Copyright (C) 2022 Michael J. Fromberger. All Rights Reserved.

package facade

import (
	"bufio"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// MaxFrameLength bounds the length prefix accepted by ReadFrame, guarding
// against a corrupt or hostile peer claiming an unbounded message size.
const MaxFrameLength = 64 << 20 // 64 MiB

// WriteFrame writes one length-prefixed frame to w: a varint byte length
// followed by exactly that many bytes of msg. It satisfies the wire framing
// of spec.md §6 ("frame := varint(length) || message_bytes").
func WriteFrame(w io.Writer, msg []byte) error {
	hdr := protowire.AppendVarint(nil, uint64(len(msg)))
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("facade: write frame header: %w", err)
	}
	if len(msg) == 0 {
		return nil
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("facade: write frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r.
func ReadFrame(r io.ByteReader) ([]byte, error) {
	length, err := readVarint(r)
	if err != nil {
		return nil, fmt.Errorf("facade: read frame header: %w", err)
	}
	if length > MaxFrameLength {
		return nil, fmt.Errorf("facade: frame length %d exceeds maximum %d", length, MaxFrameLength)
	}
	if length == 0 {
		return nil, nil
	}
	buf := make([]byte, length)
	if br, ok := r.(io.Reader); ok {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("facade: read frame body: %w", err)
		}
		return buf, nil
	}
	for i := range buf {
		buf[i], err = r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("facade: read frame body: %w", err)
		}
	}
	return buf, nil
}

// readVarint reads a base-128 varint one byte at a time, matching the
// encoding protowire.AppendVarint produces.
func readVarint(r io.ByteReader) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, fmt.Errorf("varint overflow")
		}
	}
}

// NewFrameReader wraps r (which need not implement io.ByteReader itself,
// such as a raw net.Conn) so ReadFrame can be used directly on it.
func NewFrameReader(r io.Reader) *bufio.Reader { return bufio.NewReader(r) }
