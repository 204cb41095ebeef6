// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/orbitalsoft/procrpc/facade"
)

// Stream constructs a Channel that reads length-prefixed frames from r and
// writes them to wc, closing wc when the channel is closed. It is the
// transport for any stream-oriented carrier: a TCP connection, a Unix
// socket, or a pair of OS pipes.
func Stream(r io.Reader, wc io.WriteCloser) Channel {
	return &streamChannel{r: facade.NewFrameReader(r), w: bufio.NewWriter(wc), c: wc}
}

// DialTCP opens a TCP connection to addr and wraps it as a Channel.
func DialTCP(addr string) (Channel, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return Stream(conn, conn), nil
}

type streamChannel struct {
	mu sync.Mutex
	r  *bufio.Reader
	w  *bufio.Writer
	c  io.Closer

	closed bool
}

// Send implements Channel.
func (s *streamChannel) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := facade.WriteFrame(s.w, frame); err != nil {
		return err
	}
	return s.w.Flush()
}

// Recv implements Channel.
func (s *streamChannel) Recv() ([]byte, error) {
	frame, err := facade.ReadFrame(s.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrClosed
		}
		return nil, err
	}
	return frame, nil
}

// Close implements Channel.
func (s *streamChannel) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.c.Close()
}

// Pipe constructs a connected pair of in-memory stream channels, for tests
// and for hosts that embed both ends of a connection in one process.
func Pipe() (a, b Channel) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	return Stream(ar, aw), Stream(br, bw)
}
