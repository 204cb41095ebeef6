// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package transport provides concrete Channel implementations that move
// length-prefixed protobuf frames between a host process and its clients.
// The core dispatcher never imports this package: it is agnostic to
// whatever carries frames in and out, so long as the carrier satisfies
// Channel.
package transport

import "errors"

// ErrClosed is returned by Send or Recv once the channel has been closed,
// either locally or by the peer.
var ErrClosed = errors.New("transport: channel closed")

// A Channel sends and receives whole frames: the varint-length-prefixed
// byte strings described by spec.md §6. A Channel does not know or care
// whether the frames it carries are Requests or Responses; that
// interpretation belongs to whichever side of a connection is using it
// (see package facade).
//
// Recv must return ErrClosed, or an error wrapping it, once the channel can
// no longer produce frames because it was closed. Send and Recv may be
// called concurrently with each other, but not with themselves.
type Channel interface {
	Send(frame []byte) error
	Recv() ([]byte, error)
	Close() error
}
