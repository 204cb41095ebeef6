// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package transport

import (
	"context"
	"errors"
	"net"

	"github.com/creachadair/taskgroup"
)

// An Accepter produces a new Channel for each inbound connection, blocking
// until one arrives or ctx ends.
type Accepter interface {
	Accept(context.Context) (Channel, error)
}

// Loop accepts connections from acc and invokes handle for each one in its
// own goroutine. Loop continues until acc reports net.ErrClosed (a closed
// net.Listener) or context.Canceled (an Accepter, such as NATSAccepter,
// that has no listener to close and instead stops by observing ctx); it
// then waits for all running handlers to return before returning itself.
func Loop(ctx context.Context, acc Accepter, handle func(context.Context, Channel)) error {
	g := taskgroup.New(nil)
	for {
		ch, err := acc.Accept(ctx)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
				err = nil
			}
			g.Wait()
			return err
		}

		g.Go(func() error {
			sctx, cancel := context.WithCancel(ctx)
			defer cancel()
			defer ch.Close()
			handle(sctx, ch)
			return nil
		})
	}
}

// NetAccepter adapts a net.Listener to the Accepter interface, wrapping
// each accepted connection as a stream Channel.
func NetAccepter(lst net.Listener) Accepter { return netAccepter{Listener: lst} }

type netAccepter struct{ net.Listener }

// Accept implements Accepter.
func (n netAccepter) Accept(ctx context.Context) (Channel, error) {
	// net.Listener does not obey a context directly, so close the listener
	// if ctx ends while we are blocked in Accept.
	ok := make(chan struct{})
	defer close(ok)
	taskgroup.Go(func() error {
		select {
		case <-ctx.Done():
			n.Listener.Close()
		case <-ok:
		}
		return nil
	})

	conn, err := n.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return Stream(conn, conn), nil
}
