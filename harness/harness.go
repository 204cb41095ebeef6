// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package harness provides support code for tests that need a live,
// in-memory procrpc session: a connected client/server Channel pair with
// a server already serving a Registry, the moral equivalent of
// github.com/creachadair/chirp's peers.NewLocal for this protocol.
package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/orbitalsoft/procrpc"
	"github.com/orbitalsoft/procrpc/facade"
	"github.com/orbitalsoft/procrpc/objectstore"
	"github.com/orbitalsoft/procrpc/session"
	"github.com/orbitalsoft/procrpc/transport"
)

// Local is a server bound to one in-memory client Channel, suitable for
// exercising a Registry end to end without a real network or NATS
// connection.
type Local struct {
	Client    transport.Channel
	Store     *objectstore.Store
	Scheduler *procrpc.Scheduler

	cancel   context.CancelFunc
	tickStop chan struct{}
	done     chan struct{}
}

// Option configures a Local server.
type Option func(*options)

type options struct {
	context procrpc.ContextProvider
}

// WithContext overrides the ActivityContext provider the server dispatches
// with. The default reports an empty ActivityContext, so only procedures
// with no RequiredContext (or one that lists the empty context) can run.
func WithContext(cp procrpc.ContextProvider) Option {
	return func(o *options) { o.context = cp }
}

// NewLocal starts a server for reg over an in-memory pipe, ticking its
// Scheduler every tickInterval, and returns the client-side end of the
// connection. Call Stop when done to release the server goroutines.
func NewLocal(reg *procrpc.Registry, tickInterval time.Duration, opts ...Option) *Local {
	o := &options{context: procrpc.ContextProviderFunc(func() procrpc.ActivityContext { return "" })}
	for _, opt := range opts {
		opt(o)
	}

	store := objectstore.New()
	disp := procrpc.NewDispatcher(reg, store, o.context)
	sched := procrpc.NewScheduler(disp)

	clientCh, serverCh := transport.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	l := &Local{
		Client:    clientCh,
		Store:     store,
		Scheduler: sched,
		cancel:    cancel,
		tickStop:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	go func() {
		session.Serve(ctx, serverCh, session.Handler{Scheduler: sched})
		close(l.done)
	}()
	go func() {
		t := time.NewTicker(tickInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				sched.Tick()
			case <-l.tickStop:
				return
			}
		}
	}()

	return l
}

// Stop closes the client channel (which ends the server's session loop)
// and stops the ticker, blocking until the server goroutine has exited.
func (l *Local) Stop() error {
	close(l.tickStop)
	l.cancel()
	err := l.Client.Close()
	<-l.done
	return err
}

// Call sends req on the client channel and waits for its Response. It
// assumes single-request-at-a-time use, matching the wire format's lack
// of a request correlation ID (see facade's package doc).
func (l *Local) Call(req *procrpc.Request) (*procrpc.Response, error) {
	if err := l.Client.Send(facade.EncodeRequest(req)); err != nil {
		return nil, fmt.Errorf("harness: send request: %w", err)
	}
	frame, err := l.Client.Recv()
	if err != nil {
		return nil, fmt.Errorf("harness: receive response: %w", err)
	}
	resp, err := facade.DecodeResponse(frame)
	if err != nil {
		return nil, fmt.Errorf("harness: decode response: %w", err)
	}
	return resp, nil
}
