// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package session binds a connected transport.Channel to a dispatch
// session: it mints the session identifier, feeds decoded frames to a
// Scheduler, and writes back the Responses the scheduler finalizes — in
// submission order, even though finalization may happen on a later host
// tick than the Request arrived on (see Scheduler.Submit). On disconnect
// it guarantees Scheduler.DropClient runs exactly once, so the Object
// Store releases any handles exclusively held by the departing client
// (Scheduler.DropClient already calls objectstore.Store.ResetClient).
//
// Per-client handle tracking and its capacity bound live in
// objectstore.Store itself; this package's remaining job is lifecycle
// glue between a transport connection and that existing machinery,
// following the reader/writer goroutine split of
// github.com/creachadair/chirp's Peer and its taskgroup-based shutdown.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/creachadair/taskgroup"

	"github.com/orbitalsoft/procrpc"
	"github.com/orbitalsoft/procrpc/facade"
	"github.com/orbitalsoft/procrpc/transport"
)

// Handler drives sessions against a single Scheduler.
type Handler struct {
	Scheduler *procrpc.Scheduler
}

// Serve runs one connected session to completion: it assigns a fresh
// session identifier, reads frames from ch and submits them to
// h.Scheduler, and writes back each finalized Response in the order its
// Request was submitted. Serve returns once receiving from ch fails (the
// channel is closed or the peer goes away) and every queued Response has
// been written; ctx is not consulted, so its end alone does not stop a
// session. Serve always calls h.Scheduler.DropClient before returning, so a
// client that disconnects mid-call still releases its handles.
func Serve(ctx context.Context, ch transport.Channel, h Handler) {
	sessionID := facade.NewSessionID()
	defer h.Scheduler.DropClient(sessionID)

	// pending holds finalized Responses in submission order: the scheduler
	// guarantees deliver is invoked in that order for a given session.
	// ResponseFunc must not block (it runs on the scheduler's Tick
	// goroutine), so delivery appends to an unbounded slice under a mutex
	// and signals wake on a capacity-1 channel, rather than sending on a
	// fixed-capacity channel that could fill and stall the Tick.
	p := &pendingQueue{wake: make(chan struct{}, 1)}

	g := taskgroup.New(nil)
	g.Go(func() error {
		readLoop(ch, h.Scheduler, sessionID, p)
		p.closeWriter()
		return nil
	})
	g.Go(func() error {
		writeLoop(ch, p)
		return nil
	})
	g.Wait()
}

// pendingQueue is an unbounded FIFO of finalized Responses awaiting
// transmission, with a capacity-1 wake channel so the writer can block
// between batches instead of busy-polling.
type pendingQueue struct {
	mu     sync.Mutex
	items  []*procrpc.Response
	closed bool
	wake   chan struct{}
}

func (p *pendingQueue) push(resp *procrpc.Response) {
	p.mu.Lock()
	p.items = append(p.items, resp)
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// closeWriter signals that no further pushes will occur, once any already
// queued items have been written.
func (p *pendingQueue) closeWriter() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// drain returns every currently queued Response and whether the queue is
// closed with nothing left to deliver.
func (p *pendingQueue) drain() ([]*procrpc.Response, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := p.items
	p.items = nil
	return items, p.closed && len(items) == 0
}

func readLoop(ch transport.Channel, sched *procrpc.Scheduler, sessionID string, p *pendingQueue) {
	for {
		frame, err := ch.Recv()
		if err != nil {
			if err != transport.ErrClosed {
				slog.Debug("session: recv ended", "session", sessionID, "err", err)
			}
			return
		}

		req, err := facade.DecodeRequest(frame)
		if err != nil {
			slog.Warn("session: malformed request, dropping connection", "session", sessionID, "err", err)
			return
		}

		sched.Submit(sessionID, req, p.push)
	}
}

func writeLoop(ch transport.Channel, p *pendingQueue) {
	for {
		<-p.wake
		items, done := p.drain()
		for _, resp := range items {
			if err := ch.Send(facade.EncodeResponse(resp)); err != nil {
				return
			}
		}
		if done {
			return
		}
	}
}

// Listen runs transport.Loop against acc, invoking Serve for every
// accepted channel. It stops accepting when acc's listener closes or ctx
// ends, and returns once every running session's Serve has returned.
func Listen(ctx context.Context, acc transport.Accepter, h Handler) error {
	return transport.Loop(ctx, acc, func(ctx context.Context, ch transport.Channel) {
		Serve(ctx, ch, h)
	})
}
