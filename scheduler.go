// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package procrpc

import (
	"sync"
	"time"
)

// A ResponseFunc receives the finalized Response to one Request submitted
// to a Scheduler. It is called from the scheduler's Tick goroutine and
// must not block.
type ResponseFunc func(*Response)

// pendingCall is one client's queued or suspended invocation.
type pendingCall struct {
	sig       *ProcedureSignature
	sessionID string
	cont      Continuation
	deliver   ResponseFunc
	submitted time.Time
}

// A Scheduler runs requests as continuations: one cooperative-yield-aware
// FIFO per client, drained one head continuation per client per Tick, with
// round-robin fairness across clients so no single client's backlog starves
// another's.
//
// All Scheduler methods are safe for concurrent use, but Tick is intended
// to be driven by a single host thread (the "host tick"); the core's
// concurrency model assumes dispatch, binding, and invocation all happen
// on that one logical thread (see package doc).
type Scheduler struct {
	disp *Dispatcher

	// Clock reports the wall-clock-in-simulation timestamp stamped on a
	// Response when it is finalized. It defaults to a wrapper around
	// time.Now, but a host driving a simulation clock may override it.
	Clock func() float64

	mu     sync.Mutex
	queues map[string][]*pendingCall
	order  []string // round-robin visiting order of clients with a non-empty queue
	cursor int
}

// NewScheduler constructs a Scheduler bound to disp.
func NewScheduler(disp *Dispatcher) *Scheduler {
	return &Scheduler{
		disp:   disp,
		Clock:  func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
		queues: make(map[string][]*pendingCall),
	}
}

// Submit enqueues req on behalf of sessionID. deliver is called exactly
// once, with the finalized Response, once req reaches a terminal state —
// possibly not until a later Tick, if the procedure yields.
//
// Responses for a single sessionID are always delivered in the order their
// requests were Submitted, even across yields: a yielding request blocks
// its own client's later requests, never another client's. This holds even
// when the request fails registry lookup: a lookup failure is enqueued as
// a pendingCall like any other, so it is finalized by Tick in its turn
// rather than jumping the per-client queue.
func (s *Scheduler) Submit(sessionID string, req *Request, deliver ResponseFunc) {
	rootMetrics.requestsIn.Add(1)

	pc := &pendingCall{
		sessionID: sessionID,
		deliver:   deliver,
		submitted: time.Now(),
	}

	sig, err := s.disp.Lookup(req)
	if err != nil {
		pc.sig = &ProcedureSignature{Service: req.Service, Procedure: req.Procedure}
		pc.cont = &failedContinuation{err: err}
	} else {
		pc.sig = sig
		pc.cont = &initialContinuation{disp: s.disp, sig: sig, sessionID: sessionID, req: req}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queues[sessionID]; !ok {
		s.order = append(s.order, sessionID)
	}
	s.queues[sessionID] = append(s.queues[sessionID], pc)
}

// initialContinuation is the first step of a freshly submitted request:
// running it performs the full lookup-independent dispatch (context check,
// argument binding, invocation).
type initialContinuation struct {
	disp      *Dispatcher
	sig       *ProcedureSignature
	sessionID string
	req       *Request
}

func (c *initialContinuation) Run() Outcome {
	return c.disp.Invoke(c.sig, c.sessionID, c.req)
}

// failedContinuation finalizes immediately with a fixed error, used for
// requests that never reach invocation (e.g. registry lookup failures). It
// still runs through the ordinary Tick/finalize/deliver path so its
// Response takes its place in the client's FIFO instead of jumping ahead
// of earlier, still-pending requests.
type failedContinuation struct {
	err error
}

func (c *failedContinuation) Run() Outcome {
	return Failed(c.err)
}

// Tick drains at most one head continuation per client with a non-empty
// queue, visiting clients in rotating order, and returns the number of
// requests that reached a terminal state this tick.
func (s *Scheduler) Tick() int {
	rootMetrics.ticks.Add(1)

	s.mu.Lock()
	clients := s.visitOrderLocked()
	s.mu.Unlock()

	finalized := 0
	for _, sessionID := range clients {
		if s.tickOne(sessionID) {
			finalized++
		}
	}
	return finalized
}

// visitOrderLocked returns the current round-robin visiting order starting
// from the cursor, and advances the cursor for next time. Must be called
// with s.mu held.
func (s *Scheduler) visitOrderLocked() []string {
	s.pruneEmptyLocked()
	n := len(s.order)
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = s.order[(s.cursor+i)%n]
	}
	s.cursor = (s.cursor + 1) % n
	return out
}

func (s *Scheduler) pruneEmptyLocked() {
	kept := s.order[:0]
	for _, id := range s.order {
		if len(s.queues[id]) > 0 {
			kept = append(kept, id)
		} else {
			delete(s.queues, id)
		}
	}
	s.order = kept
}

// tickOne runs the head continuation for sessionID, if any, finalizing and
// delivering its Response if it reached a terminal state. It reports
// whether a response was finalized.
func (s *Scheduler) tickOne(sessionID string) bool {
	s.mu.Lock()
	q := s.queues[sessionID]
	if len(q) == 0 {
		s.mu.Unlock()
		return false
	}
	head := q[0]
	s.mu.Unlock()

	outcome := head.cont.Run()
	if outcome.IsYield() {
		rootMetrics.yields.Add(1)
		s.mu.Lock()
		// The client may have disconnected while this ran; only replace the
		// head continuation if the queue is still there for it.
		if q := s.queues[sessionID]; len(q) > 0 && q[0] == head {
			q[0].cont = outcome.Next()
		}
		s.mu.Unlock()
		return false
	}

	resp := s.finalize(head.sig, outcome)

	s.mu.Lock()
	if q := s.queues[sessionID]; len(q) > 0 && q[0] == head {
		s.queues[sessionID] = q[1:]
	}
	s.mu.Unlock()

	if resp.Error != "" {
		rootMetrics.requestsFailed.Add(1)
	} else {
		rootMetrics.requestsOK.Add(1)
	}

	head.deliver(resp)
	if s.disp.Audit != nil {
		s.disp.Audit.Report(head.sig.Service, head.sig.Procedure, sessionID, outcome.IsFailed(), time.Since(head.submitted))
	}
	return true
}

func (s *Scheduler) finalize(sig *ProcedureSignature, outcome Outcome) *Response {
	resp := &Response{Time: s.Clock()}
	if outcome.IsFailed() {
		resp.Error = outcome.Err().Error()
		return resp
	}
	rv, err := s.disp.EncodeReturnValue(sig, outcome.Value())
	if err != nil {
		resp.Error = Errorf(InvalidArgument, "encoding return value: %v", err).Error()
		return resp
	}
	resp.ReturnValue = rv
	return resp
}

// DropClient discards every queued or suspended continuation for
// sessionID without delivering responses, and releases any object handles
// exclusively held by that client's references. It is the scheduler's half
// of client-disconnect cancellation (see package doc); the other half,
// releasing the transport itself, is the host's responsibility.
func (s *Scheduler) DropClient(sessionID string) {
	rootMetrics.clientsDropped.Add(1)
	s.mu.Lock()
	delete(s.queues, sessionID)
	s.mu.Unlock()
	s.disp.Store.ResetClient(sessionID)
}

// PendingCount reports the number of requests currently queued or
// suspended for sessionID.
func (s *Scheduler) PendingCount(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues[sessionID])
}
