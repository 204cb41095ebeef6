// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package procrpc

import (
	"time"

	"github.com/orbitalsoft/procrpc/codec"
	"github.com/orbitalsoft/procrpc/objectstore"
)

// An AuditSink receives a fire-and-forget report of one completed
// dispatch. Implementations must not block the caller; see package audit
// for a concrete pgx-backed sink.
type AuditSink interface {
	Report(service, procedure string, sessionID string, failed bool, elapsed time.Duration)
}

// A Dispatcher is the single entry point that turns a Request into either a
// terminal Outcome or a Continuation to resume on a later scheduler tick.
// It enforces activity-context preconditions, binds arguments via package
// codec and objectstore, and never recovers errors locally: every failure
// is surfaced as a Failed Outcome for the scheduler to finalize.
type Dispatcher struct {
	Registry *Registry
	Store    *objectstore.Store
	Context  ContextProvider

	// Audit, if non-nil, is notified after every request reaches a terminal
	// state. Reporting is fire-and-forget and must never block or fail the
	// response path.
	Audit AuditSink
}

// NewDispatcher constructs a Dispatcher over the given registry, object
// store, and activity-context provider. Audit may be left nil.
func NewDispatcher(registry *Registry, store *objectstore.Store, ctx ContextProvider) *Dispatcher {
	return &Dispatcher{Registry: registry, Store: store, Context: ctx}
}

// Lookup resolves req's (service, procedure) pair to a signature, so that
// a caller needing to hold onto the signature across yields (see
// Scheduler) need not re-resolve it on every resume.
func (d *Dispatcher) Lookup(req *Request) (*ProcedureSignature, error) {
	return d.Registry.Lookup(req.Service, req.Procedure)
}

// Dispatch performs one dispatch attempt for req on behalf of sessionID
// (used only to attribute vended object handles for later bulk release;
// the dispatcher never otherwise interprets it). The returned Outcome is
// Done, Failed, or Yield; a Yield must be resumed by calling Run on its
// Continuation, which re-enters this same signature's invoker, not the
// dispatcher itself.
func (d *Dispatcher) Dispatch(sessionID string, req *Request) Outcome {
	sig, err := d.Lookup(req)
	if err != nil {
		return Failed(err)
	}
	return d.Invoke(sig, sessionID, req)
}

// Invoke is Dispatch for a caller that has already resolved sig, so it can
// be reused by the scheduler without a second registry lookup.
func (d *Dispatcher) Invoke(sig *ProcedureSignature, sessionID string, req *Request) Outcome {
	if !contextSatisfied(sig.RequiredContext, d.Context.ActivityContext()) {
		return Failed(Errorf(WrongContext, "%s requires %v, ambient is %v",
			sig.FullyQualifiedName(), sig.RequiredContext, d.Context.ActivityContext()))
	}

	bound, err := BindArguments(sig, req.Arguments, d.Store)
	if err != nil {
		return Failed(err)
	}

	return d.wrap(sig, sessionID, runInvoker(sig, bound))
}

// runInvoker calls sig.Invoker, converting a panic into a ProcedureFailed
// Outcome rather than letting it escape to the scheduler's tick loop. Every
// other uncaught failure a target raises must already arrive as a Failed
// Outcome; a panic is the one case the core itself must contain.
func runInvoker(sig *ProcedureSignature, bound []any) (o Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = Failed(Errorf(ProcedureFailed, "%s: panic: %v", sig.FullyQualifiedName(), r))
		}
	}()
	return sig.Invoker(bound)
}

// wrap decorates a freshly produced Outcome so that, if it yields, the
// continuation it carries still passes back through settle and wrap the
// next time it runs. This is what lets NullReturn/ObjectRef normalization
// apply uniformly whether a procedure completes immediately or after any
// number of cooperative yields.
func (d *Dispatcher) wrap(sig *ProcedureSignature, sessionID string, o Outcome) Outcome {
	if o.IsYield() {
		return Yield(&resumeContinuation{d: d, sig: sig, sessionID: sessionID, inner: o.Next()})
	}
	return d.settle(sig, sessionID, o)
}

// resumeContinuation re-applies wrap/settle around the next run of a
// yielded invocation, so a multi-tick call is normalized exactly like a
// single-tick one once it finally terminates.
type resumeContinuation struct {
	d         *Dispatcher
	sig       *ProcedureSignature
	sessionID string
	inner     Continuation
}

func (r *resumeContinuation) Run() (o Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			o = Failed(Errorf(ProcedureFailed, "%s: panic: %v", r.sig.FullyQualifiedName(), rec))
		}
	}()
	return r.d.wrap(r.sig, r.sessionID, r.inner.Run())
}

// settle post-processes a terminal Outcome freshly produced by an invoker
// or a resumed Continuation: it normalizes Done results against the
// declared return type (including ObjectRef handle assignment and
// NullReturn detection) and leaves Failed untouched. o is never a Yield
// here; wrap intercepts those before calling settle.
func (d *Dispatcher) settle(sig *ProcedureSignature, sessionID string, o Outcome) Outcome {
	if !o.IsDone() {
		return o
	}
	if sig.ReturnType.Kind == codec.KindObjectRef {
		if o.Value() == nil {
			return o // a null return value encodes to handle 0 downstream
		}
		handle := d.Store.Add(o.Value())
		d.Store.Track(sessionID, handle)
		return Done(handle)
	}
	if o.Value() == nil && sig.ReturnType.Kind != codec.KindVoid {
		return Failed(Errorf(NullReturn, "%s: invoker returned null for non-void return type",
			sig.FullyQualifiedName()))
	}
	return o
}

// EncodeReturnValue renders a Done Outcome's value as wire bytes per sig's
// declared return type. It is exported so the scheduler can finalize a
// Response after resuming a Continuation through zero or more yields.
func (d *Dispatcher) EncodeReturnValue(sig *ProcedureSignature, value any) ([]byte, error) {
	if sig.ReturnType.Kind == codec.KindVoid {
		return nil, nil
	}
	if sig.ReturnType.Kind == codec.KindObjectRef && value == nil {
		return codec.Encode(objectstore.NullHandle, sig.ReturnType)
	}
	return codec.Encode(value, sig.ReturnType)
}
