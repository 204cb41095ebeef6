// Copyright (C) 2022 Michael J. Fromberger. All Rights Reserved.

// Package procrpc implements a remote-procedure-call core: a service
// registry, an argument binder, a request dispatcher, and a cooperative
// continuation scheduler, together with the typed wire codec (package
// codec) and the per-client object-handle store (package objectstore) that
// let host objects cross the RPC boundary as opaque numeric handles.
//
// The core is transport-agnostic: it consumes decoded [Request] values and
// produces [Response] values; turning bytes on a socket into Requests and
// back is the job of package facade, and driving bytes over an actual
// connection is the job of package transport.
//
// # Registering procedures
//
// A [Registry] holds the flat map from (service, procedure) names to
// [ProcedureSignature]. Signatures are produced by a descriptor builder
// (see package service) and ingested with Register:
//
//	reg := procrpc.NewRegistry()
//	if err := reg.Register(desc); err != nil {
//	    log.Fatalf("register: %v", err)
//	}
//
// Registration errors (duplicate names, malformed parameter lists) are
// meant to be fatal at startup; they never reach a wire client.
//
// # Dispatching requests
//
// A [Dispatcher] ties a Registry to an [objectstore.Store] and a
// [ContextProvider]:
//
//	disp := procrpc.NewDispatcher(reg, objectstore.New(), ctxProvider)
//
// For procedures that never yield, Dispatch alone is a complete
// request/response cycle:
//
//	outcome := disp.Dispatch(sessionID, req)
//
// Procedures that may suspend across ticks (see below) should be run
// through a [Scheduler] instead, which takes care of resuming yielded
// continuations and preserving per-client response ordering.
//
// # Cooperative yields
//
// An [Invoker] returns an [Outcome]: [Done], [Failed], or [Yield]. Only a
// Yield is non-terminal; its [Continuation] is resumed on a later call to
// [Scheduler.Tick]. The codec, binder, registry, and object store never
// yield — only target invokers do, so a yielding procedure's own logic is
// the only place that needs to reason about suspension:
//
//	func countdown(n int) procrpc.Outcome {
//	    if n == 0 {
//	        return procrpc.Done(nil)
//	    }
//	    return procrpc.Yield(procrpc.ContinuationFunc(func() procrpc.Outcome {
//	        return countdown(n - 1)
//	    }))
//	}
//
// # Scheduling
//
// A [Scheduler] maintains one FIFO of pending continuations per client.
// Each call to [Scheduler.Tick] services at most one head continuation per
// client, rotating fairly among clients with pending work, so no one
// client's backlog can starve another's:
//
//	sched := procrpc.NewScheduler(disp)
//	sched.Submit(sessionID, req, func(rsp *procrpc.Response) {
//	    // send rsp back to sessionID over the transport
//	})
//	for sched.PendingCount(sessionID) > 0 {
//	    sched.Tick()
//	}
//
// On client disconnect, [Scheduler.DropClient] discards that client's
// queued and suspended work without emitting responses, and releases any
// object handles exclusively referenced by that client (see
// [objectstore.Store.ResetClient]).
//
// # Errors
//
// Every failure the core reports is a concrete [*Error] whose Kind is one
// of the canonical categories in this package (UnknownService,
// WrongContext, InvalidArgument, and so on). A Dispatcher never recovers
// an error locally; it always surfaces it as a Failed Outcome for the
// caller (or Scheduler) to finalize into a Response.
package procrpc
