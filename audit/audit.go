// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package audit provides Dispatch Audit Sink implementations: a relational
// sink backed by pgx, and a no-op sink for hosts that don't configure one.
// Both satisfy procrpc.AuditSink. Per SPEC_FULL.md §4.K, a slow or down
// audit store must never affect dispatch latency or correctness, so every
// sink here treats Report as fire-and-forget.
package audit

import (
	"time"

	"github.com/orbitalsoft/procrpc"
)

var (
	_ procrpc.AuditSink = NoOp{}
	_ procrpc.AuditSink = (*PgSink)(nil)
)

// Entry is one audit record: what was called, by which session, whether it
// failed, how long it took, and when.
type Entry struct {
	Service   string
	Procedure string
	SessionID string
	Failed    bool
	Elapsed   time.Duration
	Time      time.Time
}

// NoOp is an AuditSink that discards every report; it is the default when a
// host does not configure a relational audit store.
type NoOp struct{}

// Report implements procrpc.AuditSink.
func (NoOp) Report(service, procedure, sessionID string, failed bool, elapsed time.Duration) {}
