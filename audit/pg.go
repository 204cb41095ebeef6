// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creachadair/taskgroup"
)

const logPrefix = "audit:pg"

// execer is the slice of *pgxpool.Pool that PgSink needs, extracted so
// tests can substitute a fake in place of a live database.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgSink persists audit entries to a relational store. Report never blocks
// the caller: entries are handed to a bounded pool of background workers
// over a buffered channel, and a full channel simply drops the entry (with
// a logged warning) rather than apply backpressure to the host tick
// thread, per SPEC_FULL.md §4.K.
type PgSink struct {
	db      execer
	entries chan Entry
	group   *taskgroup.Group
}

// NewPgSink starts workers background goroutines, each pulling from a
// shared bounded queue of pending entries and inserting them into the
// audit_log table. Call Close to stop accepting new entries and wait for
// queued ones to drain.
func NewPgSink(pool *pgxpool.Pool, workers int) *PgSink {
	return newPgSink(pool, workers)
}

func newPgSink(db execer, workers int) *PgSink {
	if workers < 1 {
		workers = 1
	}
	s := &PgSink{db: db, entries: make(chan Entry, 4096)}
	s.group = taskgroup.New(nil)
	for i := 0; i < workers; i++ {
		s.group.Go(s.drain)
	}
	return s
}

// Report implements procrpc.AuditSink.
func (s *PgSink) Report(service, procedure, sessionID string, failed bool, elapsed time.Duration) {
	e := Entry{
		Service:   service,
		Procedure: procedure,
		SessionID: sessionID,
		Failed:    failed,
		Elapsed:   elapsed,
		Time:      time.Now().UTC(),
	}
	select {
	case s.entries <- e:
	default:
		slog.Warn(fmt.Sprintf("%s - queue full, dropping audit entry for %s.%s", logPrefix, service, procedure))
	}
}

// Close stops accepting new entries and waits for queued entries to drain.
func (s *PgSink) Close() error {
	close(s.entries)
	s.group.Wait()
	return nil
}

func (s *PgSink) drain() error {
	for e := range s.entries {
		s.insert(e)
	}
	return nil
}

func (s *PgSink) insert(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_log (service, procedure, session_id, failed, elapsed_ms, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.Service, e.Procedure, e.SessionID, e.Failed, e.Elapsed.Milliseconds(), e.Time,
	)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - insert failed for %s.%s: %v", logPrefix, e.Service, e.Procedure, err))
	}
}
