// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type fakeExecer struct {
	mu    sync.Mutex
	calls []string
	block chan struct{}
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls = append(f.calls, sql)
	f.mu.Unlock()
	return pgconn.CommandTag{}, nil
}

func (f *fakeExecer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestNoOpDoesNothing(t *testing.T) {
	var s NoOp
	s.Report("Vessel", "Stage", "session-1", false, time.Millisecond)
}

func TestPgSinkReportsInsertEntry(t *testing.T) {
	fake := &fakeExecer{}
	sink := newPgSink(fake, 2)
	sink.Report("Vessel", "Stage", "session-1", false, 5*time.Millisecond)
	sink.Report("Vessel", "GetAltitude", "session-1", true, time.Millisecond)
	sink.Close()

	if got := fake.count(); got != 2 {
		t.Fatalf("got %d inserts, want 2", got)
	}
}

func TestPgSinkReportDoesNotBlockWhenQueueFull(t *testing.T) {
	fake := &fakeExecer{block: make(chan struct{})}
	sink := &PgSink{db: fake, entries: make(chan Entry, 1)}
	sink.entries <- Entry{Service: "filler"}

	done := make(chan struct{})
	go func() {
		sink.Report("Vessel", "Stage", "session-1", false, time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Report blocked with a full queue")
	}
	close(fake.block)
}
