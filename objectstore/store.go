// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package objectstore implements the process-wide handle table that lets
// host objects cross the RPC boundary as opaque 64-bit handles.
//
// A zero-valued Store is not ready for use; construct one with New. All
// methods are safe for concurrent use, though the core dispatcher only ever
// calls them from the single host tick goroutine (see the top-level
// package's concurrency notes).
package objectstore

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// NullHandle is the reserved handle value that denotes a null reference.
const NullHandle uint64 = 0

// defaultSessionCapacity bounds the number of distinct client IDs whose
// tracked handle sets are retained for bulk release on disconnect. A client
// evicted from this side table for capacity reasons is not harmed: its
// handles simply linger until removed some other way, exactly as a client
// that never had per-client tracking enabled at all.
const defaultSessionCapacity = 4096

// ErrUnknownHandle is returned by Get when a non-zero handle is not present
// in the store.
type ErrUnknownHandle uint64

func (e ErrUnknownHandle) Error() string { return fmt.Sprintf("unknown handle %d", uint64(e)) }

// A Store is a bijection between 64-bit handles and host objects, plus
// optional per-client tracking of which handles a client has been handed, so
// that a disconnecting client's exclusively-referenced objects can be
// released.
//
// Object identity is host object identity (Go `==` on the stored value), not
// structural equality: callers should store objects behind a pointer (or
// other naturally comparable identity, such as an integer ID) so that two
// calls to Add with what should be "the same" object are recognized as such.
// Passing a non-comparable value (a slice, map, or function) to Add panics,
// exactly as inserting one into a Go map key position would.
type Store struct {
	mu       sync.Mutex
	next     uint64
	identity map[any]uint64
	objects  map[uint64]any

	// owners[handle] is the set of client IDs that currently hold a
	// reference to handle, as reported via Track. It is only populated for
	// handles that have been Tracked at least once; untracked handles live
	// until explicitly Removed. This map is the source of truth for
	// exclusivity: it is never capacity-bounded, since it can grow no larger
	// than the live handle set itself.
	owners map[uint64]map[string]bool

	// byClient is a bounded LRU from client ID to the set of handles it has
	// been Tracked as holding, used to make ResetClient an O(|client's
	// handles|) operation instead of a scan of every live handle. Losing an
	// entry to capacity eviction only forfeits bulk release for that client;
	// it never removes a handle from owners or objects.
	byClient *lru.Cache
}

// New constructs an empty Store whose client-tracking side table holds up
// to defaultSessionCapacity distinct client IDs.
func New() *Store {
	s, err := NewWithCapacity(defaultSessionCapacity)
	if err != nil {
		// Only returns an error for a non-positive size, which the constant
		// above never supplies.
		panic(err)
	}
	return s
}

// NewWithCapacity is as New, but with an explicit bound on the number of
// distinct client IDs tracked for bulk release.
func NewWithCapacity(capacity int) (*Store, error) {
	byClient, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("objectstore: %w", err)
	}
	return &Store{
		identity: make(map[any]uint64),
		objects:  make(map[uint64]any),
		owners:   make(map[uint64]map[string]bool),
		byClient: byClient,
	}, nil
}

// Add assigns obj a handle, or returns its existing handle if obj was
// already added. The zero value is never returned by Add.
func (s *Store) Add(obj any) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(obj)
}

func (s *Store) addLocked(obj any) uint64 {
	if h, ok := s.identity[obj]; ok {
		return h
	}
	s.next++
	h := s.next
	s.identity[obj] = h
	s.objects[h] = obj
	return h
}

// Get resolves handle to its host object. Get(NullHandle) always fails: null
// handles must be checked for by the caller before calling Get, exactly as
// spec.md requires ("store.get(0) is an error").
func (s *Store) Get(handle uint64) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if handle == NullHandle {
		return nil, ErrUnknownHandle(handle)
	}
	obj, ok := s.objects[handle]
	if !ok {
		return nil, ErrUnknownHandle(handle)
	}
	return obj, nil
}

// Remove discards handle unconditionally. It is idempotent: removing an
// unknown or already-removed handle is not an error.
func (s *Store) Remove(handle uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(handle)
}

func (s *Store) removeLocked(handle uint64) {
	if obj, ok := s.objects[handle]; ok {
		delete(s.identity, obj)
	}
	delete(s.objects, handle)
	delete(s.owners, handle)
}

// Len reports the number of live handles in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Track records that clientID has been handed handle, typically because it
// appeared in a Response's return value or an out-argument. Tracking is
// optional bookkeeping used by ResetClient; it is legal to Get and Remove
// handles that were never Tracked.
func (s *Store) Track(clientID string, handle uint64) {
	if handle == NullHandle || clientID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[handle]; !ok {
		return // nothing to track; the handle isn't live
	}

	owners, ok := s.owners[handle]
	if !ok {
		owners = make(map[string]bool, 1)
		s.owners[handle] = owners
	}
	owners[clientID] = true

	var handles map[uint64]bool
	if v, ok := s.byClient.Get(clientID); ok {
		handles = v.(map[uint64]bool)
	} else {
		handles = make(map[uint64]bool, 1)
	}
	handles[handle] = true
	s.byClient.Add(clientID, handles)
}

// ResetClient releases every handle tracked exclusively for clientID (i.e.
// handles that no other client has been tracked as holding), and drops
// clientID's tracking claim on every other handle it referenced.
//
// ResetClient is idempotent and is a no-op for a clientID that was never
// tracked, including one whose tracking entry was since evicted from the
// bounded side table.
func (s *Store) ResetClient(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.byClient.Get(clientID)
	if !ok {
		return
	}
	s.byClient.Remove(clientID)

	for handle := range v.(map[uint64]bool) {
		owners, ok := s.owners[handle]
		if !ok {
			continue
		}
		delete(owners, clientID)
		if len(owners) == 0 {
			s.removeLocked(handle)
		}
	}
}
