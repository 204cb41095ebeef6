// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package facade

import uuid "github.com/satori/go.uuid"

// NewSessionID mints a fresh opaque session identifier for a newly accepted
// transport connection, per spec.md §4.G's note that the façade assigns
// each connection an identifier threaded through to the Session Tracker
// (package session) and Dispatch Audit Sink, but never interpreted by the
// dispatcher itself.
func NewSessionID() string {
	return uuid.NewV4().String()
}
