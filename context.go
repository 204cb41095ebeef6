// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package procrpc

// An ActivityContext is a host-supplied mode that gates which procedures
// may legally run, such as "the player is in flight" versus "the player is
// viewing the map". The core never interprets the value beyond equality: it
// is supplied by the host and consulted only against a signature's
// RequiredContext.
type ActivityContext string

// ContextProvider supplies the ambient ActivityContext at the moment a
// request is dispatched. Hosts implement this to report whatever mode their
// simulation is currently in.
type ContextProvider interface {
	ActivityContext() ActivityContext
}

// ContextProviderFunc adapts a plain function to a ContextProvider.
type ContextProviderFunc func() ActivityContext

// ActivityContext calls f.
func (f ContextProviderFunc) ActivityContext() ActivityContext { return f() }

// AnyContext is the empty RequiredContext set: a signature that requires
// AnyContext is legal to invoke regardless of the ambient context.
var AnyContext = []ActivityContext{}

// contextSatisfied reports whether ambient satisfies one of required. An
// empty required set means "any context is acceptable".
func contextSatisfied(required []ActivityContext, ambient ActivityContext) bool {
	if len(required) == 0 {
		return true
	}
	for _, c := range required {
		if c == ambient {
			return true
		}
	}
	return false
}
