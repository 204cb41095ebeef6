// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package procrpc

import (
	"fmt"
	"sort"
	"sync"
)

// A ServiceDescriptor bundles the procedures and class identities owned by
// one named service. How a descriptor is produced — reflection, code
// generation, or a handwritten builder — is a concern of its producer, not
// of the Registry; see package service for a fluent builder and a
// reflection-based convenience wrapper.
type ServiceDescriptor struct {
	Name       string
	Procedures []*ProcedureSignature
	Classes    []string
}

// A Registry collects ServiceDescriptors at startup and exposes a flat
// lookup from (service, procedure) name pairs to the signature that
// answers them.
//
// A Registry is safe for concurrent Lookup once Register calls have
// finished; Register itself is expected to run during single-threaded
// startup (mirroring the Catalog's own "not safe for concurrent Set" usage
// note), so it takes a lock defensively but offers no atomicity across
// multiple Register calls.
type Registry struct {
	mu   sync.RWMutex
	sigs map[string]*ProcedureSignature
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sigs: make(map[string]*ProcedureSignature)}
}

// Register ingests desc, validating every signature's parameter list and
// rejecting duplicate fully-qualified names. Registration errors are
// intended to be fatal at startup; none of them are returned to a wire
// client.
func (r *Registry) Register(desc *ServiceDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sig := range desc.Procedures {
		sig.Service = desc.Name
		if err := sig.validateOptionalSuffix(); err != nil {
			return err
		}
		fqn := sig.FullyQualifiedName()
		if _, exists := r.sigs[fqn]; exists {
			return fmt.Errorf("duplicate procedure name %q", fqn)
		}
		r.sigs[fqn] = sig
	}
	return nil
}

// Lookup resolves (service, procedure) to its signature.
func (r *Registry) Lookup(service, procedure string) (*ProcedureSignature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fqn := service + "." + procedure
	sig, ok := r.sigs[fqn]
	if !ok {
		if !r.hasServiceLocked(service) {
			return nil, Errorf(UnknownService, "%s", service)
		}
		return nil, Errorf(UnknownProcedure, "%s", fqn)
	}
	return sig, nil
}

func (r *Registry) hasServiceLocked(service string) bool {
	prefix := service + "."
	for fqn := range r.sigs {
		if len(fqn) > len(prefix) && fqn[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// Services lists the distinct service names currently registered, in
// lexicographic order.
func (r *Registry) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, sig := range r.sigs {
		seen[sig.Service] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Procedures lists the signatures registered for service, in lexicographic
// order of procedure name.
func (r *Registry) Procedures(service string) []*ProcedureSignature {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*ProcedureSignature
	for _, sig := range r.sigs {
		if sig.Service == service {
			out = append(out, sig)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Procedure < out[j].Procedure })
	return out
}
