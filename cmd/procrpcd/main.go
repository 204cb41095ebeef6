// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Program procrpcd is the reference server binary: it wires the dispatch
// core, a transport listener, and an optional audit sink together into a
// runnable process, per SPEC_FULL.md §4.M. It registers no domain
// services of its own beyond the bootstrap Core service. Run accepts an
// optional Registrar that adds domain procedures; this binary's main passes
// nil.
package main

import (
	"log"
)

func main() {
	if err := Run(nil); err != nil {
		log.Fatalf("procrpcd: %v", err)
	}
}
