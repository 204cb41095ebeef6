// Copyright (C) 2022 Michael J. Fromberger. All Rights Reserved.

package procrpc

import "expvar"

// dispatchMetrics record dispatcher and scheduler activity counters.
type dispatchMetrics struct {
	requestsIn     expvar.Int // total requests submitted
	requestsFailed expvar.Int // requests that finalized with a non-empty error
	requestsOK     expvar.Int // requests that finalized successfully
	yields         expvar.Int // number of Yield outcomes observed across all ticks
	ticks          expvar.Int // number of Scheduler.Tick calls
	clientsDropped expvar.Int // number of Scheduler.DropClient calls

	emap *expvar.Map
}

var rootMetrics = newDispatchMetrics()

func newDispatchMetrics() *dispatchMetrics {
	dm := &dispatchMetrics{emap: new(expvar.Map)}
	dm.emap.Set("requests_in", &dm.requestsIn)
	dm.emap.Set("requests_failed", &dm.requestsFailed)
	dm.emap.Set("requests_ok", &dm.requestsOK)
	dm.emap.Set("yields", &dm.yields)
	dm.emap.Set("ticks", &dm.ticks)
	dm.emap.Set("clients_dropped", &dm.clientsDropped)
	return dm
}

// Metrics returns the expvar.Map of process-wide dispatch counters.
func Metrics() *expvar.Map { return rootMetrics.emap }
