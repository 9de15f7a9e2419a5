package fuzzer

import "sync/atomic"

// Counters is the shared state of spec §5(a): four atomic counters, no
// locking required since each is only ever incremented.
type Counters struct {
	CompletedRuns atomic.Int64
	RefCrashes    atomic.Int64
	CrashBugs     atomic.Int64
	WrongCode     atomic.Int64
}

// Snapshot is a point-in-time copy of Counters for reporting (the monitor
// endpoint and the run summary never want to hold a reference into the
// live atomics).
type Snapshot struct {
	CompletedRuns int64 `json:"completed_runs"`
	RefCrashes    int64 `json:"ref_crash_count"`
	CrashBugs     int64 `json:"crash_bug_count"`
	WrongCode     int64 `json:"wrong_code_count"`
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		CompletedRuns: c.CompletedRuns.Load(),
		RefCrashes:    c.RefCrashes.Load(),
		CrashBugs:     c.CrashBugs.Load(),
		WrongCode:     c.WrongCode.Load(),
	}
}
