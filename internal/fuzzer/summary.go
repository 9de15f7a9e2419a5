package fuzzer

import "log/slog"

// LogSummary prints the supplemented end-of-run report (not named by the
// distilled spec, added because every long-lived fuzzing driver in the
// pack's domain — and the teacher's own CLI progress reporting — tells
// the operator what happened before exiting).
func LogSummary(c *Counters) {
	s := c.Snapshot()
	slog.Info("fuzzer: run summary",
		"completed_runs", s.CompletedRuns,
		"ref_crash_count", s.RefCrashes,
		"crash_bug_count", s.CrashBugs,
		"wrong_code_count", s.WrongCode,
	)
}
