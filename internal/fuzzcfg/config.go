// Package fuzzcfg holds the process-wide configuration surface of spec
// §6, read from the environment with CLI-flag overrides layered on top by
// cmd/tensure. Grounded in the teacher's envconfig package's concern —
// bespoke os.Getenv parsing with parse-or-default fallbacks (clean() and
// LoadConfig() in envconfig/config.go), never a struct decoded via
// reflection — narrowed to one getter function per variable since this
// package has far fewer settings and no cached package-level state to
// refresh.
package fuzzcfg

import (
	"log/slog"
	"os"
	"strconv"
)

// Seed returns FUZZ_SEED, defaulting to 42 (spec §6).
func Seed() int64 {
	return envInt64("FUZZ_SEED", 42)
}

// Iterations returns FUZZ_ITERS, defaulting to 1000 (spec §6).
func Iterations() int {
	return int(envInt64("FUZZ_ITERS", 1000))
}

// BackendLib returns BACKEND_LIB, the fallback for --backend (spec §6).
func BackendLib() string {
	return os.Getenv("BACKEND_LIB")
}

// Debug returns FUZZ_DEBUG, gating slog.LevelDebug in fuzzlog.Init.
func Debug() bool {
	return envBool("FUZZ_DEBUG", false)
}

// LogFormat returns FUZZ_LOG_FORMAT ("text" or "json"), defaulting to
// "text".
func LogFormat() string {
	if v := os.Getenv("FUZZ_LOG_FORMAT"); v != "" {
		return v
	}
	return "text"
}

// OutputDir returns FUZZ_OUTPUT_DIR, defaulting to "fuzz_output" (spec
// §6's on-disk layout root).
func OutputDir() string {
	if v := os.Getenv("FUZZ_OUTPUT_DIR"); v != "" {
		return v
	}
	return "fuzz_output"
}

// KeepClean returns FUZZ_KEEP_CLEAN: when true, clean (no-bug) iteration
// directories are retained instead of removed (spec §4.8 step 8's
// "policy").
func KeepClean() bool {
	return envBool("FUZZ_KEEP_CLEAN", false)
}

func envInt64(name string, def int64) int64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("fuzzcfg: invalid integer, using default", "var", name, "value", v, "default", def)
		return def
	}
	return n
}

func envBool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("fuzzcfg: invalid boolean, using default", "var", name, "value", v, "default", def)
		return def
	}
	return b
}
