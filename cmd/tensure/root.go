// Command tensure drives the fuzzing engine from the CLI, the way the
// teacher's cmd.NewCLI builds ollama's root command: flags registered in
// a constructor function, a single RunE closure that also installs the
// signal handling, and exit codes left to main via cobra.CheckErr (spec
// §6).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tensure-fuzz/tensure/internal/backend"
	"github.com/tensure-fuzz/tensure/internal/fuzzcfg"
	"github.com/tensure-fuzz/tensure/internal/fuzzer"
	"github.com/tensure-fuzz/tensure/internal/fuzzlog"
	"github.com/tensure-fuzz/tensure/internal/tensorfile"
)

// NewCLI builds the root "tensure" command and its flags (spec §6).
func NewCLI() *cobra.Command {
	var (
		backendPath  string
		timeoutMS    int
		tensorFormat string
		configPath   string
		monitorAddr  string
	)

	root := &cobra.Command{
		Use:           "tensure",
		Short:         "Differential and metamorphic fuzzer for tensor-computation compilers",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runArgs{
				backendPath:    backendPath,
				timeoutMS:      timeoutMS,
				timeoutChanged: cmd.Flags().Changed("timeout"),
				fmtChanged:     cmd.Flags().Changed("tensor-format") || cmd.Flags().Changed("tfmt"),
				tensorFormat:   tensorFormat,
				configPath:     configPath,
				monitorAddr:    monitorAddr,
			})
		},
	}

	root.Flags().StringVarP(&backendPath, "backend", "b", "", "path to the backend plugin (falls back to BACKEND_LIB)")
	root.Flags().IntVar(&timeoutMS, "timeout", 30000, "initial execution timeout in milliseconds")
	root.Flags().StringVar(&tensorFormat, "tensor-format", "tns", "tensor data file format: tns or ttx")
	root.Flags().StringVar(&tensorFormat, "tfmt", "tns", "alias for --tensor-format")
	root.Flags().StringVar(&configPath, "config", "", "optional YAML config file layering defaults under env/flags")
	root.Flags().StringVar(&monitorAddr, "monitor-addr", "", "address to serve GET /stats and /healthz on (disabled if empty)")

	return root
}

type runArgs struct {
	backendPath    string
	timeoutMS      int
	timeoutChanged bool
	fmtChanged     bool
	tensorFormat   string
	configPath     string
	monitorAddr    string
}

// run wires fuzzcfg/fuzzlog/backend/fuzzer together and blocks until
// max_iterations jobs complete or a termination signal arrives (spec §6,
// §4.8 "Termination").
func run(parent context.Context, args runArgs) error {
	var fileCfg *fuzzcfg.FileConfig
	if args.configPath != "" {
		loaded, err := fuzzcfg.LoadFileConfig(args.configPath)
		if err != nil {
			return err
		}
		fileCfg = loaded
	}

	logFormat, debug := fuzzcfg.LogFormat(), fuzzcfg.Debug()
	if fileCfg != nil && os.Getenv("FUZZ_LOG_FORMAT") == "" && fileCfg.Logging.Format != "" {
		logFormat = fileCfg.Logging.Format
	}
	if fileCfg != nil && os.Getenv("FUZZ_DEBUG") == "" {
		debug = fileCfg.Logging.Debug
	}
	fuzzlog.Init(logFormat, debug)

	backendPath := args.backendPath
	if backendPath == "" && fileCfg != nil && os.Getenv("BACKEND_LIB") == "" {
		backendPath = fileCfg.Backend.Path
	}
	factory, err := backend.LoadFromEnv(backendPath)
	if err != nil {
		return fmt.Errorf("tensure: %w", err)
	}
	defer factory.Close()

	be, err := factory.NewBackend()
	if err != nil {
		return fmt.Errorf("tensure: construct backend: %w", err)
	}

	format, err := tensorfile.ParseFormat(resolveTensorFormat(args, fileCfg))
	if err != nil {
		slog.Warn("tensure: unsupported tensor format, keeping default", "error", err)
		format = tensorfile.TNS
	}

	// Precedence is file defaults, then environment, then flags (spec
	// AMBIENT STACK "Configuration"): start from the file's value (if any)
	// and let fuzzcfg's getter override it only when the variable is
	// actually set, rather than always trusting fuzzcfg's hardcoded
	// fallback over a file value that was explicitly given. The timeout
	// flag can't use that same "is the env var set" test, so it tracks
	// whether --timeout was actually passed via cmd.Flags().Changed,
	// rather than comparing against the flag's own default value.
	seed := int64(42)
	if fileCfg != nil && fileCfg.Run.Seed != 0 {
		seed = fileCfg.Run.Seed
	}
	if os.Getenv("FUZZ_SEED") != "" {
		seed = fuzzcfg.Seed()
	}

	iterations := 1000
	if fileCfg != nil && fileCfg.Run.Iterations != 0 {
		iterations = fileCfg.Run.Iterations
	}
	if os.Getenv("FUZZ_ITERS") != "" {
		iterations = fuzzcfg.Iterations()
	}

	outputDir := "fuzz_output"
	if fileCfg != nil && fileCfg.Run.OutputDir != "" {
		outputDir = fileCfg.Run.OutputDir
	}
	if os.Getenv("FUZZ_OUTPUT_DIR") != "" {
		outputDir = fuzzcfg.OutputDir()
	}

	timeout := 30000 * time.Millisecond
	if fileCfg != nil && fileCfg.Backend.TimeoutMS != 0 {
		timeout = time.Duration(fileCfg.Backend.TimeoutMS) * time.Millisecond
	}
	if args.timeoutChanged {
		timeout = time.Duration(args.timeoutMS) * time.Millisecond
	}

	cfg := fuzzer.JobConfig{
		BaseSeed:       seed,
		OutputDir:      outputDir,
		Backend:        be,
		InitialTimeout: timeout,
		TimeoutStep:    4000 * time.Millisecond,
		MaxMutants:     10,
		Format:         format,
		KeepCleanIters: fuzzcfg.KeepClean(),
	}

	sched := fuzzer.NewScheduler(iterations, cfg)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if args.monitorAddr != "" {
		monitor := fuzzer.NewMonitor(args.monitorAddr, sched.Counters)
		go func() {
			if err := monitor.Serve(ctx); err != nil {
				_, _ = fmt.Fprintln(os.Stderr, "tensure: monitor:", err)
			}
		}()
	}

	sched.Run(ctx)
	fuzzer.LogSummary(sched.Counters)
	return nil
}

func resolveTensorFormat(args runArgs, fileCfg *fuzzcfg.FileConfig) string {
	if args.fmtChanged {
		return args.tensorFormat
	}
	if fileCfg != nil && fileCfg.Tensor.Format != "" {
		return fileCfg.Tensor.Format
	}
	return args.tensorFormat
}
