package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"smartcook/internal/lint"
	"smartcook/internal/lint/rules"
	"smartcook/internal/watch"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	lintFormat      string
	lintFailOnWarn  bool
	lintNoCache     bool
	lintConcurrency int
	watchDebounce   time.Duration
)

var lintCmd = &cobra.Command{
	Use:   "lint [paths...]",
	Short: "Check API route files for request body schemas",
	Long: `Lints every supported file under the given paths (default: current directory).
Route files under an /api/ directory that export POST, PUT, PATCH or DELETE
handlers must declare the matching PostSchema/PutSchema/PatchSchema/DeleteSchema
and call .parse() or .safeParse().

Exits 1 when errors are found (or warnings, with --fail-on-warn).`,
	RunE: runLint,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-lint files as they change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List available lint rules",
	RunE:  listRules,
}

func init() {
	for _, c := range []*cobra.Command{lintCmd, watchCmd} {
		c.Flags().StringVarP(&lintFormat, "format", "f", "", "Output format: text or json (default from config)")
		c.Flags().BoolVar(&lintNoCache, "no-cache", false, "Do not read or write the result cache")
		c.Flags().IntVarP(&lintConcurrency, "concurrency", "j", 0, "Files linted in parallel (default: number of CPUs)")
	}
	lintCmd.Flags().BoolVar(&lintFailOnWarn, "fail-on-warn", false, "Exit 1 on warnings as well as errors")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before re-linting a file")
}

// newRunner builds a runner from config and flags. The returned cleanup closes the cache.
func newRunner() (*lint.Runner, func(), error) {
	if err := cfg.ValidateLint(); err != nil {
		return nil, nil, err
	}
	l, err := lint.NewLinter(rules.All(), cfg.Lint.Rules)
	if err != nil {
		return nil, nil, err
	}

	var cache *lint.Cache
	cleanup := func() {}
	if !lintNoCache && !cfg.Lint.NoCache {
		cache, err = lint.OpenCache(cfg.Lint.CachePath())
		if err != nil {
			// A broken cache only costs speed.
			logger.Warn("Lint cache unavailable", zap.Error(err))
			cache = nil
		} else {
			cleanup = func() { cache.Close() }
		}
	}

	concurrency := cfg.Lint.Concurrency
	if lintConcurrency > 0 {
		concurrency = lintConcurrency
	}
	r, err := lint.NewRunner(l, cache, lint.RunOptions{
		Include:     cfg.Lint.Include,
		Exclude:     cfg.Lint.Exclude,
		Concurrency: concurrency,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return r, cleanup, nil
}

func outputFormat() string {
	if lintFormat != "" {
		return lintFormat
	}
	return cfg.Lint.Format
}

func runLint(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, cleanup, err := newRunner()
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	summary, err := runner.Run(ctx, args)
	if err != nil {
		return err
	}
	logger.Debug("Lint finished",
		zap.Int("files", summary.FilesScanned),
		zap.Int("errors", summary.ErrorCount),
		zap.Int("warnings", summary.WarningCount),
		zap.Duration("elapsed", time.Since(start)))

	if err := lint.WriteSummary(cmd.OutOrStdout(), summary, outputFormat()); err != nil {
		return err
	}
	if summary.ErrorCount > 0 || (lintFailOnWarn && summary.WarningCount > 0) {
		return errProblems
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	runner, cleanup, err := newRunner()
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	initial, err := runner.Run(ctx, []string{root})
	if err != nil {
		return err
	}
	if err := lint.WriteSummary(out, initial, outputFormat()); err != nil {
		return err
	}

	w, err := watch.New(root, runner, func(ctx context.Context, files []string) {
		summary, err := runner.LintFiles(ctx, files)
		if err != nil {
			logger.Warn("Re-lint failed", zap.Strings("files", files), zap.Error(err))
			return
		}
		fmt.Fprintf(out, "--- %s: %d changed\n", time.Now().Format("15:04:05"), len(files))
		_ = lint.WriteSummary(out, summary, outputFormat())
	}, watch.WithDebounce(watchDebounce))
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	logger.Info("Watching for changes", zap.String("root", root), zap.Int("dirs", len(w.WatchedDirs())))

	<-ctx.Done()
	w.Stop()
	st := w.Stats()
	logger.Info("Watcher stopped",
		zap.Int("batches", st.Batches),
		zap.Int("modified", st.FilesModified),
		zap.Int("errors", st.Errors))
	return nil
}

func listRules(cmd *cobra.Command, args []string) error {
	l, err := lint.NewLinter(rules.All(), cfg.Lint.Rules)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tSEVERITY\tDESCRIPTION")
	for _, r := range rules.All() {
		m := r.Meta()
		sev := string(l.Severity(m.ID))
		if sev == "" {
			sev = "off"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, sev, m.Description)
	}
	return tw.Flush()
}
