package lint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"smartcook/internal/logging"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// RunOptions control file collection and scheduling.
type RunOptions struct {
	Include     []string
	Exclude     []string
	Concurrency int
}

// Runner lints sets of files concurrently, consulting an optional cache.
type Runner struct {
	linter *Linter
	cache  *Cache
	opts   RunOptions
}

// NewRunner creates a runner. cache may be nil.
func NewRunner(l *Linter, cache *Cache, opts RunOptions) (*Runner, error) {
	for _, p := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern: %s", p)
		}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	return &Runner{linter: l, cache: cache, opts: opts}, nil
}

// Collect expands paths into the sorted list of files to lint. Directories are walked
// and filtered through the include/exclude globs (matched against the slash path
// relative to the directory); files named explicitly are kept if their extension is
// supported and they are not excluded.
func (r *Runner) Collect(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			if supported(root) && !r.excluded(filepath.ToSlash(root)) {
				files = append(files, filepath.Clean(root))
			}
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}
			if d.IsDir() {
				if r.SkipDir(root, path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !r.Accepts(root, path) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	files = lo.Uniq(files)
	sort.Strings(files)
	return files, nil
}

func (r *Runner) included(rel string) bool {
	if len(r.opts.Include) == 0 {
		return true
	}
	return lo.SomeBy(r.opts.Include, func(p string) bool {
		ok, _ := doublestar.Match(p, rel)
		return ok
	})
}

func (r *Runner) excluded(rel string) bool {
	return lo.SomeBy(r.opts.Exclude, func(p string) bool {
		ok, _ := doublestar.Match(p, rel)
		return ok
	})
}

// Accepts reports whether Collect(root) would pick up path.
func (r *Runner) Accepts(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	return supported(path) && !r.excluded(rel) && r.included(rel)
}

// SkipDir reports whether Collect(root) would prune dir.
func (r *Runner) SkipDir(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return false
	}
	return r.excluded(filepath.ToSlash(rel) + "/_")
}

func supported(path string) bool {
	return lo.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// Run collects and lints paths.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	files, err := r.Collect(paths)
	if err != nil {
		return nil, err
	}
	return r.LintFiles(ctx, files)
}

// LintFiles lints an explicit list of files. Results keep the order of files.
func (r *Runner) LintFiles(ctx context.Context, files []string) (*Summary, error) {
	timer := logging.StartTimer(logging.CategoryLint, "LintFiles")
	defer timer.Stop()

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, f := range files {
		g.Go(func() error {
			fr, err := r.lintOne(gctx, f)
			if err != nil {
				return err
			}
			results[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{}
	cached := 0
	for _, fr := range results {
		if fr.Cached {
			cached++
		}
		summary.Add(fr)
	}
	logging.Lint("Linted %d files (%d cached): %d errors, %d warnings",
		summary.FilesScanned, cached, summary.ErrorCount, summary.WarningCount)
	return summary, nil
}

func (r *Runner) lintOne(ctx context.Context, file string) (FileResult, error) {
	if err := ctx.Err(); err != nil {
		return FileResult{}, err
	}

	src, err := os.ReadFile(file)
	if err != nil {
		return FileResult{}, fmt.Errorf("read %s: %w", file, err)
	}

	// Rules filter on the absolute path so the result does not depend on the
	// directory the linter was started from.
	abs, err := filepath.Abs(file)
	if err != nil {
		abs = file
	}
	abs = filepath.ToSlash(abs)

	var key string
	if r.cache != nil {
		key = Key(r.linter.Fingerprint(), abs, src)
		if diags, ok, err := r.cache.Get(key); err != nil {
			logging.Get(logging.CategoryCache).Warn("Lint cache read failed for %s: %v", file, err)
		} else if ok {
			return FileResult{File: file, Diagnostics: relabel(diags, file), Cached: true}, nil
		}
	}

	diags, err := r.linter.LintSource(ctx, abs, src)
	if err != nil {
		return FileResult{}, err
	}
	diags = relabel(diags, file)

	if r.cache != nil {
		if err := r.cache.Put(key, abs, diags); err != nil {
			logging.Get(logging.CategoryCache).Warn("Lint cache write failed for %s: %v", file, err)
		}
	}
	logging.LintDebug("%s: %d diagnostics", file, len(diags))
	return FileResult{File: file, Diagnostics: diags}, nil
}

func relabel(diags []Diagnostic, file string) []Diagnostic {
	for i := range diags {
		diags[i].File = file
	}
	return diags
}
