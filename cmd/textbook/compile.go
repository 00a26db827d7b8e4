package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-textbook"
	"github.com/alnah/go-textbook/internal/config"
)

// Sentinel errors for the compile command.
var (
	ErrNoInput     = errors.New("no manifest specified")
	ErrWriteOutput = errors.New("failed to write output file")
)

// File permission constants.
const (
	dirPermissions  = 0o750
	filePermissions = 0o644
)

// Compiler is what compileBatch needs from the pool.
type Compiler interface {
	Compile(ctx context.Context, input textbook.Input) (*textbook.Result, error)
	Size() int
}

var _ Compiler = (*textbook.CompilerPool)(nil)

// compileJob is one manifest and where its output goes.
type compileJob struct {
	ManifestPath string
	OutputPath   string // .pdf, or .html with --html-only
}

// CompileResult is the outcome of one manifest.
type CompileResult struct {
	ManifestPath string
	OutputPath   string
	Warnings     []string
	Err          error
	Duration     time.Duration
}

type outputMode struct {
	html     bool
	htmlOnly bool
}

func runCompile(ctx context.Context, args []string, env *Environment) error {
	flags, manifests, err := parseCompileFlags(args)
	if err != nil {
		return err
	}
	if len(manifests) == 0 {
		return ErrNoInput
	}

	cfg, err := loadConfig(flags.common.config, env)
	if err != nil {
		return err
	}
	if flags.timeout != "" {
		d, err := time.ParseDuration(flags.timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: --timeout %q", ErrUsage, flags.timeout)
		}
		cfg.PDF.Timeout = config.Duration(d)
	}
	workers := cfg.PDF.Workers
	if flags.workers > 0 {
		workers = flags.workers
	}

	opts := compilerOptions(cfg)
	if err := checkCompilerOptions(opts); err != nil {
		return withHint(err, cfg)
	}
	pool := textbook.NewCompilerPool(textbook.ResolvePoolSize(workers), opts...)
	defer pool.Close()

	mode := outputMode{html: flags.html, htmlOnly: flags.htmlOnly}
	jobs := planJobs(manifests, flags.output, mode)
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Compiling %d manifest(s) with %d compiler(s)\n", len(jobs), pool.Size())
	}

	results := compileBatch(ctx, pool, jobs, mode)
	for i := range results {
		if results[i].Err != nil {
			results[i].Err = withHint(results[i].Err, cfg)
		}
	}
	if failed := printResults(results, flags.common.quiet, flags.common.verbose, env); failed > 0 {
		for _, r := range results {
			if r.Err != nil {
				return fmt.Errorf("%d of %d compile(s) failed: %w", failed, len(results), r.Err)
			}
		}
	}
	return nil
}

// planJobs decides output paths. With one manifest, -o names the file; with
// several it names a directory. Without -o, output sits next to the manifest.
func planJobs(manifests []string, output string, mode outputMode) []compileJob {
	ext := ".pdf"
	if mode.htmlOnly {
		ext = ".html"
	}
	jobs := make([]compileJob, len(manifests))
	for i, m := range manifests {
		base := strings.TrimSuffix(filepath.Base(m), filepath.Ext(m)) + ext
		var out string
		switch {
		case output == "":
			out = filepath.Join(filepath.Dir(m), base)
		case len(manifests) == 1 && filepath.Ext(output) != "":
			out = output
		default:
			out = filepath.Join(output, base)
		}
		jobs[i] = compileJob{ManifestPath: m, OutputPath: out}
	}
	return jobs
}

// compileBatch compiles every job concurrently, bounded by the pool size.
// One failure does not stop the others.
func compileBatch(ctx context.Context, pool Compiler, jobs []compileJob, mode outputMode) []CompileResult {
	results := make([]CompileResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(pool.Size(), 1))
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = compileOne(gctx, pool, job, mode)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func compileOne(ctx context.Context, pool Compiler, job compileJob, mode outputMode) CompileResult {
	start := time.Now()
	result := CompileResult{ManifestPath: job.ManifestPath, OutputPath: job.OutputPath}
	fail := func(err error) CompileResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	input, err := loadManifest(job.ManifestPath)
	if err != nil {
		return fail(err)
	}
	input.HTMLOnly = mode.htmlOnly

	res, err := pool.Compile(ctx, input)
	if err != nil {
		return fail(err)
	}
	result.Warnings = res.Warnings

	if err := os.MkdirAll(filepath.Dir(job.OutputPath), dirPermissions); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrWriteOutput, err))
	}

	if mode.htmlOnly || mode.html {
		htmlPath := htmlOutputPath(job.OutputPath)
		// #nosec G306 -- HTML output is meant to be readable
		if err := os.WriteFile(htmlPath, []byte(res.HTML), filePermissions); err != nil {
			return fail(fmt.Errorf("%w: %v", ErrWriteOutput, err))
		}
		if mode.htmlOnly {
			result.OutputPath = htmlPath
			result.Duration = time.Since(start)
			return result
		}
	}

	// #nosec G306 -- PDFs are meant to be readable
	if err := os.WriteFile(job.OutputPath, res.PDF, filePermissions); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrWriteOutput, err))
	}
	result.Duration = time.Since(start)
	return result
}

// htmlOutputPath swaps a .pdf extension for .html.
func htmlOutputPath(out string) string {
	if strings.EqualFold(filepath.Ext(out), ".html") {
		return out
	}
	return strings.TrimSuffix(out, filepath.Ext(out)) + ".html"
}

// printResults reports each result and returns the number of failures.
func printResults(results []CompileResult, quiet, verbose bool, env *Environment) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.ManifestPath, r.Err)
			continue
		}
		for _, w := range r.Warnings {
			fmt.Fprintf(env.Stderr, "WARNING %s: %s\n", r.ManifestPath, w)
		}
		if quiet {
			continue
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.ManifestPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}
	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}
	return failed
}
