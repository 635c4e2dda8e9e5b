package pipeline

import (
	"context"
	"fmt"
	"go/token"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"automap-generator/internal/analyze"
	"automap-generator/internal/config"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/gen"
	"automap-generator/internal/model"
	"automap-generator/internal/plan"
	"automap-generator/internal/scan"
)

// Options configures one Run.
type Options struct {
	Config *config.Config
	// Dir is the working directory for package loading; empty means the
	// current one.
	Dir string
	// Loader overrides the go/packages loader.
	Loader analyze.Loader
	// Sink overrides where files go. Without it files are written to disk,
	// or kept in memory on a dry run.
	Sink gen.Sink
	// Dump receives a dump of the scanned mapping models when set.
	Dump   io.Writer
	Logger *slog.Logger
}

// Result is the outcome of a Run.
type Result struct {
	Module      *Module
	Models      []model.MapperModel
	Plan        *plan.ResolvedMappingPlan
	Files       []gen.GeneratedFile
	Diagnostics diagnostic.Diagnostics
	// Strict is copied from the configuration.
	Strict bool
}

// Failed reports whether the run produced errors, or warnings in strict mode.
func (r *Result) Failed() bool {
	return r.Diagnostics.HasErrors() || (r.Strict && len(r.Diagnostics.Warnings) > 0)
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Run executes one generation pass. Configuration problems end up in the
// result's diagnostics; the returned error is reserved for failures of the
// pass itself.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res := &Result{Strict: cfg.Strict}

	res.Diagnostics = config.Validate(cfg)
	if res.Diagnostics.HasErrors() {
		return res, nil
	}

	sink := opts.Sink
	if sink == nil && !cfg.DryRun {
		mod, err := FindModule(dirOrCurrent(opts.Dir))
		if err != nil {
			return nil, err
		}

		res.Module = mod
		sink = gen.FileSink{}

		if mod != nil {
			logger.InfoContext(ctx, "generating", "module", mod.Path, "root", mod.Root, "packages", cfg.Patterns)
		}
	}

	if sink == nil {
		sink = &gen.MemorySink{}
	}

	loader := opts.Loader
	if loader == nil {
		loader = &analyze.PackagesLoader{
			Dir:           opts.Dir,
			BuildFlags:    cfg.BuildFlags(),
			BaseFile:      cfg.Output.BaseFile,
			GeneratedFile: cfg.Output.File,
			Logger:        logger,
		}
	}

	prog, err := loader.Load(ctx, cfg.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	scanner := &scan.Scanner{Parallel: parallelism(cfg.Parallel), Logger: logger}

	b, diags, err := scanner.ScanProgram(ctx, prog)
	if err != nil {
		return nil, err
	}

	res.Diagnostics.Merge(diags)
	res.Models = b.Models()
	logger.DebugContext(ctx, "scanned", "units", len(prog.Units), "mappers", len(res.Models))

	if len(res.Models) == 0 {
		res.Diagnostics.AddInfo(token.Position{}, diagnostic.CodeNoMappers,
			"no mapper types found in "+strings.Join(cfg.Patterns, " "), "", "")
	}

	if opts.Dump != nil {
		dumpConfig.Fdump(opts.Dump, res.Models)
	}

	res.Plan = plan.NewResolver(prog).Resolve(res.Models)
	res.Diagnostics.Merge(res.Plan.Diagnostics)

	g := gen.NewGenerator(prog, gen.GeneratorConfig{
		OutputFile:       cfg.Output.File,
		BaseFile:         cfg.Output.BaseFile,
		EmitBase:         cfg.ShouldEmitBase(),
		SourceParam:      cfg.Params.Source,
		ContextParam:     cfg.Params.Context,
		DebugUnformatted: cfg.Output.DebugUnformatted,
		Logger:           logger,
	})

	files, genDiags, err := g.Generate(ctx, res.Plan)
	if err != nil {
		return nil, fmt.Errorf("generating: %w", err)
	}

	res.Diagnostics.Merge(genDiags)
	res.Files = res.keepInModule(files)

	if err := gen.WriteFiles(ctx, sink, res.Files); err != nil {
		return nil, err
	}

	for _, f := range res.Files {
		logger.InfoContext(ctx, "wrote file", "path", f.Path(), "dry_run", cfg.DryRun)
	}

	return res, nil
}

// keepInModule drops files that would land outside the main module, such as
// mapper types found in the module cache.
func (r *Result) keepInModule(files []gen.GeneratedFile) []gen.GeneratedFile {
	if r.Module == nil {
		return files
	}

	kept := files[:0]

	for _, f := range files {
		if !r.Module.Contains(f.Dir) {
			r.Diagnostics.AddError(token.Position{}, diagnostic.CodeOutsideModule,
				fmt.Sprintf("not writing %s: %s is outside module %s", f.Filename, f.Dir, r.Module.Path), "", "")

			continue
		}

		kept = append(kept, f)
	}

	return kept
}

func parallelism(n int) int {
	if n == 0 {
		return runtime.NumCPU()
	}

	return n
}

func dirOrCurrent(dir string) string {
	if dir == "" {
		return "."
	}

	return dir
}
