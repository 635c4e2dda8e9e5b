// Command automapgen generates mapping methods for mapper types configured
// with CreateMap and ForMember calls.
//
// Usage:
//
//	automapgen [flags] [packages]
//
// It is typically run through go generate:
//
//	//go:generate go run automap-generator/cmd/automapgen .
//
// Settings are read from automap.yaml when present; flags override them.
// With -init the merged settings are written to a new automap.yaml instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"automap-generator/internal/config"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/pipeline"
)

const defaultConfigFile = "automap.yaml"

type options struct {
	configPath string
	dir        string
	tags       string
	output     string
	baseFile   string
	noBase     bool
	parallel   int
	dryRun     bool
	strict     bool
	dump       bool
	init       bool
	level      slog.Level
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("automapgen", flag.ContinueOnError)
	fset.SetOutput(stderr)

	var opts options

	fset.StringVar(&opts.configPath, "config", "", "path to the config file (default ./"+defaultConfigFile+" when present)")
	fset.StringVar(&opts.dir, "C", "", "run as if started in `dir`")
	fset.StringVar(&opts.tags, "tags", "", "comma-separated build tags used when loading packages")
	fset.StringVar(&opts.output, "output", "", "name of the generated file")
	fset.StringVar(&opts.baseFile, "base", "", "name of the base definitions file")
	fset.BoolVar(&opts.noBase, "no-base", false, "do not write the base definitions file")
	fset.IntVar(&opts.parallel, "parallel", -1, "packages scanned concurrently (0 = one per CPU)")
	fset.BoolVar(&opts.dryRun, "dry-run", false, "print generated files instead of writing them")
	fset.BoolVar(&opts.strict, "strict", false, "treat warnings as errors")
	fset.BoolVar(&opts.dump, "dump", false, "dump the scanned mapping models to stderr")
	fset.BoolVar(&opts.init, "init", false, "write the effective settings to "+defaultConfigFile+" and exit")
	fset.TextVar(&opts.level, "log-level", slog.LevelWarn, "log level (debug, info, warn, error)")

	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: opts.level}))

	cfg, err := loadConfig(opts)
	if err != nil {
		logger.ErrorContext(ctx, "config", "error", err)
		return 1
	}

	opts.apply(cfg, fset.Args())

	if opts.init {
		return initConfig(ctx, logger, stderr, cfg, opts.configFile())
	}

	pipeOpts := pipeline.Options{Config: cfg, Dir: opts.dir, Logger: logger}
	if opts.dump {
		pipeOpts.Dump = stderr
	}

	res, err := pipeline.Run(ctx, pipeOpts)
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", "error", err)
		return 1
	}

	printDiagnostics(stderr, res.Diagnostics)

	if cfg.DryRun {
		for _, f := range res.Files {
			fmt.Fprintf(stdout, "// %s\n%s\n", f.Path(), f.Content)
		}
	}

	if res.Failed() {
		return 1
	}

	return 0
}

// configFile returns the explicit config path or the default one in the
// working directory.
func (o options) configFile() string {
	if o.configPath != "" {
		return o.configPath
	}

	return filepath.Join(o.dir, defaultConfigFile)
}

// loadConfig reads the explicit config file, or the default one when it
// exists in the working directory.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.LoadFile(opts.configFile())
	if err != nil {
		if opts.configPath == "" && errors.Is(err, fs.ErrNotExist) {
			return config.DefaultConfig(), nil
		}

		return nil, err
	}

	return cfg, nil
}

// apply overrides cfg with the flags that were set.
func (o options) apply(cfg *config.Config, patterns []string) {
	if len(patterns) > 0 {
		cfg.Patterns = patterns
	}

	if o.tags != "" {
		var tags config.StringOrArray

		for _, tag := range strings.Split(o.tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" && !tags.Contains(tag) {
				tags = append(tags, tag)
			}
		}

		cfg.Tags = tags
	}

	if o.output != "" {
		cfg.Output.File = o.output
	}

	if o.baseFile != "" {
		cfg.Output.BaseFile = o.baseFile
	}

	if o.noBase {
		emit := false
		cfg.Output.EmitBase = &emit
	}

	if o.parallel >= 0 {
		cfg.Parallel = o.parallel
	}

	cfg.DryRun = cfg.DryRun || o.dryRun
	cfg.Strict = cfg.Strict || o.strict
}

// initConfig writes cfg to path. An existing file is never overwritten.
func initConfig(ctx context.Context, logger *slog.Logger, stderr io.Writer, cfg *config.Config, path string) int {
	if diags := config.Validate(cfg); diags.HasErrors() {
		printDiagnostics(stderr, diags)
		return 1
	}

	if _, err := os.Stat(path); err == nil {
		logger.ErrorContext(ctx, "config file already exists", "path", path)
		return 1
	} else if !errors.Is(err, fs.ErrNotExist) {
		logger.ErrorContext(ctx, "config", "error", err)
		return 1
	}

	if err := config.WriteFile(cfg, path); err != nil {
		logger.ErrorContext(ctx, "config", "error", err)
		return 1
	}

	logger.InfoContext(ctx, "wrote config", "path", path)

	return 0
}

func printDiagnostics(w io.Writer, diags diagnostic.Diagnostics) {
	for _, d := range diags.All() {
		fmt.Fprintln(w, d.String())
	}

	if n := len(diags.Errors); n > 0 {
		fmt.Fprintf(w, "%d error(s), %d warning(s)\n", n, len(diags.Warnings))
	}
}
