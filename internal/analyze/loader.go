package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	"automap-generator/internal/base"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports |
	packages.NeedDeps

// listMode is used for the first, cheap pass that discovers package files.
const listMode = packages.NeedName | packages.NeedFiles

// ErrNoPackages is returned when the patterns match no Go package.
var ErrNoPackages = errors.New("no packages matched")

// Loader loads the compilation units of one analysis pass.
type Loader interface {
	Load(ctx context.Context, patterns ...string) (*Program, error)
}

// PackagesLoader loads packages with golang.org/x/tools/go/packages.
//
// Before type checking it overlays every package that mentions the mapper
// base type with the base definitions (unless the package already has them),
// and blanks out previously generated files so each pass starts from the
// user's sources only.
type PackagesLoader struct {
	Dir           string   // working directory; empty means the current one
	BuildFlags    []string // e.g. "-tags=codegen"
	BaseFile      string   // name of the base definitions file
	GeneratedFile string   // name of the generated file
	Logger        *slog.Logger
}

var _ Loader = (*PackagesLoader)(nil)

// Load loads the packages matching patterns (standard go package patterns).
func (l *PackagesLoader) Load(ctx context.Context, patterns ...string) (*Program, error) {
	logger := l.logger()

	overlay, declared, err := l.overlay(ctx, patterns)
	if err != nil {
		return nil, err
	}

	cfg := &packages.Config{
		Context:    ctx,
		Mode:       LoadMode,
		Dir:        l.Dir,
		BuildFlags: l.BuildFlags,
		Overlay:    overlay,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	if len(pkgs) == 0 {
		return nil, ErrNoPackages
	}

	// Type errors are expected: user code may call methods that only exist
	// once generation has run. Anything else aborts the pass.
	var errs []error

	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, e := range pkg.Errors {
			if e.Kind == packages.TypeError {
				logger.DebugContext(ctx, "type error ignored", "pkg", pkg.PkgPath, "error", e.Msg)
				continue
			}

			errs = append(errs, e)
		}
	})

	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %w", errors.Join(errs...))
	}

	units := make([]*Unit, 0, len(pkgs))

	for _, pkg := range pkgs {
		if pkg.Types == nil || pkg.TypesInfo == nil {
			continue
		}

		var typeErrors []error

		for _, e := range pkg.Errors {
			if e.Kind == packages.TypeError {
				typeErrors = append(typeErrors, e)
			}
		}

		units = append(units, &Unit{
			PkgPath:      pkg.PkgPath,
			Name:         pkg.Name,
			Dir:          packageDir(pkg),
			Fset:         pkg.Fset,
			Syntax:       pkg.Syntax,
			Types:        pkg.Types,
			Info:         pkg.TypesInfo,
			BaseDeclared: declared[pkg.PkgPath],
			TypeErrors:   typeErrors,
		})

		logger.DebugContext(ctx, "loaded package", "pkg", pkg.PkgPath, "files", len(pkg.Syntax))
	}

	return NewProgram(units), nil
}

// overlay lists the matched packages and prepares file contents that replace
// or extend what is on disk. It also reports which packages declare the base
// definitions themselves.
func (l *PackagesLoader) overlay(ctx context.Context, patterns []string) (map[string][]byte, map[string]bool, error) {
	cfg := &packages.Config{
		Context:    ctx,
		Mode:       listMode,
		Dir:        l.Dir,
		BuildFlags: l.BuildFlags,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list packages: %w", err)
	}

	overlay := make(map[string][]byte)
	declared := make(map[string]bool)

	for _, pkg := range pkgs {
		dir := packageDir(pkg)
		if dir == "" {
			continue
		}

		var mentions, declares bool

		for _, file := range pkg.GoFiles {
			name := filepath.Base(file)
			if name == l.GeneratedFile {
				overlay[file] = []byte("package " + pkg.Name + "\n")
				continue
			}

			src, err := os.ReadFile(file)
			if err != nil {
				return nil, nil, fmt.Errorf("reading %s: %w", file, err)
			}

			mentions = mentions || base.Mentions(src)
			declares = declares || base.Declares(src)
		}

		declared[pkg.PkgPath] = declares

		if mentions && !declares && l.BaseFile != "" {
			overlay[filepath.Join(dir, l.BaseFile)] = base.Source(pkg.Name)
			l.logger().DebugContext(ctx, "overlaying base definitions", "pkg", pkg.PkgPath)
		}
	}

	return overlay, declared, nil
}

func (l *PackagesLoader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}

	return slog.Default()
}

func packageDir(pkg *packages.Package) string {
	for _, files := range [][]string{pkg.GoFiles, pkg.CompiledGoFiles, pkg.OtherFiles} {
		for _, f := range files {
			if strings.HasSuffix(f, ".go") {
				return filepath.Dir(f)
			}
		}
	}

	return ""
}
