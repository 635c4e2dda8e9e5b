package analyze

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"automap-generator/internal/base"
)

// ErrImportCycle is returned when in-memory packages import each other.
var ErrImportCycle = errors.New("import cycle")

// MemoryLoader type-checks packages held in memory. Imports of paths that are
// not in Packages are type-checked from GOROOT sources.
type MemoryLoader struct {
	// Packages maps import paths to file names to file contents.
	Packages      map[string]map[string]string
	BaseFile      string
	GeneratedFile string
}

var _ Loader = (*MemoryLoader)(nil)

// Load type-checks the packages named by patterns (exact import paths, or
// every package when patterns is empty) and everything they import.
func (l *MemoryLoader) Load(ctx context.Context, patterns ...string) (*Program, error) {
	if len(patterns) == 0 {
		for path := range l.Packages {
			patterns = append(patterns, path)
		}

		sort.Strings(patterns)
	}

	fset := token.NewFileSet()
	imp := &memImporter{
		loader:   l,
		fset:     fset,
		units:    make(map[string]*Unit),
		checking: make(map[string]bool),
		fallback: importer.ForCompiler(fset, "source", nil),
	}

	units := make([]*Unit, 0, len(patterns))

	for _, path := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, ok := l.Packages[path]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoPackages, path)
		}

		u, err := imp.check(path)
		if err != nil {
			return nil, err
		}

		units = append(units, u)
	}

	return NewProgram(units), nil
}

type memImporter struct {
	loader   *MemoryLoader
	fset     *token.FileSet
	units    map[string]*Unit
	checking map[string]bool
	fallback types.Importer
}

func (m *memImporter) Import(path string) (*types.Package, error) {
	if _, ok := m.loader.Packages[path]; !ok {
		return m.fallback.Import(path)
	}

	u, err := m.check(path)
	if err != nil {
		return nil, err
	}

	return u.Types, nil
}

func (m *memImporter) check(path string) (*Unit, error) {
	if u, ok := m.units[path]; ok {
		return u, nil
	}

	if m.checking[path] {
		return nil, fmt.Errorf("%w: %s", ErrImportCycle, path)
	}

	m.checking[path] = true
	defer delete(m.checking, path)

	sources := m.loader.Packages[path]

	names := make([]string, 0, len(sources))
	for name := range sources {
		if name == m.loader.GeneratedFile {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	var (
		files              []*ast.File
		mentions, declares bool
	)

	dir := "/" + strings.Trim(path, "/")

	for _, name := range names {
		src := sources[name]

		f, err := parser.ParseFile(m.fset, dir+"/"+name, src, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parsing %s/%s: %w", path, name, err)
		}

		files = append(files, f)
		mentions = mentions || base.Mentions([]byte(src))
		declares = declares || base.Declares([]byte(src))
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s has no files", ErrNoPackages, path)
	}

	pkgName := files[0].Name.Name

	if mentions && !declares && m.loader.BaseFile != "" {
		f, err := parser.ParseFile(m.fset, dir+"/"+m.loader.BaseFile, base.Source(pkgName), parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parsing base definitions: %w", err)
		}

		files = append(files, f)
	}

	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Instances:  make(map[*ast.Ident]types.Instance),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
	}

	var (
		cycle      error
		typeErrors []error
	)

	conf := types.Config{
		Importer: m,
		// Type errors are tolerated, as with go/packages.
		Error: func(err error) {
			if cycle == nil && strings.Contains(err.Error(), ErrImportCycle.Error()) {
				cycle = fmt.Errorf("%w: %s", ErrImportCycle, path)
			}

			typeErrors = append(typeErrors, err)
		},
	}

	pkg, _ := conf.Check(path, m.fset, files, info)
	if cycle != nil {
		return nil, cycle
	}

	u := &Unit{
		PkgPath:      path,
		Name:         pkgName,
		Dir:          dir,
		Fset:         m.fset,
		Syntax:       files,
		Types:        pkg,
		Info:         info,
		BaseDeclared: declares,
		TypeErrors:   typeErrors,
	}
	m.units[path] = u

	return u, nil
}
