package gen

import (
	"bytes"
	"context"
	"fmt"
	"go/types"
	"log/slog"
	"path/filepath"

	"golang.org/x/tools/imports"

	"automap-generator/internal/analyze"
	"automap-generator/internal/base"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/plan"
)

// Default file and parameter names.
const (
	DefaultOutputFile   = "automap_gen.go"
	DefaultBaseFile     = "automap_base.go"
	DefaultSourceParam  = "source"
	DefaultContextParam = "context"
)

// Local names used by generated functions besides the parameters.
const (
	receiverName = "m"
	resultName   = "out"
	valueName    = "v"
	okName       = "ok"
)

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// OutputFile is the name of the generated file written into every
	// package that declares a mapper type.
	OutputFile string
	// BaseFile is the name of the base definitions file.
	BaseFile string
	// EmitBase writes the base definitions into mapper packages that do not
	// declare them yet.
	EmitBase bool
	// SourceParam and ContextParam name the parameters of generated methods.
	SourceParam  string
	ContextParam string
	// DebugUnformatted writes a .unformatted.go sidecar when formatting fails.
	DebugUnformatted bool
	Logger           *slog.Logger
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		OutputFile:   DefaultOutputFile,
		BaseFile:     DefaultBaseFile,
		EmitBase:     true,
		SourceParam:  DefaultSourceParam,
		ContextParam: DefaultContextParam,
	}
}

// Program is what the generator needs to know about the analyzed packages.
type Program interface {
	Unit(path string) (*analyze.Unit, bool)
	Lookup(ref analyze.TypeRef) (*types.Named, bool)
}

// Generator generates Go code from a resolved mapping plan.
type Generator struct {
	config GeneratorConfig
	prog   Program
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(prog Program, config GeneratorConfig) *Generator {
	def := DefaultGeneratorConfig()

	if config.OutputFile == "" {
		config.OutputFile = def.OutputFile
	}

	if config.BaseFile == "" {
		config.BaseFile = def.BaseFile
	}

	if config.SourceParam == "" {
		config.SourceParam = def.SourceParam
	}

	if config.ContextParam == "" {
		config.ContextParam = def.ContextParam
	}

	return &Generator{config: config, prog: prog}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// PkgPath is the import path of the package the file belongs to.
	PkgPath string
	// Dir is the package directory.
	Dir string
	// Filename is the name of the file (e.g., "automap_gen.go").
	Filename string
	// Content is the formatted Go source code.
	Content []byte
}

// Path returns the file's location on disk.
func (f GeneratedFile) Path() string {
	return filepath.Join(f.Dir, f.Filename)
}

// Generate generates one file per package declaring a mapper type, plus the
// base definitions where they are missing.
func (g *Generator) Generate(ctx context.Context, p *plan.ResolvedMappingPlan) ([]GeneratedFile, diagnostic.Diagnostics, error) {
	var (
		files []GeneratedFile
		diags diagnostic.Diagnostics
		order []string
	)

	byPkg := make(map[string][]plan.MapperPlan)

	for _, m := range p.Mappers {
		if _, ok := byPkg[m.PkgPath()]; !ok {
			order = append(order, m.PkgPath())
		}

		byPkg[m.PkgPath()] = append(byPkg[m.PkgPath()], m)
	}

	for _, pkgPath := range order {
		if err := ctx.Err(); err != nil {
			return nil, diags, err
		}

		u, ok := g.prog.Unit(pkgPath)
		if !ok {
			for _, m := range byPkg[pkgPath] {
				diags.AddError(m.Pairs[0].Mapping.Pos, diagnostic.CodeMapperNotLoaded,
					fmt.Sprintf("package %s declaring %s is not among the loaded packages", pkgPath, m.Type.Name),
					m.Type.Short(), "")
			}

			continue
		}

		file, err := g.generatePackage(u, byPkg[pkgPath])
		if err != nil {
			return nil, diags, err
		}

		g.logger().DebugContext(ctx, "generated mapping code", "pkg", pkgPath, "mappers", len(byPkg[pkgPath]))
		files = append(files, *file)

		if g.config.EmitBase && !u.BaseDeclared {
			baseFile, err := g.format(u.Dir, g.config.BaseFile, base.Source(u.Name))
			if err != nil {
				return nil, diags, err
			}

			baseFile.PkgPath = pkgPath
			files = append(files, *baseFile)
		}
	}

	return files, diags, nil
}

func (g *Generator) generatePackage(u *analyze.Unit, mappers []plan.MapperPlan) (*GeneratedFile, error) {
	data, err := g.buildTemplateData(u, mappers)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := mapperTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	file, err := g.format(u.Dir, g.config.OutputFile, buf.Bytes())
	if file != nil {
		file.PkgPath = u.PkgPath
	}

	return file, err
}

// format runs the file through goimports' formatter. On failure the
// unformatted code is returned together with the error.
func (g *Generator) format(dir, filename string, src []byte) (*GeneratedFile, error) {
	opts := &imports.Options{Comments: true, TabIndent: true, TabWidth: 8, FormatOnly: true}

	formatted, err := imports.Process(filepath.Join(dir, filename), src, opts)
	if err != nil {
		// Best-effort: write unformatted code to a sidecar file to aid debugging.
		if g.config.DebugUnformatted {
			_ = writeDebugUnformatted(dir, filename, src)
		}

		return &GeneratedFile{Dir: dir, Filename: filename, Content: src},
			fmt.Errorf("formatting %s: %w (unformatted code returned)", filename, err)
	}

	return &GeneratedFile{Dir: dir, Filename: filename, Content: formatted}, nil
}

func (g *Generator) logger() *slog.Logger {
	if g.config.Logger != nil {
		return g.config.Logger
	}

	return slog.Default()
}
