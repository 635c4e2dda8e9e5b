package analyze

import (
	"context"
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadProgram(t *testing.T, pkgs map[string]map[string]string, patterns ...string) *Program {
	t.Helper()

	loader := &MemoryLoader{Packages: pkgs, BaseFile: "automap_base.go", GeneratedFile: "automap_gen.go"}

	prog, err := loader.Load(context.Background(), patterns...)
	require.NoError(t, err)

	return prog
}

// findExpr returns the first node of u accepted by match.
func findExpr(t *testing.T, u *Unit, match func(ast.Node) bool) ast.Node {
	t.Helper()

	var found ast.Node

	for _, f := range u.Syntax {
		ast.Inspect(f, func(n ast.Node) bool {
			if found != nil || n == nil {
				return false
			}

			if match(n) {
				found = n
				return false
			}

			return true
		})
	}

	require.NotNil(t, found)

	return found
}

func TestResolveSymbol(t *testing.T) {
	prog := loadProgram(t, map[string]map[string]string{
		"example.com/geo": {"geo.go": `package geo

type Point struct{ X, Y float64 }

func (p Point) Len() float64 { return p.X + p.Y }

type Pair[T any] struct{ A, B T }
`},
		"example.com/app": {"app.go": `package app

import "example.com/geo"

var Origin = &geo.Point{}

type Holder struct{ P geo.Point }

func use(h Holder) (float64, float64, geo.Pair[int]) {
	return h.P.X, Origin.Len(), geo.Pair[int]{}
}
`},
	}, "example.com/app")

	u, ok := prog.Unit("example.com/app")
	require.True(t, ok)

	t.Run("field selection", func(t *testing.T) {
		n := findExpr(t, u, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			return ok && sel.Sel.Name == "X"
		})

		sym := u.ResolveSymbol(n)
		assert.Equal(t, SymbolMember, sym.Kind)
		assert.Equal(t, "X", sym.Member.Name)
		assert.Equal(t, MemberField, sym.Member.Kind)
		assert.Equal(t, TypeRef{PkgPath: "example.com/geo", Name: "Point"}, sym.Member.DeclaringType)
	})

	t.Run("package-level pointer variable", func(t *testing.T) {
		n := findExpr(t, u, func(n ast.Node) bool {
			id, ok := n.(*ast.Ident)
			return ok && id.Name == "Origin"
		})

		sym := u.ResolveSymbol(n)
		assert.Equal(t, SymbolValue, sym.Kind)
		assert.True(t, sym.Pointer)
		assert.True(t, sym.PackageLevel())
		assert.Equal(t, "example.com/app", sym.PkgPath())
		assert.Equal(t, TypeRef{PkgPath: "example.com/geo", Name: "Point"}, sym.Type)
	})

	t.Run("getter method", func(t *testing.T) {
		n := findExpr(t, u, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			return ok && sel.Sel.Name == "Len"
		})

		sym := u.ResolveSymbol(n)
		assert.Equal(t, SymbolMember, sym.Kind)
		assert.Equal(t, MemberMethod, sym.Member.Kind)
		assert.True(t, sym.Member.Getter)
	})

	t.Run("package name", func(t *testing.T) {
		n := findExpr(t, u, func(n ast.Node) bool {
			id, ok := n.(*ast.Ident)
			return ok && id.Name == "geo"
		})

		sym := u.ResolveSymbol(n)
		assert.Equal(t, SymbolPackage, sym.Kind)
		assert.Equal(t, "example.com/geo", sym.PkgPath())
	})

	t.Run("instantiated type", func(t *testing.T) {
		n := findExpr(t, u, func(n ast.Node) bool {
			_, ok := n.(*ast.IndexExpr)
			return ok
		})

		sym := u.ResolveSymbol(n)
		assert.Equal(t, SymbolType, sym.Kind)
		assert.Equal(t, TypeRef{PkgPath: "example.com/geo", Name: "Pair", TypeArgs: "[int]"}, sym.Type)

		named, ok := u.Lookup(sym.Type)
		require.True(t, ok)
		assert.Equal(t, 1, named.TypeArgs().Len())
		assert.Equal(t, []string{"A", "B"}, NewCatalog(prog, "example.com/app").Names(sym.Type))
	})
}

func TestProgram_Imports(t *testing.T) {
	prog := loadProgram(t, map[string]map[string]string{
		"example.com/a": {"a.go": "package a\n\nimport _ \"example.com/b\"\n"},
		"example.com/b": {"b.go": "package b\n\nimport _ \"example.com/c\"\n"},
		"example.com/c": {"c.go": "package c\n"},
	}, "example.com/a")

	assert.True(t, prog.Imports("example.com/a", "example.com/b"))
	assert.True(t, prog.Imports("example.com/a", "example.com/c"))
	assert.False(t, prog.Imports("example.com/c", "example.com/a"))
	assert.Equal(t, []string{"example.com/a", "example.com/b", "example.com/c"}, prog.Paths())
}

func TestMemoryLoader_BaseDefinitions(t *testing.T) {
	prog := loadProgram(t, map[string]map[string]string{
		"example.com/app": {
			"mapper.go": `package app

type Mapper struct{ AutoMapperBase }
`,
			// Stale output must not take part in the pass.
			"automap_gen.go": "package app\n\nfunc (m *Mapper) Map(source, context any) any { return nil }\n",
		},
	})

	u, ok := prog.Unit("example.com/app")
	require.True(t, ok)
	require.Len(t, u.Syntax, 2)

	for _, name := range []string{"AutoMapperBase", "CreateMap", "MapTo", "AutoMapperDispatcher"} {
		assert.NotNil(t, u.Types.Scope().Lookup(name), name)
	}

	named, ok := u.Lookup(TypeRef{PkgPath: "example.com/app", Name: "Mapper"})
	require.True(t, ok)
	assert.Zero(t, named.NumMethods())
}

func TestMemoryLoader_ImportCycle(t *testing.T) {
	loader := &MemoryLoader{Packages: map[string]map[string]string{
		"example.com/a": {"a.go": "package a\n\nimport _ \"example.com/b\"\n"},
		"example.com/b": {"b.go": "package b\n\nimport _ \"example.com/a\"\n"},
	}}

	_, err := loader.Load(context.Background(), "example.com/a")
	require.ErrorIs(t, err, ErrImportCycle)
}

func TestMemoryLoader_UnknownPattern(t *testing.T) {
	loader := &MemoryLoader{Packages: map[string]map[string]string{}}

	_, err := loader.Load(context.Background(), "example.com/none")
	require.ErrorIs(t, err, ErrNoPackages)
}

func TestSymbolKindString(t *testing.T) {
	assert.Equal(t, "member", SymbolMember.String())
	assert.Equal(t, "package", SymbolPackage.String())
	assert.Equal(t, "SymbolKind(42)", SymbolKind(42).String())
}
