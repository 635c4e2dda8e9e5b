package scan

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/ast/inspector"

	"automap-generator/internal/analyze"
	"automap-generator/internal/base"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/model"
	"automap-generator/internal/override"
)

// Scanner recognizes configuration sites.
type Scanner struct {
	// Parallel is the number of units scanned concurrently by ScanProgram;
	// values below 2 scan sequentially.
	Parallel int
	Logger   *slog.Logger
}

// New creates a sequential Scanner.
func New(logger *slog.Logger) *Scanner {
	return &Scanner{Logger: logger}
}

// ScanProgram scans every unit of prog and merges the per-unit results in
// unit order. Duplicate pair declarations are reported on the merged model.
func (s *Scanner) ScanProgram(ctx context.Context, prog *analyze.Program) (*model.Builder, diagnostic.Diagnostics, error) {
	builders := make([]*model.Builder, len(prog.Units))
	diags := make([]diagnostic.Diagnostics, len(prog.Units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Parallel, 1))

	for i, u := range prog.Units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			builders[i], diags[i] = s.Scan(gctx, u)

			return nil
		})
	}

	var all diagnostic.Diagnostics

	if err := g.Wait(); err != nil {
		return nil, all, fmt.Errorf("scanning: %w", err)
	}

	merged := model.NewBuilder()

	for i := range builders {
		merged.Merge(builders[i])
		all.Merge(diags[i])
	}

	reportDuplicates(merged, &all)

	return merged, all, nil
}

// Scan scans one unit.
func (s *Scanner) Scan(ctx context.Context, svc analyze.Service) (*model.Builder, diagnostic.Diagnostics) {
	u := &unitScan{
		svc:     svc,
		logger:  s.logger(),
		builder: model.NewBuilder(),
	}

	insp := inspector.New(svc.Files())
	insp.WithStack([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node, push bool, stack []ast.Node) bool {
		if push {
			u.visit(ctx, n.(*ast.CallExpr), stack)
		}

		return true
	})

	u.logger.DebugContext(ctx, "scanned unit", "pkg", svc.Path(), "mappers", u.builder.Len())

	return u.builder, u.diags
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}

	return slog.Default()
}

type unitScan struct {
	svc     analyze.Service
	logger  *slog.Logger
	builder *model.Builder
	diags   diagnostic.Diagnostics
}

// site is an accepted CreateMap call.
type site struct {
	mapper analyze.TypeRef
	from   ast.Expr
	to     ast.Expr
}

func (u *unitScan) visit(ctx context.Context, call *ast.CallExpr, stack []ast.Node) {
	st, ok := u.accept(call)
	if !ok {
		return
	}

	pos := u.position(call.Pos())
	outPkg := st.mapper.PkgPath

	if err := u.mapperType(st.mapper); err != nil {
		u.diags.AddError(pos, err.code, err.message, "", "")
		return
	}

	from, errFrom := u.typeArg(st.from, outPkg)
	to, errTo := u.typeArg(st.to, outPkg)

	if errFrom != nil || errTo != nil {
		for _, err := range []*typeArgError{errFrom, errTo} {
			if err != nil {
				u.diags.AddError(pos, err.code, err.message, "", "")
			}
		}

		return
	}

	mapping := model.TypeMapping{From: from, To: to, Pos: pos}
	resolver := override.NewResolver(u.svc, outPkg)
	valid := true

	for _, fm := range chain(call, stack) {
		opos := u.position(fm.Pos())

		expr, err := resolver.Resolve(override.Site{
			From:   from,
			To:     to,
			Target: ast.Unparen(fm.Args[0]).(*ast.FuncLit),
			Value:  ast.Unparen(fm.Args[1]).(*ast.FuncLit),
			Pos:    opos,
		})
		if err != nil {
			var e *override.Error
			if !errors.As(err, &e) {
				e = &override.Error{Code: diagnostic.CodeOverrideBodyShape, Message: err.Error(), Fatal: true}
			}

			u.diags.Add(diagnostic.Diagnostic{
				Severity:    diagnostic.DiagnosticError,
				Code:        e.Code,
				Message:     e.Message,
				Pos:         opos,
				TypePair:    mapping.Pair(),
				FieldPath:   e.Target,
				Suggestions: e.Suggestions,
			})

			if e.Fatal {
				valid = false
			}

			continue
		}

		if _, dup := mapping.Override(expr.Target); dup {
			u.diags.AddWarning(opos, diagnostic.CodeDuplicateOverride,
				"member is already overridden; the first override is used", mapping.Pair(), expr.Target)
		}

		mapping.Overrides = append(mapping.Overrides, expr)
	}

	if !valid {
		u.logger.DebugContext(ctx, "mapping dropped", "pair", mapping.Pair(), "pos", pos)
		return
	}

	u.builder.Add(st.mapper, mapping)
	u.logger.DebugContext(ctx, "configuration site",
		"mapper", st.mapper.String(), "pair", mapping.Pair(), "overrides", len(mapping.Overrides))
}

// accept checks the shape of a CreateMap call and the type of its argument.
func (u *unitScan) accept(call *ast.CallExpr) (site, bool) {
	idx, ok := ast.Unparen(call.Fun).(*ast.IndexListExpr)
	if !ok || len(idx.Indices) != 2 || len(call.Args) != 1 || call.Ellipsis.IsValid() {
		return site{}, false
	}

	switch fn := ast.Unparen(idx.X).(type) {
	case *ast.Ident:
		if fn.Name != base.CreateMapName {
			return site{}, false
		}
	case *ast.SelectorExpr:
		if fn.Sel.Name != base.CreateMapName {
			return site{}, false
		}
	default:
		return site{}, false
	}

	arg := deref(call.Args[0])

	sym := u.svc.ResolveSymbol(arg)
	if sym.Kind != analyze.SymbolValue && sym.Kind != analyze.SymbolMember {
		return site{}, false
	}

	if sym.Type.IsZero() || !u.isMapper(sym.Type) {
		return site{}, false
	}

	return site{mapper: sym.Type, from: idx.Indices[0], to: idx.Indices[1]}, true
}

// deref strips parentheses, address-of and dereference operators around the
// mapper argument.
func deref(expr ast.Expr) ast.Expr {
	for {
		switch e := ast.Unparen(expr).(type) {
		case *ast.UnaryExpr:
			if e.Op != token.AND {
				return e
			}

			expr = e.X
		case *ast.StarExpr:
			expr = e.X
		default:
			return e
		}
	}
}

// isMapper reports whether ref is a struct type that directly embeds the
// mapper base type declared in its own package.
func (u *unitScan) isMapper(ref analyze.TypeRef) bool {
	named, ok := u.svc.Lookup(ref)
	if !ok {
		return false
	}

	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return false
	}

	for i := range st.NumFields() {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}

		t := types.Unalias(f.Type())
		if ptr, ok := t.(*types.Pointer); ok {
			t = types.Unalias(ptr.Elem())
		}

		n, ok := t.(*types.Named)
		if !ok || n.Obj().Name() != base.MapperBaseName || n.Obj().Pkg() == nil {
			continue
		}

		if n.Obj().Pkg().Path() == ref.PkgPath {
			return true
		}
	}

	return false
}

// mapperType checks that generated methods can be declared on the mapper.
func (u *unitScan) mapperType(ref analyze.TypeRef) *typeArgError {
	named, ok := u.svc.Lookup(ref)
	if !ok {
		return &typeArgError{diagnostic.CodeUnresolvedType, fmt.Sprintf("mapper type %s could not be loaded", ref)}
	}

	obj := named.Obj()

	switch {
	case ref.TypeArgs != "":
		return &typeArgError{diagnostic.CodeUnrelocatableType,
			fmt.Sprintf("generic mapper type %s is not supported", ref.Short())}
	case obj.Parent() != obj.Pkg().Scope():
		return &typeArgError{diagnostic.CodeUnrelocatableType,
			fmt.Sprintf("mapper type %s is declared inside a function", ref.Name)}
	}

	return nil
}

type typeArgError struct {
	code    string
	message string
}

// typeArg resolves a type argument to a type that generated code in outPkg
// can name.
func (u *unitScan) typeArg(expr ast.Expr, outPkg string) (analyze.TypeRef, *typeArgError) {
	sym := u.svc.ResolveSymbol(expr)
	if sym.Kind != analyze.SymbolType || sym.Type.IsZero() {
		return analyze.TypeRef{}, &typeArgError{diagnostic.CodeUnresolvedType,
			fmt.Sprintf("type argument %s does not resolve to a named type", types.ExprString(expr))}
	}

	ref := sym.Type

	named, ok := u.svc.Lookup(ref)
	if !ok {
		return analyze.TypeRef{}, &typeArgError{diagnostic.CodeUnresolvedType,
			fmt.Sprintf("type %s could not be loaded", ref)}
	}

	if types.IsInterface(named) {
		return analyze.TypeRef{}, &typeArgError{diagnostic.CodeUnresolvedType,
			fmt.Sprintf("type %s is an interface", ref.Short())}
	}

	obj := named.Obj()

	switch {
	case ref.TypeArgs != "":
		return analyze.TypeRef{}, &typeArgError{diagnostic.CodeUnrelocatableType,
			fmt.Sprintf("generic type %s is not supported", ref.Short())}
	case obj.Parent() != obj.Pkg().Scope():
		return analyze.TypeRef{}, &typeArgError{diagnostic.CodeUnrelocatableType,
			fmt.Sprintf("type %s is declared inside a function", ref.Name)}
	case ref.PkgPath == outPkg:
		return ref, nil
	case !obj.Exported():
		return analyze.TypeRef{}, &typeArgError{diagnostic.CodeUnrelocatableType,
			fmt.Sprintf("type %s is not exported", ref.Short())}
	case obj.Pkg().Name() == "main":
		return analyze.TypeRef{}, &typeArgError{diagnostic.CodeUnrelocatableType,
			fmt.Sprintf("type %s is declared in package main", ref.Name)}
	case u.svc.Imports(ref.PkgPath, outPkg):
		return analyze.TypeRef{}, &typeArgError{diagnostic.CodeUnrelocatableType,
			fmt.Sprintf("package %s imports %s", ref.PkgPath, outPkg)}
	}

	return ref, nil
}

func (u *unitScan) position(pos token.Pos) token.Position {
	return u.svc.FileSet().Position(pos)
}

// chain collects the ForMember calls applied to call, innermost first, which
// is source order. stack ends with call.
func chain(call *ast.CallExpr, stack []ast.Node) []*ast.CallExpr {
	var calls []*ast.CallExpr

	var child ast.Expr = call

	i := len(stack) - 2

	for {
		for i >= 0 {
			if _, ok := stack[i].(*ast.ParenExpr); !ok {
				break
			}

			i--
		}

		if i < 1 {
			break
		}

		sel, ok := stack[i].(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != base.ForMemberName || ast.Unparen(sel.X) != child {
			break
		}

		fm, ok := stack[i-1].(*ast.CallExpr)
		if !ok || ast.Unparen(fm.Fun) != sel || len(fm.Args) != 2 {
			break
		}

		_, ok1 := ast.Unparen(fm.Args[0]).(*ast.FuncLit)
		_, ok2 := ast.Unparen(fm.Args[1]).(*ast.FuncLit)

		if !ok1 || !ok2 {
			break
		}

		calls = append(calls, fm)
		child = fm
		i -= 2
	}

	return calls
}

// reportDuplicates warns about pairs declared more than once on one mapper.
func reportDuplicates(b *model.Builder, diags *diagnostic.Diagnostics) {
	type key struct{ from, to analyze.TypeRef }

	for _, m := range b.Models() {
		seen := make(map[key]token.Position)

		for _, tm := range m.Mappings {
			k := key{tm.From, tm.To}
			if first, ok := seen[k]; ok {
				diags.AddWarning(tm.Pos, diagnostic.CodeDuplicateDeclaration,
					fmt.Sprintf("%s already declared at %s; both mapping methods are generated", tm.Pair(), first),
					tm.Pair(), "")

				continue
			}

			seen[k] = tm.Pos
		}
	}
}
