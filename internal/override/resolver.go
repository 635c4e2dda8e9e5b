package override

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"go/types"
	"reflect"
	"sort"

	"golang.org/x/tools/go/ast/astutil"

	"automap-generator/internal/analyze"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/match"
	"automap-generator/internal/model"
)

// Site is one ForMember call of a configuration chain.
type Site struct {
	From   analyze.TypeRef
	To     analyze.TypeRef
	Target *ast.FuncLit // func(t To) any { return t.Member }
	Value  *ast.FuncLit // func(f From) any { ... } or func(f From, ctx C) any { ... }
	Pos    token.Position
}

// Resolver resolves override sites found in one compilation unit. The
// resolved expressions are meant to be emitted into package outPkg.
type Resolver struct {
	svc     analyze.Service
	catalog *analyze.Catalog
	outPkg  string
}

// NewResolver creates a Resolver for the unit svc.
func NewResolver(svc analyze.Service, outPkg string) *Resolver {
	return &Resolver{
		svc:     svc,
		catalog: analyze.NewCatalog(svc, outPkg),
		outPkg:  outPkg,
	}
}

// Resolve validates site and produces the relocatable override. The returned
// error, if any, is an *Error. The syntax trees of the unit are not modified.
func (r *Resolver) Resolve(site Site) (model.OverrideExpr, error) {
	expr, err := r.resolve(site)
	if err != nil {
		return model.OverrideExpr{}, err
	}

	return expr, nil
}

func (r *Resolver) resolve(site Site) (model.OverrideExpr, *Error) {
	target, err := r.targetMember(site)
	if err != nil {
		return model.OverrideExpr{}, err
	}

	params := flatParams(site.Value.Type.Params)
	if len(params) < 1 || len(params) > 2 {
		return model.OverrideExpr{}, fatal(diagnostic.CodeOverrideArity,
			fmt.Sprintf("override takes %d parameters, want 1 or 2", len(params)))
	}

	if _, ok := params[len(params)-1].typ.(*ast.Ellipsis); ok {
		return model.OverrideExpr{}, fatal(diagnostic.CodeOverrideArity, "override parameters must not be variadic")
	}

	result, ok := singleReturn(site.Value)
	if !ok {
		return model.OverrideExpr{}, fatal(diagnostic.CodeOverrideBodyShape,
			"override body must be a single return statement with one value")
	}

	if ref, ok := r.paramType(params[0]); !ok || ref != site.From {
		return model.OverrideExpr{}, fatal(diagnostic.CodeOverrideSourceType,
			fmt.Sprintf("override parameter must be of type %s", site.From.Short()))
	}

	member, ok := r.catalog.Lookup(site.To, target)
	if !ok || !member.Mutable {
		var names []string
		for _, m := range r.catalog.Mutable(site.To) {
			names = append(names, m.Name)
		}

		e := dropped(diagnostic.CodeUnknownTargetMember,
			fmt.Sprintf("%s has no assignable member %s", site.To.Short(), target), target)
		e.Suggestions = match.Suggest(target, names, match.DefaultSuggestions)

		return model.OverrideExpr{}, e
	}

	rw := &rewriter{
		svc:      r.svc,
		outPkg:   r.outPkg,
		lit:      site.Value,
		target:   target,
		byPath:   make(map[string]string),
		packages: make(map[string]model.PackageRef),
		used:     make(map[string]bool),
	}

	out := model.OverrideExpr{Target: target, Pos: site.Pos}

	for i, p := range params {
		name := "_"
		if p.name != nil {
			name = p.name.Name
			obj := r.svc.ResolveSymbol(p.name).Object

			if i == 0 {
				rw.source = obj
			} else {
				rw.context = obj
			}
		}

		out.Params = append(out.Params, name)
	}

	if len(params) == 2 {
		if t := r.svc.TypeOf(params[1].typ); t != nil && !match.IsEmptyInterface(t) {
			ctxType, err := rw.relocate(params[1].typ)
			if err != nil {
				return model.OverrideExpr{}, err
			}

			out.ContextType = ctxType
		}
	}

	rw.contextType = out.ContextType

	body, err := rw.relocate(result)
	if err != nil {
		return model.OverrideExpr{}, err
	}

	body, err = rw.coerce(body, result, member.Type)
	if err != nil {
		return model.OverrideExpr{}, err
	}

	out.Body = body
	out.Packages = rw.packages

	for name := range rw.used {
		out.UsedNames = append(out.UsedNames, name)
	}

	sort.Strings(out.UsedNames)

	return out, nil
}

// targetMember returns the member name selected by the target literal.
func (r *Resolver) targetMember(site Site) (string, *Error) {
	lit := site.Target

	params := flatParams(lit.Type.Params)
	if len(params) != 1 || params[0].name == nil {
		return "", fatal(diagnostic.CodeMemberSelectorShape, "member selector must take exactly one named parameter")
	}

	if ref, ok := r.paramType(params[0]); !ok || ref != site.To {
		return "", fatal(diagnostic.CodeMemberSelectorShape,
			fmt.Sprintf("member selector parameter must be of type %s", site.To.Short()))
	}

	result, ok := singleReturn(lit)
	if !ok {
		return "", fatal(diagnostic.CodeMemberSelectorShape, "member selector must be a single return statement")
	}

	sel, ok := ast.Unparen(result).(*ast.SelectorExpr)
	if !ok {
		return "", fatal(diagnostic.CodeMemberSelectorShape, "member selector must return a member of its parameter")
	}

	x, ok := ast.Unparen(sel.X).(*ast.Ident)
	if !ok || r.svc.ResolveSymbol(x).Object != r.svc.ResolveSymbol(params[0].name).Object {
		return "", fatal(diagnostic.CodeMemberSelectorShape, "member selector must return a member of its parameter")
	}

	return sel.Sel.Name, nil
}

// paramType returns the named type of a parameter; pointers are not accepted.
func (r *Resolver) paramType(p param) (analyze.TypeRef, bool) {
	t := r.svc.TypeOf(p.typ)
	if t == nil {
		return analyze.TypeRef{}, false
	}

	return analyze.RefOf(t)
}

type param struct {
	name *ast.Ident // nil for unnamed parameters
	typ  ast.Expr
}

func flatParams(fields *ast.FieldList) []param {
	if fields == nil {
		return nil
	}

	var out []param

	for _, f := range fields.List {
		if len(f.Names) == 0 {
			out = append(out, param{typ: f.Type})
			continue
		}

		for _, n := range f.Names {
			out = append(out, param{name: n, typ: f.Type})
		}
	}

	return out
}

func singleReturn(lit *ast.FuncLit) (ast.Expr, bool) {
	if lit.Body == nil || len(lit.Body.List) != 1 {
		return nil, false
	}

	ret, ok := lit.Body.List[0].(*ast.ReturnStmt)
	if !ok || len(ret.Results) != 1 {
		return nil, false
	}

	return ret.Results[0], true
}

// rewriter relocates expressions taken from one value literal.
type rewriter struct {
	svc    analyze.Service
	outPkg string
	lit    *ast.FuncLit
	target string

	source      types.Object
	context     types.Object
	contextType string

	byPath   map[string]string // import path -> placeholder
	packages map[string]model.PackageRef
	used     map[string]bool

	err *Error
}

// relocate rewrites a copy of orig and returns its source text.
func (rw *rewriter) relocate(orig ast.Expr) (string, *Error) {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, rw.svc.FileSet(), orig); err != nil {
		return "", fatal(diagnostic.CodeOverrideBodyShape, "printing expression: "+err.Error())
	}

	fset := token.NewFileSet()

	clone, err := parser.ParseExprFrom(fset, "", buf.Bytes(), 0)
	if err != nil {
		return "", fatal(diagnostic.CodeOverrideBodyShape, "re-parsing expression: "+err.Error())
	}

	origNodes, cloneNodes := preorder(orig), preorder(clone)
	if len(origNodes) != len(cloneNodes) {
		return "", fatal(diagnostic.CodeOverrideBodyShape, "expression could not be copied")
	}

	originals := make(map[ast.Node]ast.Node, len(cloneNodes))

	for i, n := range cloneNodes {
		if reflect.TypeOf(n) != reflect.TypeOf(origNodes[i]) {
			return "", fatal(diagnostic.CodeOverrideBodyShape, "expression could not be copied")
		}

		originals[n] = origNodes[i]
	}

	result := astutil.Apply(clone, func(c *astutil.Cursor) bool {
		orig, ok := originals[c.Node()]
		if !ok {
			return true
		}

		return rw.visit(c, orig)
	}, nil)

	if rw.err != nil {
		return "", rw.err
	}

	buf.Reset()

	if err := printer.Fprint(&buf, fset, result); err != nil {
		return "", fatal(diagnostic.CodeOverrideBodyShape, "printing expression: "+err.Error())
	}

	return buf.String(), nil
}

func (rw *rewriter) visit(c *astutil.Cursor, orig ast.Node) bool {
	switch n := orig.(type) {
	case *ast.SelectorExpr:
		x, ok := n.X.(*ast.Ident)
		if !ok {
			return true
		}

		sym := rw.svc.ResolveSymbol(x)
		if sym.Kind != analyze.SymbolPackage {
			return true
		}

		pkgName := x.Name
		if pn, ok := sym.Object.(*types.PkgName); ok {
			pkgName = pn.Imported().Name()
		}

		if repl := rw.qualify(sym.PkgPath(), pkgName, n.Sel.Name); repl != nil {
			c.Replace(repl)
		}

		return false

	case *ast.Ident:
		if _, ok := c.Parent().(*ast.SelectorExpr); ok && c.Name() == "Sel" {
			return false
		}

		rw.ident(c, n)

		return false
	}

	return true
}

func (rw *rewriter) ident(c *astutil.Cursor, id *ast.Ident) {
	obj := rw.svc.ResolveSymbol(id).Object

	switch {
	case obj == nil:
		rw.used[id.Name] = true

	case obj == rw.source:
		c.Replace(ast.NewIdent(model.SourcePlaceholder))

	case obj == rw.context:
		var repl ast.Expr = ast.NewIdent(model.ContextPlaceholder)
		if rw.contextType != "" {
			repl = &ast.TypeAssertExpr{X: repl, Type: ast.NewIdent(rw.contextType)}
		}

		c.Replace(repl)

	case obj.Pkg() == nil:
		rw.used[id.Name] = true

	case isField(obj):
		// Keys of struct literals.

	case obj.Parent() == obj.Pkg().Scope():
		if obj.Pkg().Path() == rw.outPkg {
			rw.used[id.Name] = true
			return
		}

		if repl := rw.qualify(obj.Pkg().Path(), obj.Pkg().Name(), id.Name); repl != nil {
			c.Replace(repl)
		}

	case obj.Pos() >= rw.lit.Pos() && obj.Pos() < rw.lit.End():
		rw.used[id.Name] = true

	default:
		rw.fail(fmt.Sprintf("refers to %s, which is declared outside the override", id.Name))
	}
}

// qualify returns the relocated form of pkgPath.name, or nil after recording
// an error.
func (rw *rewriter) qualify(pkgPath, pkgName, name string) ast.Expr {
	if pkgPath == rw.outPkg {
		rw.used[name] = true
		return ast.NewIdent(name)
	}

	switch {
	case !ast.IsExported(name):
		rw.fail(fmt.Sprintf("refers to unexported %s.%s", pkgName, name))
		return nil
	case pkgName == "main":
		rw.fail(fmt.Sprintf("refers to %s in package main", name))
		return nil
	case rw.svc.Imports(pkgPath, rw.outPkg):
		rw.fail(fmt.Sprintf("refers to %s.%s, but %s imports %s", pkgName, name, pkgPath, rw.outPkg))
		return nil
	}

	return &ast.SelectorExpr{X: ast.NewIdent(rw.placeholder(pkgPath, pkgName)), Sel: ast.NewIdent(name)}
}

// placeholder returns the placeholder standing for package pkgPath.
func (rw *rewriter) placeholder(pkgPath, pkgName string) string {
	ph, ok := rw.byPath[pkgPath]
	if !ok {
		ph = model.PackagePlaceholder(len(rw.byPath))
		rw.byPath[pkgPath] = ph
		rw.packages[ph] = model.PackageRef{Path: pkgPath, Name: pkgName}
	}

	return ph
}

func (rw *rewriter) fail(msg string) {
	if rw.err == nil {
		rw.err = dropped(diagnostic.CodeOverrideUnrelocatable, msg, rw.target)
	}
}

func isField(obj types.Object) bool {
	v, ok := obj.(*types.Var)
	return ok && v.IsField()
}

// preorder lists the nodes of n in traversal order, comments excluded.
func preorder(n ast.Node) []ast.Node {
	var nodes []ast.Node

	ast.Inspect(n, func(n ast.Node) bool {
		switch n.(type) {
		case nil:
			return false
		case *ast.Comment, *ast.CommentGroup:
			return false
		}

		nodes = append(nodes, n)

		return true
	})

	return nodes
}
