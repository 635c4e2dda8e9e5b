package analyze

import (
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"sync"
)

// maxEmbeddingDepth bounds FlattenAncestors on pathological type graphs.
const maxEmbeddingDepth = 16

// TypeSource lists members and ancestors of named types.
type TypeSource interface {
	FlattenAncestors(ref TypeRef) []Ancestor
	OwnMembers(ref TypeRef) []MemberRef
}

// Service is the front-end surface consumed by the scanner and the resolver
// for one compilation unit.
type Service interface {
	TypeSource

	// Path is the import path of the unit's package.
	Path() string
	FileSet() *token.FileSet
	Files() []*ast.File
	// ResolveSymbol reports what node denotes.
	ResolveSymbol(node ast.Node) Symbol
	// TypeOf returns the type of an expression, or nil.
	TypeOf(expr ast.Expr) types.Type
	// Lookup returns the named type denoted by ref.
	Lookup(ref TypeRef) (*types.Named, bool)
	// Imports reports whether package from imports package to, directly or
	// indirectly.
	Imports(from, to string) bool
}

// Unit is one type-checked package.
type Unit struct {
	PkgPath string
	Name    string
	Dir     string
	Fset    *token.FileSet
	Syntax  []*ast.File
	Types   *types.Package
	Info    *types.Info
	// BaseDeclared is set when one of the package's own files declares the
	// base definitions, so they need not be emitted.
	BaseDeclared bool
	// TypeErrors are the type-checking errors that were tolerated.
	TypeErrors []error

	prog *Program
}

var _ Service = (*Unit)(nil)

// Path returns the import path of the unit.
func (u *Unit) Path() string { return u.PkgPath }

// FileSet returns the file set of the unit's syntax trees.
func (u *Unit) FileSet() *token.FileSet { return u.Fset }

// Files returns the unit's syntax trees.
func (u *Unit) Files() []*ast.File { return u.Syntax }

// TypeOf returns the type of expr, or nil.
func (u *Unit) TypeOf(expr ast.Expr) types.Type {
	return u.Info.TypeOf(expr)
}

// Lookup returns the named type denoted by ref.
func (u *Unit) Lookup(ref TypeRef) (*types.Named, bool) {
	return u.prog.Lookup(ref)
}

// Imports reports whether package from imports package to.
func (u *Unit) Imports(from, to string) bool {
	return u.prog.Imports(from, to)
}

// FlattenAncestors returns the types embedded in ref, breadth-first.
func (u *Unit) FlattenAncestors(ref TypeRef) []Ancestor {
	return u.prog.FlattenAncestors(ref)
}

// OwnMembers returns the members declared by ref itself.
func (u *Unit) OwnMembers(ref TypeRef) []MemberRef {
	return u.prog.OwnMembers(ref)
}

// ResolveSymbol reports what node denotes.
func (u *Unit) ResolveSymbol(node ast.Node) Symbol {
	switch n := node.(type) {
	case *ast.ParenExpr:
		return u.ResolveSymbol(n.X)

	case *ast.Ident:
		obj := u.Info.ObjectOf(n)
		if obj == nil {
			return Symbol{}
		}

		// A type name may denote an instance recorded on the expression.
		if _, ok := obj.(*types.TypeName); ok {
			if tv, ok := u.Info.Types[n]; ok && tv.IsType() {
				return u.typeSymbol(tv.Type, obj)
			}
		}

		return u.objectSymbol(obj)

	case *ast.SelectorExpr:
		if sel, ok := u.Info.Selections[n]; ok {
			return u.selectionSymbol(sel)
		}

		if tv, ok := u.Info.Types[n]; ok && tv.IsType() {
			return u.typeSymbol(tv.Type, u.Info.ObjectOf(n.Sel))
		}

		return u.ResolveSymbol(n.Sel)

	case *ast.IndexExpr, *ast.IndexListExpr:
		if tv, ok := u.Info.Types[n.(ast.Expr)]; ok && tv.IsType() {
			return u.typeSymbol(tv.Type, nil)
		}
	}

	return Symbol{}
}

func (u *Unit) objectSymbol(obj types.Object) Symbol {
	switch o := obj.(type) {
	case *types.TypeName:
		return u.typeSymbol(o.Type(), o)

	case *types.Var:
		kind := SymbolValue
		if o.IsField() {
			kind = SymbolMember
		}

		sym := u.valueSymbol(kind, o, o.Type())
		if kind == SymbolMember {
			sym.Member = MemberRef{Name: o.Name(), Kind: MemberField, PkgPath: pkgPathOf(o), Exported: o.Exported(), Type: o.Type()}
		}

		return sym

	case *types.Const:
		return u.valueSymbol(SymbolValue, o, o.Type())

	case *types.Func:
		return Symbol{Kind: SymbolFunc, Object: o}

	case *types.PkgName:
		return Symbol{Kind: SymbolPackage, Object: o}

	default:
		return Symbol{Kind: SymbolNone, Object: obj}
	}
}

func (u *Unit) typeSymbol(t types.Type, obj types.Object) Symbol {
	ref, _ := u.prog.register(t)
	return Symbol{Kind: SymbolType, Object: obj, Type: ref}
}

func (u *Unit) valueSymbol(kind SymbolKind, obj types.Object, t types.Type) Symbol {
	sym := Symbol{Kind: kind, Object: obj}

	if ptr, ok := types.Unalias(t).(*types.Pointer); ok {
		sym.Pointer = true
		t = ptr.Elem()
	}

	sym.Type, _ = u.prog.register(t)

	return sym
}

func (u *Unit) selectionSymbol(sel *types.Selection) Symbol {
	obj := sel.Obj()

	recv := sel.Recv()
	if ptr, ok := types.Unalias(recv).(*types.Pointer); ok {
		recv = ptr.Elem()
	}

	declaring, _ := u.prog.register(recv)

	member := MemberRef{
		Name:          obj.Name(),
		DeclaringType: declaring,
		PkgPath:       pkgPathOf(obj),
		Exported:      obj.Exported(),
	}

	var valueType types.Type

	switch o := obj.(type) {
	case *types.Var:
		member.Kind = MemberField
		member.Type = o.Type()
		valueType = o.Type()
	case *types.Func:
		member.Kind = MemberMethod
		member.Getter, member.Type = getter(o)
		valueType = member.Type
	}

	sym := Symbol{Kind: SymbolMember, Object: obj}
	if valueType != nil {
		sym = u.valueSymbol(SymbolMember, obj, valueType)
	}

	sym.Member = member

	return sym
}

// Program holds every unit of one analysis pass together with the packages
// they reach.
type Program struct {
	Units []*Unit

	packages map[string]*types.Package

	mu        sync.Mutex
	instances map[TypeRef]*types.Named
}

// NewProgram builds a Program over units. The units' type information must
// share one universe (one importer) for cross-unit type identity.
func NewProgram(units []*Unit) *Program {
	p := &Program{
		Units:     units,
		packages:  make(map[string]*types.Package),
		instances: make(map[TypeRef]*types.Named),
	}

	for _, u := range units {
		u.prog = p
		p.addPackage(u.Types)
	}

	return p
}

func (p *Program) addPackage(pkg *types.Package) {
	if pkg == nil {
		return
	}

	if _, ok := p.packages[pkg.Path()]; ok {
		return
	}

	p.packages[pkg.Path()] = pkg
	for _, imp := range pkg.Imports() {
		p.addPackage(imp)
	}
}

// Package returns a loaded package by import path.
func (p *Program) Package(path string) (*types.Package, bool) {
	pkg, ok := p.packages[path]
	return pkg, ok
}

// Unit returns the unit for an import path.
func (p *Program) Unit(path string) (*Unit, bool) {
	for _, u := range p.Units {
		if u.PkgPath == path {
			return u, true
		}
	}

	return nil, false
}

// Paths returns the import paths of all reachable packages, sorted.
func (p *Program) Paths() []string {
	paths := make([]string, 0, len(p.packages))
	for path := range p.packages {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	return paths
}

// register records instantiated and function-local named types, which are
// not reachable from a package scope, so Lookup can find them later.
func (p *Program) register(t types.Type) (TypeRef, bool) {
	ref, ok := RefOf(t)
	if !ok {
		return TypeRef{}, false
	}

	named := types.Unalias(t).(*types.Named)
	obj := named.Obj()

	if ref.TypeArgs != "" || obj.Parent() != obj.Pkg().Scope() {
		p.mu.Lock()
		if _, seen := p.instances[ref]; !seen {
			p.instances[ref] = named
		}
		p.mu.Unlock()
	}

	return ref, true
}

// Lookup returns the named type denoted by ref.
func (p *Program) Lookup(ref TypeRef) (*types.Named, bool) {
	p.mu.Lock()
	named, ok := p.instances[ref]
	p.mu.Unlock()

	if ok || ref.TypeArgs != "" {
		return named, ok
	}

	pkg, ok := p.packages[ref.PkgPath]
	if !ok {
		return nil, false
	}

	tn, ok := pkg.Scope().Lookup(ref.Name).(*types.TypeName)
	if !ok {
		return nil, false
	}

	named, ok = types.Unalias(tn.Type()).(*types.Named)

	return named, ok
}

// Imports reports whether package from imports package to, directly or
// indirectly.
func (p *Program) Imports(from, to string) bool {
	start, ok := p.packages[from]
	if !ok {
		return false
	}

	seen := map[string]bool{}
	queue := []*types.Package{start}

	for len(queue) > 0 {
		pkg := queue[0]
		queue = queue[1:]

		for _, imp := range pkg.Imports() {
			if imp.Path() == to {
				return true
			}

			if !seen[imp.Path()] {
				seen[imp.Path()] = true
				queue = append(queue, imp)
			}
		}
	}

	return false
}

// OwnMembers returns the fields and methods declared by ref itself. Embedded
// fields are not members; FlattenAncestors reaches through them.
func (p *Program) OwnMembers(ref TypeRef) []MemberRef {
	named, ok := p.Lookup(ref)
	if !ok {
		return nil
	}

	var members []MemberRef

	switch under := named.Underlying().(type) {
	case *types.Struct:
		for i := range under.NumFields() {
			f := under.Field(i)
			if f.Embedded() || f.Name() == "_" {
				continue
			}

			members = append(members, MemberRef{
				Name:          f.Name(),
				DeclaringType: ref,
				Kind:          MemberField,
				PkgPath:       pkgPathOf(f),
				Exported:      f.Exported(),
				Type:          f.Type(),
			})
		}

	case *types.Interface:
		for i := range under.NumMethods() {
			members = append(members, methodMember(ref, under.Method(i)))
		}

		return members
	}

	for i := range named.NumMethods() {
		members = append(members, methodMember(ref, named.Method(i)))
	}

	return members
}

// FlattenAncestors returns the types embedded in ref, breadth-first. A type
// reached along several paths is listed once per path.
func (p *Program) FlattenAncestors(ref TypeRef) []Ancestor {
	type item struct {
		ancestor Ancestor
		path     map[TypeRef]bool
	}

	var result []Ancestor

	queue := []item{{ancestor: Ancestor{Type: ref}, path: map[TypeRef]bool{ref: true}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.ancestor.Depth >= maxEmbeddingDepth {
			continue
		}

		named, ok := p.Lookup(cur.ancestor.Type)
		if !ok {
			continue
		}

		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			continue
		}

		for i := range st.NumFields() {
			f := st.Field(i)
			if !f.Embedded() {
				continue
			}

			ft := types.Unalias(f.Type())

			viaPointer := cur.ancestor.ViaPointer
			if ptr, ok := ft.(*types.Pointer); ok {
				ft = ptr.Elem()
				viaPointer = true
			}

			embedded, ok := p.register(ft)
			if !ok || cur.path[embedded] {
				continue
			}

			next := Ancestor{Type: embedded, Depth: cur.ancestor.Depth + 1, ViaPointer: viaPointer}
			result = append(result, next)

			path := make(map[TypeRef]bool, len(cur.path)+1)
			for k := range cur.path {
				path[k] = true
			}

			path[embedded] = true
			queue = append(queue, item{ancestor: next, path: path})
		}
	}

	return result
}

func methodMember(ref TypeRef, fn *types.Func) MemberRef {
	m := MemberRef{
		Name:          fn.Name(),
		DeclaringType: ref,
		Kind:          MemberMethod,
		PkgPath:       pkgPathOf(fn),
		Exported:      fn.Exported(),
	}
	m.Getter, m.Type = getter(fn)

	return m
}

// getter reports whether fn takes no arguments and returns exactly one value.
func getter(fn *types.Func) (bool, types.Type) {
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Params().Len() != 0 || sig.Results().Len() != 1 {
		return false, nil
	}

	return true, sig.Results().At(0).Type()
}

func pkgPathOf(obj types.Object) string {
	if obj.Pkg() == nil {
		return ""
	}

	return obj.Pkg().Path()
}
