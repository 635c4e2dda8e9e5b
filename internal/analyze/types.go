package analyze

import (
	"go/types"
	"strings"

	"automap-generator/internal/common"
)

// TypeRef uniquely identifies a declared type by its package path, name and
// type arguments. Two TypeRefs are equal if they denote the same type,
// wherever the type was referenced.
type TypeRef struct {
	PkgPath  string // e.g., "example.com/shop/store"
	Name     string // e.g., "Order"
	TypeArgs string // e.g., "[int, example.com/shop/store.Item]"; empty if not instantiated
}

// String returns the fully qualified representation of the TypeRef.
func (t TypeRef) String() string {
	if t.PkgPath == "" {
		return t.Name + t.TypeArgs
	}

	return t.PkgPath + "." + t.Name + t.TypeArgs
}

// Short returns the package-alias qualified name, e.g. "store.Order".
func (t TypeRef) Short() string {
	if t.PkgPath == "" {
		return t.Name + t.TypeArgs
	}

	return common.PkgAlias(t.PkgPath) + "." + t.Name + t.TypeArgs
}

// IsZero reports whether t does not refer to any type.
func (t TypeRef) IsZero() bool {
	return t.Name == ""
}

// RefOf returns the TypeRef of a named (or instantiated) type.
// It returns false for unnamed, predeclared and invalid types.
func RefOf(t types.Type) (TypeRef, bool) {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return TypeRef{}, false
	}

	obj := named.Obj()
	if obj == nil || obj.Pkg() == nil {
		return TypeRef{}, false
	}

	ref := TypeRef{PkgPath: obj.Pkg().Path(), Name: obj.Name()}

	if args := named.TypeArgs(); args.Len() > 0 {
		parts := make([]string, args.Len())
		for i := range args.Len() {
			parts[i] = types.TypeString(args.At(i), pathQualifier)
		}

		ref.TypeArgs = "[" + strings.Join(parts, ", ") + "]"
	}

	return ref, true
}

func pathQualifier(pkg *types.Package) string {
	return pkg.Path()
}

// MemberKind represents the kind of a member.
type MemberKind int

const (
	MemberField  MemberKind = iota // struct field
	MemberMethod                   // method; readable when it is a getter
)

// String returns a human-readable representation of the MemberKind.
func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberMethod:
		return "method"
	default:
		return common.UnknownStr
	}
}

// MemberRef describes a member reachable on a type.
type MemberRef struct {
	Name          string
	DeclaringType TypeRef
	Kind          MemberKind
	PkgPath       string     // package that declares the member
	Exported      bool       // whether the member name is exported
	Getter        bool       // methods only: no parameters and exactly one result
	Type          types.Type // field type, or the getter's result type

	// Set by Catalog.
	Depth      int  // 0 for own members, embedding depth otherwise
	ViaPointer bool // reached through an embedded pointer
	Readable   bool // can be read by code in the catalog's package
	Mutable    bool // can be assigned on a zero value by code in the catalog's package
}

// Ancestor is a type reached through struct embedding.
type Ancestor struct {
	Type       TypeRef
	Depth      int
	ViaPointer bool
}

// SymbolKind classifies what a syntax node resolves to: a type name or type
// expression, a variable or constant, a package-level function, a field or
// method reached by selection, or an imported package name.
type SymbolKind int

//go:generate go tool stringer -type=SymbolKind -linecomment -output=symbolkind_string.go

const (
	SymbolNone    SymbolKind = iota // none
	SymbolType                      // type
	SymbolValue                     // value
	SymbolFunc                      // func
	SymbolMember                    // member
	SymbolPackage                   // package
)

// Symbol is the result of resolving a syntax node.
type Symbol struct {
	Kind   SymbolKind
	Object types.Object // nil for type expressions without an object

	// Type is the type itself for SymbolType, and the static type of the value
	// with one pointer level stripped for SymbolValue and SymbolMember. It is
	// zero when that type is not named.
	Type    TypeRef
	Pointer bool

	Member MemberRef // SymbolMember only
}

// PackageLevel reports whether the symbol's object is declared at package scope.
func (s Symbol) PackageLevel() bool {
	if s.Object == nil || s.Object.Pkg() == nil {
		return false
	}

	return s.Object.Parent() == s.Object.Pkg().Scope()
}

// PkgPath returns the path of the package declaring the symbol's object, or
// of the imported package for SymbolPackage.
func (s Symbol) PkgPath() string {
	if pn, ok := s.Object.(*types.PkgName); ok {
		return pn.Imported().Path()
	}

	if s.Object == nil || s.Object.Pkg() == nil {
		return ""
	}

	return s.Object.Pkg().Path()
}
