package gen

import (
	"go/token"
	"go/types"
	"sort"
	"strconv"
)

// importSpec represents an import statement.
type importSpec struct {
	Alias string // empty when the alias is the package name
	Path  string
}

// importManager hands out import aliases for one generated file. Aliases
// never collide with each other nor with reserved names: package-level
// identifiers of the output package and local names of generated functions.
type importManager struct {
	current  string
	reserved map[string]bool
	imports  map[string]string // import path -> alias
	names    map[string]string // import path -> package name
	inUse    map[string]string // alias -> import path
}

func newImportManager(current string, reserved map[string]bool) *importManager {
	return &importManager{
		current:  current,
		reserved: reserved,
		imports:  make(map[string]string),
		names:    make(map[string]string),
		inUse:    make(map[string]string),
	}
}

// Add registers the package path, declared as name, and returns its alias.
// It returns "" for the current package.
func (im *importManager) Add(path, name string) string {
	if path == "" || path == im.current {
		return ""
	}

	if alias, ok := im.imports[path]; ok {
		return alias
	}

	candidate := name
	if !token.IsIdentifier(candidate) || candidate == "_" {
		candidate = "pkg"
	}

	alias := candidate
	for i := 2; im.taken(alias); i++ {
		alias = candidate + strconv.Itoa(i)
	}

	im.imports[path] = alias
	im.names[path] = name
	im.inUse[alias] = path

	return alias
}

func (im *importManager) taken(alias string) bool {
	if token.IsKeyword(alias) || im.reserved[alias] {
		return true
	}

	_, ok := im.inUse[alias]

	return ok
}

// Qualifier returns a types.Qualifier that registers every package it meets.
func (im *importManager) Qualifier() types.Qualifier {
	return func(pkg *types.Package) string {
		return im.Add(pkg.Path(), pkg.Name())
	}
}

// TypeString renders t as it must be spelled in the generated file.
func (im *importManager) TypeString(t types.Type) string {
	return types.TypeString(t, im.Qualifier())
}

// Specs returns the registered imports sorted by path.
func (im *importManager) Specs() []importSpec {
	specs := make([]importSpec, 0, len(im.imports))

	for path, alias := range im.imports {
		spec := importSpec{Path: path}
		if alias != im.names[path] {
			spec.Alias = alias
		}

		specs = append(specs, spec)
	}

	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Path < specs[j].Path
	})

	return specs
}

// conversionType renders t for use in a conversion, parenthesized when the
// type would otherwise not parse as the callee.
func (im *importManager) conversionType(t types.Type) string {
	s := im.TypeString(t)

	switch types.Unalias(t).(type) {
	case *types.Pointer, *types.Signature, *types.Chan:
		return "(" + s + ")"
	}

	return s
}
