package model

import (
	"go/token"
	"strconv"
	"strings"

	"automap-generator/internal/analyze"
)

// Placeholder identifiers used in OverrideExpr.Body. The generator replaces
// them with its own parameter names and import aliases.
const (
	SourcePlaceholder  = "_automap_source_"
	ContextPlaceholder = "_automap_context_"

	packagePlaceholderPrefix = "_automap_pkg_"
)

// PackagePlaceholder returns the placeholder identifier of the i-th package an
// override body refers to.
func PackagePlaceholder(i int) string {
	return packagePlaceholderPrefix + strconv.Itoa(i) + "_"
}

// IsPlaceholder reports whether name is one of the placeholder identifiers.
func IsPlaceholder(name string) bool {
	return name == SourcePlaceholder || name == ContextPlaceholder ||
		strings.HasPrefix(name, packagePlaceholderPrefix)
}

// PackageRef identifies a package referenced from an override body.
type PackageRef struct {
	Path string // import path
	Name string // declared package name
}

// OverrideExpr is a resolved member override. Body is a Go expression in
// which the override's parameters and all package qualifiers have been
// replaced by placeholders, so it can be emitted into any file.
type OverrideExpr struct {
	Target string // target member name

	// Params are the parameter names as written by the user. Len is 1 or 2.
	Params []string
	// ContextType is the type asserted on the context value; empty when the
	// second parameter is an empty interface or absent.
	ContextType string

	Body     string
	Packages map[string]PackageRef // placeholder -> package

	// UsedNames are the unqualified identifiers the body refers to. Generated
	// names must not shadow them.
	UsedNames []string

	Pos token.Position
}

// UsesContext reports whether the override reads the context value.
func (o OverrideExpr) UsesContext() bool {
	return len(o.Params) == 2
}

// TypeMapping is one declared From -> To pair with its overrides in source
// order.
type TypeMapping struct {
	From      analyze.TypeRef
	To        analyze.TypeRef
	Overrides []OverrideExpr
	Pos       token.Position
}

// Pair returns the short "from->to" label used in diagnostics.
func (m TypeMapping) Pair() string {
	return m.From.Short() + "->" + m.To.Short()
}

// Override returns the override registered for target. When several are
// registered the first one wins.
func (m TypeMapping) Override(target string) (OverrideExpr, bool) {
	for _, o := range m.Overrides {
		if o.Target == target {
			return o, true
		}
	}

	return OverrideExpr{}, false
}

// MapperModel is everything declared on one mapper type.
type MapperModel struct {
	Type     analyze.TypeRef
	Mappings []TypeMapping
}
