package plan

import (
	"automap-generator/internal/analyze"
	"automap-generator/internal/common"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/model"
)

// ResolvedMappingPlan is the final output of the resolution pipeline.
// It contains everything needed for code generation.
type ResolvedMappingPlan struct {
	// Mappers lists the planned mapper types in declaration order.
	Mappers []MapperPlan
	// Diagnostics contains all warnings and errors from resolution.
	Diagnostics diagnostic.Diagnostics
}

// MapperPlan holds the planned methods of one mapper type.
type MapperPlan struct {
	// Type is the mapper type receiving the generated methods.
	Type analyze.TypeRef
	// Pairs are the resolved mappings, in declaration (dispatch) order.
	Pairs []ResolvedTypePair
	// Dispatch is the name of the polymorphic entry point; empty when the
	// mapper already declares a member with that name.
	Dispatch string
}

// PkgPath returns the package receiving the generated code.
func (m MapperPlan) PkgPath() string {
	return m.Type.PkgPath
}

// ResolvedTypePair represents a fully resolved mapping between two types.
type ResolvedTypePair struct {
	// Mapping is the declaration the pair was planned from.
	Mapping model.TypeMapping
	// Method is the name of the generated mapping method.
	Method string
	// Assignments are the target members to populate, in flattened order.
	Assignments []Assignment
	// Unmapped are mutable target members left at their zero value.
	Unmapped []string
}

// From returns the source type of the pair.
func (p ResolvedTypePair) From() analyze.TypeRef { return p.Mapping.From }

// To returns the target type of the pair.
func (p ResolvedTypePair) To() analyze.TypeRef { return p.Mapping.To }

// UsesContext reports whether any assignment reads the context value.
func (p ResolvedTypePair) UsesContext() bool {
	for _, a := range p.Assignments {
		if a.Strategy == StrategyOverride && a.Override.UsesContext() {
			return true
		}
	}

	return false
}

// Assignment represents a single planned member assignment.
type Assignment struct {
	// Target member to populate.
	Target analyze.MemberRef
	// Strategy describes how the value is produced.
	Strategy ConversionStrategy
	// Source member to read from; unset for StrategyOverride.
	Source analyze.MemberRef
	// Override is the registered expression for StrategyOverride.
	Override model.OverrideExpr
	// Explanation describes why this strategy was chosen.
	Explanation string
}

// ConversionStrategy describes how to produce a target member.
type ConversionStrategy int

const (
	// StrategyOverride - evaluate the user-supplied override expression.
	StrategyOverride ConversionStrategy = iota
	// StrategyDirectAssign - direct assignment (types are identical or assignable).
	StrategyDirectAssign
	// StrategyConvert - explicit Go type conversion.
	StrategyConvert
)

// String returns a human-readable strategy name.
func (s ConversionStrategy) String() string {
	switch s {
	case StrategyOverride:
		return "override"
	case StrategyDirectAssign:
		return "direct_assign"
	case StrategyConvert:
		return "convert"
	default:
		return common.UnknownStr
	}
}
