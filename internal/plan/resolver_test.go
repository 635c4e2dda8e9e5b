package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automap-generator/internal/analyze"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/model"
)

var (
	mapperRef = analyze.TypeRef{PkgPath: "example.com/app", Name: "Mapper"}
	fromRef   = analyze.TypeRef{PkgPath: "example.com/a", Name: "From"}
	toRef     = analyze.TypeRef{PkgPath: "example.com/b", Name: "To"}
)

func loadProgram(t *testing.T, mapper string) *analyze.Program {
	t.Helper()

	loader := &analyze.MemoryLoader{Packages: map[string]map[string]string{
		"example.com/a": {"a.go": `package a

type Celsius float64

type From struct {
	Text    string
	Count   int32
	Temp    float64
	Kind    string
	ID      int
	Hidden  bool
	private string
}

func (f From) Label() string { return f.Text + "!" }

type Money struct {
	Amount float64
	Delta  int64
}
`},
		"example.com/b": {"b.go": `package b

type Base struct{ ID int }

type Audit struct{ Hidden bool }

type To struct {
	Base
	*Audit
	Text    string
	Count   int64
	Temp    Celsius
	Kind    int
	Label   string
	Missing bool
	private string
}

type Celsius float64

type Cents struct {
	Amount int
	Delta  uint8
}
`},
		"example.com/app": {"mapper.go": mapper},
	}}

	prog, err := loader.Load(context.Background(), "example.com/app")
	require.NoError(t, err)

	return prog
}

const plainMapper = `package app

import (
	_ "example.com/a"
	_ "example.com/b"
)

type Mapper struct{ AutoMapperBase }
`

func resolve(t *testing.T, mapper string, mappings ...model.TypeMapping) *ResolvedMappingPlan {
	t.Helper()

	prog := loadProgram(t, mapper)

	return NewResolver(prog).Resolve([]model.MapperModel{{Type: mapperRef, Mappings: mappings}})
}

func byTarget(pair ResolvedTypePair) map[string]Assignment {
	out := make(map[string]Assignment)
	for _, a := range pair.Assignments {
		out[a.Target.Name] = a
	}

	return out
}

func TestResolve_SameNameMembers(t *testing.T) {
	p := resolve(t, plainMapper, model.TypeMapping{From: fromRef, To: toRef})

	require.Len(t, p.Mappers, 1)
	require.Len(t, p.Mappers[0].Pairs, 1)

	pair := p.Mappers[0].Pairs[0]
	assert.Equal(t, "MapAFromToBTo", pair.Method)

	var targets []string
	for _, a := range pair.Assignments {
		targets = append(targets, a.Target.Name)
	}

	// Own members first, then the embedded Base.ID. Audit is reached through a
	// pointer and private belongs to another package.
	assert.Equal(t, []string{"Text", "Count", "Temp", "Label", "ID"}, targets)
	assert.Equal(t, []string{"Kind", "Missing"}, pair.Unmapped)

	got := byTarget(pair)
	assert.Equal(t, StrategyDirectAssign, got["Text"].Strategy)
	assert.Equal(t, StrategyConvert, got["Count"].Strategy)
	assert.Equal(t, StrategyConvert, got["Temp"].Strategy)
	assert.Equal(t, StrategyDirectAssign, got["ID"].Strategy)
	assert.Equal(t, analyze.MemberMethod, got["Label"].Source.Kind)

	assert.Equal(t, []string{diagnostic.CodeIncompatibleMember}, p.Diagnostics.Codes())
	assert.Equal(t, "Kind", p.Diagnostics.Warnings[0].FieldPath)
	assert.False(t, p.Diagnostics.HasErrors())
}

func TestResolve_LossyNumericMembers(t *testing.T) {
	p := resolve(t, plainMapper, model.TypeMapping{
		From: analyze.TypeRef{PkgPath: "example.com/a", Name: "Money"},
		To:   analyze.TypeRef{PkgPath: "example.com/b", Name: "Cents"},
	})

	pair := p.Mappers[0].Pairs[0]
	assert.Empty(t, pair.Assignments)
	assert.Equal(t, []string{"Amount", "Delta"}, pair.Unmapped)

	require.Len(t, p.Diagnostics.Warnings, 2)
	assert.Equal(t, []string{diagnostic.CodeIncompatibleMember, diagnostic.CodeIncompatibleMember}, p.Diagnostics.Codes())
	assert.Contains(t, p.Diagnostics.Warnings[0].Message, "may lose data")
	assert.Equal(t, "Delta", p.Diagnostics.Warnings[1].FieldPath)
}

func TestResolve_OverrideWins(t *testing.T) {
	p := resolve(t, plainMapper, model.TypeMapping{
		From: fromRef,
		To:   toRef,
		Overrides: []model.OverrideExpr{
			{Target: "Text", Params: []string{"f"}, Body: `"fixed"`},
			{Target: "Kind", Params: []string{"f", "ctx"}, Body: model.ContextPlaceholder + ".(int)"},
		},
	})

	pair := p.Mappers[0].Pairs[0]
	got := byTarget(pair)

	assert.Equal(t, StrategyOverride, got["Text"].Strategy)
	assert.Equal(t, `"fixed"`, got["Text"].Override.Body)
	assert.Equal(t, StrategyOverride, got["Kind"].Strategy)
	assert.True(t, pair.UsesContext())
	assert.Equal(t, []string{"Missing"}, pair.Unmapped)
	assert.Empty(t, p.Diagnostics.All())
}

func TestResolve_DuplicatePairsGetDistinctNames(t *testing.T) {
	p := resolve(t, plainMapper,
		model.TypeMapping{From: fromRef, To: toRef},
		model.TypeMapping{From: toRef, To: fromRef},
		model.TypeMapping{From: fromRef, To: toRef},
	)

	pairs := p.Mappers[0].Pairs
	require.Len(t, pairs, 3)
	assert.Equal(t, "MapAFromToBTo", pairs[0].Method)
	assert.Equal(t, "MapBToToAFrom", pairs[1].Method)
	assert.Equal(t, "MapAFromToBTo2", pairs[2].Method)
	assert.Equal(t, "Map", p.Mappers[0].Dispatch)
}

func TestResolve_NamesAvoidMapperMembers(t *testing.T) {
	p := resolve(t, `package app

import (
	"example.com/a"
	"example.com/b"
)

type Mapper struct {
	AutoMapperBase
	MapAFromToBTo func(a.From) b.To
}

func (m *Mapper) Map(v any) any { return v }
`, model.TypeMapping{From: fromRef, To: toRef})

	mp := p.Mappers[0]
	assert.Empty(t, mp.Dispatch)
	assert.Equal(t, "MapAFromToBTo2", mp.Pairs[0].Method)

	require.Len(t, p.Diagnostics.Errors, 1)
	assert.Equal(t, diagnostic.CodeDispatchNameTaken, p.Diagnostics.Errors[0].Code)
}

func TestResolve_SkipsEmptyModels(t *testing.T) {
	prog := loadProgram(t, plainMapper)

	p := NewResolver(prog).Resolve([]model.MapperModel{{Type: mapperRef}})
	assert.Empty(t, p.Mappers)
}

func TestConversionStrategyString(t *testing.T) {
	assert.Equal(t, "override", StrategyOverride.String())
	assert.Equal(t, "direct_assign", StrategyDirectAssign.String())
	assert.Equal(t, "convert", StrategyConvert.String())
	assert.Equal(t, "unknown", ConversionStrategy(42).String())
}
