package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"automap-generator/internal/analyze"
)

func tref(name string) analyze.TypeRef {
	return analyze.TypeRef{PkgPath: "example.com/app", Name: name}
}

func TestBuilder_KeyedByIdentity(t *testing.T) {
	b := NewBuilder()

	// Same name, different packages: never merged.
	other := analyze.TypeRef{PkgPath: "example.com/other", Name: "Mapper"}

	b.Add(tref("Mapper"), TypeMapping{From: tref("A"), To: tref("B")})
	b.Add(other, TypeMapping{From: tref("A"), To: tref("B")})
	b.Add(tref("Mapper"), TypeMapping{From: tref("C"), To: tref("D")})

	models := b.Models()
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, tref("Mapper"), models[0].Type)
	assert.Len(t, models[0].Mappings, 2)
	assert.Equal(t, other, models[1].Type)
	assert.Len(t, models[1].Mappings, 1)
}

func TestBuilder_DuplicatesKept(t *testing.T) {
	b := NewBuilder()
	tm := TypeMapping{From: tref("A"), To: tref("B")}

	b.Add(tref("Mapper"), tm)
	b.Add(tref("Mapper"), tm)
	assert.Len(t, b.Models()[0].Mappings, 2)
}

func TestBuilder_MergeIsOrdered(t *testing.T) {
	first := NewBuilder()
	first.Add(tref("M1"), TypeMapping{From: tref("A"), To: tref("B")})

	second := NewBuilder()
	second.Add(tref("M2"), TypeMapping{From: tref("E"), To: tref("F")})
	second.Add(tref("M1"), TypeMapping{From: tref("C"), To: tref("D")})

	merged := NewBuilder()
	merged.Merge(first)
	merged.Merge(second)
	merged.Merge(nil)

	want := []MapperModel{
		{Type: tref("M1"), Mappings: []TypeMapping{
			{From: tref("A"), To: tref("B")},
			{From: tref("C"), To: tref("D")},
		}},
		{Type: tref("M2"), Mappings: []TypeMapping{
			{From: tref("E"), To: tref("F")},
		}},
	}

	if diff := cmp.Diff(want, merged.Models()); diff != "" {
		t.Errorf("merged models mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeMapping_Override(t *testing.T) {
	tm := TypeMapping{
		From: tref("From"),
		To:   tref("To"),
		Overrides: []OverrideExpr{
			{Target: "Info", Params: []string{"f", "ctx"}, Body: "1"},
			{Target: "Info", Params: []string{"f"}, Body: "2"},
		},
	}

	o, ok := tm.Override("Info")
	assert.True(t, ok)
	assert.Equal(t, "1", o.Body)
	assert.True(t, o.UsesContext())

	_, ok = tm.Override("Text")
	assert.False(t, ok)

	assert.Equal(t, "app.From->app.To", tm.Pair())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "_automap_pkg_0_", PackagePlaceholder(0))
	assert.True(t, IsPlaceholder(PackagePlaceholder(3)))
	assert.True(t, IsPlaceholder(SourcePlaceholder))
	assert.True(t, IsPlaceholder(ContextPlaceholder))
	assert.False(t, IsPlaceholder("source"))
}
