package model

import (
	"automap-generator/internal/analyze"
)

// Builder accumulates MapperModels keyed by mapper type identity. It keeps the
// first-seen order of mapper types and the insertion order of their mappings.
type Builder struct {
	order  []analyze.TypeRef
	models map[analyze.TypeRef]*MapperModel
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{models: make(map[analyze.TypeRef]*MapperModel)}
}

// Add appends mapping to the model of mapper.
func (b *Builder) Add(mapper analyze.TypeRef, mapping TypeMapping) {
	m, ok := b.models[mapper]
	if !ok {
		m = &MapperModel{Type: mapper}
		b.models[mapper] = m
		b.order = append(b.order, mapper)
	}

	m.Mappings = append(m.Mappings, mapping)
}

// Merge appends every mapping of other after those already in b.
func (b *Builder) Merge(other *Builder) {
	if other == nil {
		return
	}

	for _, ref := range other.order {
		for _, tm := range other.models[ref].Mappings {
			b.Add(ref, tm)
		}
	}
}

// Len returns the number of mapper types.
func (b *Builder) Len() int {
	return len(b.order)
}

// Models returns the accumulated models in first-seen order.
func (b *Builder) Models() []MapperModel {
	out := make([]MapperModel, 0, len(b.order))
	for _, ref := range b.order {
		m := b.models[ref]
		out = append(out, MapperModel{
			Type:     m.Type,
			Mappings: append([]TypeMapping(nil), m.Mappings...),
		})
	}

	return out
}
