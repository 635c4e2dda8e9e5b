package plan

import (
	"fmt"

	"automap-generator/internal/analyze"
	"automap-generator/internal/base"
	"automap-generator/internal/common"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/model"
)

// Resolver performs the resolution pipeline.
type Resolver struct {
	src analyze.TypeSource
}

// NewResolver creates a new Resolver reading types from src.
func NewResolver(src analyze.TypeSource) *Resolver {
	return &Resolver{src: src}
}

// Resolve plans every mapper model. Models without mappings are skipped.
func (r *Resolver) Resolve(models []model.MapperModel) *ResolvedMappingPlan {
	p := &ResolvedMappingPlan{}

	for _, m := range models {
		if len(m.Mappings) == 0 {
			continue
		}

		p.Mappers = append(p.Mappers, r.resolveMapper(m, &p.Diagnostics))
	}

	return p
}

func (r *Resolver) resolveMapper(m model.MapperModel, diags *diagnostic.Diagnostics) MapperPlan {
	// Generated code lives in the mapper's package, so accessibility is
	// judged from there.
	cat := analyze.NewCatalog(r.src, m.Type.PkgPath)

	taken := make(map[string]bool)
	for _, name := range cat.Names(m.Type) {
		taken[name] = true
	}

	mp := MapperPlan{Type: m.Type}

	if taken[base.DispatchName] {
		diags.AddError(m.Mappings[0].Pos, diagnostic.CodeDispatchNameTaken,
			fmt.Sprintf("%s already has a member named %s; the dispatch method is not generated",
				m.Type.Short(), base.DispatchName),
			m.Type.Short(), "")
	} else {
		mp.Dispatch = base.DispatchName
		taken[base.DispatchName] = true
	}

	for _, tm := range m.Mappings {
		name := common.UniqueName(methodName(tm.From, tm.To), taken)
		taken[name] = true

		mp.Pairs = append(mp.Pairs, r.resolvePair(cat, m.Type.PkgPath, tm, name, diags))
	}

	return mp
}

func (r *Resolver) resolvePair(
	cat *analyze.Catalog,
	outPkg string,
	tm model.TypeMapping,
	method string,
	diags *diagnostic.Diagnostics,
) ResolvedTypePair {
	pair := ResolvedTypePair{Mapping: tm, Method: method}

	for _, target := range cat.Mutable(tm.To) {
		if o, ok := tm.Override(target.Name); ok {
			pair.Assignments = append(pair.Assignments, Assignment{
				Target:      target,
				Strategy:    StrategyOverride,
				Override:    o,
				Explanation: "override",
			})

			continue
		}

		source, ok := cat.Lookup(tm.From, target.Name)
		if !ok || !source.Readable {
			pair.Unmapped = append(pair.Unmapped, target.Name)
			continue
		}

		strategy, expl, ok := determineStrategy(source, target, outPkg)
		if !ok {
			diags.AddWarning(tm.Pos, diagnostic.CodeIncompatibleMember,
				fmt.Sprintf("member %s is not copied: %s", target.Name, expl),
				tm.Pair(), target.Name)

			pair.Unmapped = append(pair.Unmapped, target.Name)

			continue
		}

		pair.Assignments = append(pair.Assignments, Assignment{
			Target:      target,
			Strategy:    strategy,
			Source:      source,
			Explanation: expl,
		})
	}

	return pair
}

// methodName returns the default name of the method mapping from to to, e.g.
// "MapShopOrderToApiOrder".
func methodName(from, to analyze.TypeRef) string {
	return "Map" + typePart(from) + "To" + typePart(to)
}

func typePart(t analyze.TypeRef) string {
	return common.Capitalize(common.PkgAlias(t.PkgPath)) + common.Capitalize(t.Name) + common.Identifier(t.TypeArgs)
}
