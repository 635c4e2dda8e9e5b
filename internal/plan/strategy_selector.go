package plan

import (
	"fmt"
	"go/types"

	"automap-generator/internal/analyze"
	"automap-generator/internal/match"
)

// determineStrategy picks how the readable source member feeds the target
// member, for code living in outPkg. ok is false when no copy is possible.
func determineStrategy(source, target analyze.MemberRef, outPkg string) (ConversionStrategy, string, bool) {
	if source.Type == nil || target.Type == nil {
		return 0, "type info unavailable", false
	}

	res := match.Classify(source.Type, target.Type)

	switch res.Copy {
	case match.CopyIdentical, match.CopyAssign:
		return StrategyDirectAssign, res.Copy.String(), true
	case match.CopyConvert:
		if !spellable(target.Type, outPkg) {
			return 0, "conversion target " + target.Type.String() + " cannot be named in " + outPkg, false
		}

		return StrategyConvert, fmt.Sprintf("%s (%s)", res.Copy, res.Reason), true
	default:
		return 0, res.Reason, false
	}
}

// spellable reports whether code in outPkg can write t in a conversion.
func spellable(t types.Type, outPkg string) bool {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		return true
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil || obj.Pkg().Path() == outPkg {
			return obj.Pkg() == nil || obj.Parent() == obj.Pkg().Scope()
		}

		return obj.Exported() && obj.Parent() == obj.Pkg().Scope() && t.TypeArgs().Len() == 0
	case *types.Pointer:
		return spellable(t.Elem(), outPkg)
	case *types.Slice:
		return spellable(t.Elem(), outPkg)
	case *types.Array:
		return spellable(t.Elem(), outPkg)
	case *types.Map:
		return spellable(t.Key(), outPkg) && spellable(t.Elem(), outPkg)
	default:
		return false
	}
}
