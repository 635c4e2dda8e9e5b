package gen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"

	"golang.org/x/tools/go/ast/astutil"

	"automap-generator/internal/analyze"
	"automap-generator/internal/model"
	"automap-generator/internal/plan"
)

// buildAssignment returns the right-hand side assigned to the target member.
func buildAssignment(a plan.Assignment, names localNames, im *importManager, outPkg string) (string, error) {
	switch a.Strategy {
	case plan.StrategyOverride:
		return applyOverrideStrategy(a.Override, names, im, outPkg)
	case plan.StrategyDirectAssign:
		return sourceExpr(names.Source, a.Source), nil
	case plan.StrategyConvert:
		return im.conversionType(a.Target.Type) + "(" + sourceExpr(names.Source, a.Source) + ")", nil
	default:
		return "", fmt.Errorf("member %s: unsupported strategy %s", a.Target.Name, a.Strategy)
	}
}

func sourceExpr(source string, m analyze.MemberRef) string {
	if m.Kind == analyze.MemberMethod {
		return source + "." + m.Name + "()"
	}

	return source + "." + m.Name
}

// applyOverrideStrategy substitutes the placeholders of an override body with
// the method's parameter names and the file's import aliases.
func applyOverrideStrategy(o model.OverrideExpr, names localNames, im *importManager, outPkg string) (string, error) {
	fset := token.NewFileSet()

	expr, err := parser.ParseExprFrom(fset, "", o.Body, 0)
	if err != nil {
		return "", fmt.Errorf("parsing override of %s: %w", o.Target, err)
	}

	result := astutil.Apply(expr, func(c *astutil.Cursor) bool {
		switch n := c.Node().(type) {
		case *ast.SelectorExpr:
			x, ok := n.X.(*ast.Ident)
			if !ok {
				return true
			}

			ref, ok := o.Packages[x.Name]
			if !ok {
				return true
			}

			sel := ast.NewIdent(n.Sel.Name)
			if ref.Path == outPkg {
				c.Replace(sel)
			} else {
				c.Replace(&ast.SelectorExpr{X: ast.NewIdent(im.Add(ref.Path, ref.Name)), Sel: sel})
			}

			return false

		case *ast.Ident:
			switch n.Name {
			case model.SourcePlaceholder:
				c.Replace(ast.NewIdent(names.Source))
			case model.ContextPlaceholder:
				c.Replace(ast.NewIdent(names.Context))
			}
		}

		return true
	}, nil)

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, result); err != nil {
		return "", fmt.Errorf("printing override of %s: %w", o.Target, err)
	}

	return buf.String(), nil
}
