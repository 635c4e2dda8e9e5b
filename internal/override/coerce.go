package override

import (
	"fmt"
	"go/ast"
	"go/types"
	"strings"

	"automap-generator/internal/diagnostic"
	"automap-generator/internal/match"
)

// coerce adapts the relocated body text to the type of the target member.
// Override literals return any, so the body's static type may differ from the
// member's: numeric and same-underlying values are converted, interface values
// are asserted, anything else is rejected.
func (rw *rewriter) coerce(body string, expr ast.Expr, target types.Type) (string, *Error) {
	bt := rw.svc.TypeOf(expr)
	if bt == nil || target == nil {
		return body, nil
	}

	if b, ok := bt.(*types.Basic); ok && b.Kind() == types.UntypedNil {
		return body, nil
	}

	res := match.ClassifyExplicit(bt, target)

	switch {
	case res.Copy.Direct():
		return body, nil

	case res.Copy == match.CopyConvert:
		text, err := rw.typeText(target)
		if err != nil {
			return "", err
		}

		if needsParens(target) {
			text = "(" + text + ")"
		}

		return text + "(" + body + ")", nil

	case types.IsInterface(bt):
		text, err := rw.typeText(target)
		if err != nil {
			return "", err
		}

		if !primary(expr) {
			body = "(" + body + ")"
		}

		return body + ".(" + text + ")", nil
	}

	return "", dropped(diagnostic.CodeOverrideTypeMismatch,
		fmt.Sprintf("override value of type %s cannot be stored in %s of type %s",
			types.TypeString(bt, nil), rw.target, types.TypeString(target, nil)),
		rw.target)
}

// typeText renders t with package placeholders, or fails if t names a type
// the output package cannot refer to.
func (rw *rewriter) typeText(t types.Type) (string, *Error) {
	if msg := rw.unrelocatable(t, map[types.Type]bool{}); msg != "" {
		return "", dropped(diagnostic.CodeOverrideUnrelocatable, msg, rw.target)
	}

	return types.TypeString(t, func(pkg *types.Package) string {
		if pkg.Path() == rw.outPkg {
			return ""
		}

		return rw.placeholder(pkg.Path(), pkg.Name())
	}), nil
}

// unrelocatable describes why t cannot be spelled in the output package, or
// returns "".
func (rw *rewriter) unrelocatable(t types.Type, seen map[types.Type]bool) string {
	if seen[t] {
		return ""
	}

	seen[t] = true

	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		return ""

	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() != nil && obj.Pkg().Path() != rw.outPkg {
			switch {
			case !obj.Exported():
				return fmt.Sprintf("type %s.%s is not exported", obj.Pkg().Name(), obj.Name())
			case obj.Pkg().Name() == "main":
				return fmt.Sprintf("type %s is declared in package main", obj.Name())
			case rw.svc.Imports(obj.Pkg().Path(), rw.outPkg):
				return fmt.Sprintf("type %s.%s: %s imports %s", obj.Pkg().Name(), obj.Name(), obj.Pkg().Path(), rw.outPkg)
			}
		}

		if obj.Pkg() != nil && obj.Parent() != obj.Pkg().Scope() {
			return fmt.Sprintf("type %s is declared inside a function", obj.Name())
		}

		for i := range t.TypeArgs().Len() {
			if msg := rw.unrelocatable(t.TypeArgs().At(i), seen); msg != "" {
				return msg
			}
		}

		return ""

	case *types.Pointer:
		return rw.unrelocatable(t.Elem(), seen)
	case *types.Slice:
		return rw.unrelocatable(t.Elem(), seen)
	case *types.Array:
		return rw.unrelocatable(t.Elem(), seen)
	case *types.Chan:
		return rw.unrelocatable(t.Elem(), seen)
	case *types.Map:
		if msg := rw.unrelocatable(t.Key(), seen); msg != "" {
			return msg
		}

		return rw.unrelocatable(t.Elem(), seen)

	case *types.Interface:
		if t.Empty() {
			return ""
		}
	}

	return "type " + types.TypeString(t, nil) + " cannot be spelled in generated code"
}

// needsParens reports whether a conversion to t must parenthesize the type.
func needsParens(t types.Type) bool {
	switch types.Unalias(t).(type) {
	case *types.Pointer, *types.Signature, *types.Chan:
		return true
	}

	return false
}

// primary reports whether expr can be followed by a type assertion without
// parentheses.
func primary(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.Ident, *ast.SelectorExpr, *ast.CallExpr, *ast.IndexExpr, *ast.IndexListExpr,
		*ast.TypeAssertExpr, *ast.ParenExpr, *ast.CompositeLit:
		return true
	case *ast.BasicLit:
		return !strings.HasPrefix(e.Value, "-")
	}

	return false
}
