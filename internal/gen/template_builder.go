package gen

import (
	"fmt"
	"text/template"

	"automap-generator/internal/analyze"
	"automap-generator/internal/base"
	"automap-generator/internal/common"
	"automap-generator/internal/plan"
)

// templateData holds all data needed for one generated file.
type templateData struct {
	Header      string
	PackageName string
	Imports     []importSpec
	Mappers     []mapperData
}

type mapperData struct {
	TypeName string
	Methods  []methodData
	Dispatch *dispatchData
}

type methodData struct {
	Name      string
	FromLabel string
	ToLabel   string
	FromType  string
	ToType    string
	Receiver  string
	Source    string
	Context   string
	Out       string
	// Assignments are rendered as "<Out>.<Target> = <Expr>".
	Assignments []assignmentData
}

type assignmentData struct {
	Target string
	Expr   string
}

type dispatchData struct {
	Name     string
	Receiver string
	Source   string
	Context  string
	Arms     []armData
}

type armData struct {
	Type   string
	Method string
}

// localNames are the identifiers a generated method declares.
type localNames struct {
	Receiver string
	Source   string
	Context  string
	Out      string
}

func (g *Generator) buildTemplateData(u *analyze.Unit, mappers []plan.MapperPlan) (*templateData, error) {
	defaults := localNames{
		Receiver: receiverName,
		Source:   g.config.SourceParam,
		Context:  g.config.ContextParam,
		Out:      resultName,
	}

	// Import aliases must not capture names the override bodies refer to or
	// the locals of generated functions.
	reserved := map[string]bool{
		defaults.Receiver: true,
		defaults.Source:   true,
		defaults.Context:  true,
		defaults.Out:      true,
		valueName:         true,
		okName:            true,
	}

	if u.Types != nil {
		for _, name := range u.Types.Scope().Names() {
			reserved[name] = true
		}
	}

	for _, m := range mappers {
		for _, pair := range m.Pairs {
			for _, name := range usedNames(pair) {
				reserved[name] = true
			}
		}
	}

	locals := make([][]localNames, len(mappers))

	for i, m := range mappers {
		locals[i] = make([]localNames, len(m.Pairs))
		for j, pair := range m.Pairs {
			names := pickLocals(defaults, usedNames(pair), reserved)
			locals[i][j] = names

			for _, n := range []string{names.Receiver, names.Source, names.Context, names.Out} {
				reserved[n] = true
			}
		}
	}

	im := newImportManager(u.PkgPath, reserved)

	data := &templateData{Header: base.Header, PackageName: u.Name}

	for i, m := range mappers {
		md := mapperData{TypeName: m.Type.Name}

		for j, pair := range m.Pairs {
			method, err := g.buildMethod(pair, locals[i][j], im, u.PkgPath)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", m.Type.Short(), pair.Method, err)
			}

			md.Methods = append(md.Methods, method)
		}

		if m.Dispatch != "" {
			md.Dispatch = g.buildDispatch(m, defaults, im)
		}

		data.Mappers = append(data.Mappers, md)
	}

	data.Imports = im.Specs()

	return data, nil
}

func (g *Generator) buildMethod(pair plan.ResolvedTypePair, names localNames, im *importManager, outPkg string) (methodData, error) {
	from, err := g.typeString(pair.From(), im)
	if err != nil {
		return methodData{}, err
	}

	to, err := g.typeString(pair.To(), im)
	if err != nil {
		return methodData{}, err
	}

	md := methodData{
		Name:      pair.Method,
		FromLabel: pair.From().Short(),
		ToLabel:   pair.To().Short(),
		FromType:  from,
		ToType:    to,
		Receiver:  names.Receiver,
		Source:    names.Source,
		Context:   names.Context,
		Out:       names.Out,
	}

	for _, a := range pair.Assignments {
		expr, err := buildAssignment(a, names, im, outPkg)
		if err != nil {
			return methodData{}, err
		}

		md.Assignments = append(md.Assignments, assignmentData{Target: a.Target.Name, Expr: expr})
	}

	return md, nil
}

// buildDispatch lists one arm per distinct source type, in declaration order.
func (g *Generator) buildDispatch(m plan.MapperPlan, names localNames, im *importManager) *dispatchData {
	d := &dispatchData{
		Name:     m.Dispatch,
		Receiver: names.Receiver,
		Source:   names.Source,
		Context:  names.Context,
	}

	seen := make(map[analyze.TypeRef]bool)

	for _, pair := range m.Pairs {
		if seen[pair.From()] {
			continue
		}

		seen[pair.From()] = true

		from, err := g.typeString(pair.From(), im)
		if err != nil {
			continue
		}

		d.Arms = append(d.Arms, armData{Type: from, Method: pair.Method})
	}

	return d
}

func (g *Generator) typeString(ref analyze.TypeRef, im *importManager) (string, error) {
	named, ok := g.prog.Lookup(ref)
	if !ok {
		return "", fmt.Errorf("type %s not found", ref)
	}

	return im.TypeString(named), nil
}

// usedNames collects the unqualified identifiers of the pair's overrides.
func usedNames(pair plan.ResolvedTypePair) []string {
	var names []string

	for _, a := range pair.Assignments {
		if a.Strategy == plan.StrategyOverride {
			names = append(names, a.Override.UsedNames...)
		}
	}

	return names
}

// pickLocals keeps the default local names unless one of the method's
// override bodies refers to a name the local would shadow.
func pickLocals(defaults localNames, used []string, reserved map[string]bool) localNames {
	clash := make(map[string]bool, len(used))
	for _, name := range used {
		clash[name] = true
	}

	if !clash[defaults.Receiver] && !clash[defaults.Source] && !clash[defaults.Context] && !clash[defaults.Out] {
		return defaults
	}

	taken := make(map[string]bool, len(reserved))
	for name := range reserved {
		taken[name] = true
	}

	pick := func(name string) string {
		if clash[name] {
			name = common.UniqueName(name, taken)
		}

		taken[name] = true

		return name
	}

	return localNames{
		Receiver: pick(defaults.Receiver),
		Source:   pick(defaults.Source),
		Context:  pick(defaults.Context),
		Out:      pick(defaults.Out),
	}
}

var mapperTemplate = template.Must(template.New("mapper").Parse(`{{.Header}}

package {{.PackageName}}
{{if .Imports}}
import (
{{range .Imports}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})
{{end}}
{{range .Mappers}}{{$mapper := .TypeName}}{{range .Methods}}{{$out := .Out}}
// {{.Name}} maps {{.FromLabel}} to {{.ToLabel}}.
func ({{.Receiver}} *{{$mapper}}) {{.Name}}({{.Source}} {{.FromType}}, {{.Context}} any) {{.ToType}} {
	var {{$out}} {{.ToType}}
{{range .Assignments}}	{{$out}}.{{.Target}} = {{.Expr}}
{{end}}
	return {{$out}}
}
{{end}}{{with .Dispatch}}{{$d := .}}
// {{.Name}} maps {{.Source}} with the first declared mapping whose source type
// matches it. It returns nil when no mapping applies.
func ({{.Receiver}} *{{$mapper}}) {{.Name}}({{.Source}}, {{.Context}} any) any {
{{range .Arms}}	if v, ok := {{$d.Source}}.({{.Type}}); ok {
		return {{$d.Receiver}}.{{.Method}}(v, {{$d.Context}})
	}

	if v, ok := {{$d.Source}}.(*{{.Type}}); ok && v != nil {
		return {{$d.Receiver}}.{{.Method}}(*v, {{$d.Context}})
	}

{{end}}	return nil
}
{{end}}{{end}}`))
