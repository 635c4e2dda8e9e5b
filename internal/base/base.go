// Package base holds the fixed definitions emitted into every package that
// declares a mapper type.
//
// User code embeds AutoMapperBase in a struct and configures the mapper with
//
//	CreateMap[a.From, b.To](mapper).
//		ForMember(func(t b.To) any { return t.Color }, func(f a.From) any { return f.Paint() })
//
// The definitions are plain stubs: nothing is recorded at run time. The
// generator reads the calls statically and emits the mapping methods.
package base

import "strings"

// Names recognized by the scanner and the generator.
const (
	MapperBaseName    = "AutoMapperBase"
	ConfigurationName = "AutoMapperConfiguration"
	CreateMapName     = "CreateMap"
	ForMemberName     = "ForMember"
	DispatcherName    = "AutoMapperDispatcher"
	DispatchName      = "Map"
	MapToName         = "MapTo"
)

// Generator identifies the tool in the "Code generated" header.
const Generator = "automap-generator"

// Header is the first line of every emitted file.
const Header = "// Code generated by " + Generator + ". DO NOT EDIT."

const definitions = `
// AutoMapperBase marks a mapper type. Embed it directly in a struct and
// declare mappings with CreateMap.
type AutoMapperBase struct{}

func (AutoMapperBase) autoMapperBase() {}

type autoMapper interface {
	autoMapperBase()
}

// AutoMapperConfiguration collects the member overrides of one mapping.
type AutoMapperConfiguration[From, To any] struct{}

// ForMember overrides how one member of To is produced. toSelect must return a
// field of its argument. fromSelect must be a func(From) any or a
// func(From, C) any whose body is a single return statement; C receives the
// context value passed to the mapping method.
func (c AutoMapperConfiguration[From, To]) ForMember(toSelect func(To) any, fromSelect any) AutoMapperConfiguration[From, To] {
	return c
}

// CreateMap declares a mapping from From to To on mapper.
func CreateMap[From, To any](mapper autoMapper) AutoMapperConfiguration[From, To] {
	return AutoMapperConfiguration[From, To]{}
}

// AutoMapperDispatcher is implemented by every generated mapper type.
type AutoMapperDispatcher interface {
	Map(source, context any) any
}

// MapTo maps source with mapper and returns the result as T. It returns the
// zero T when no declared mapping accepts source or the result is not a T.
func MapTo[T any](mapper AutoMapperDispatcher, source, context any) T {
	out, _ := mapper.Map(source, context).(T)
	return out
}
`

// Source returns the base definitions for a package named pkgName.
func Source(pkgName string) []byte {
	var sb strings.Builder

	sb.WriteString(Header)
	sb.WriteString("\n\npackage ")
	sb.WriteString(pkgName)
	sb.WriteString("\n")
	sb.WriteString(definitions)

	return []byte(sb.String())
}

// Mentions reports whether src refers to the mapper base type. Packages whose
// sources mention it need the base definitions to type-check.
func Mentions(src []byte) bool {
	return strings.Contains(string(src), MapperBaseName)
}

// Declares reports whether src is itself a copy of the base definitions.
func Declares(src []byte) bool {
	return strings.Contains(string(src), "type "+MapperBaseName+" struct")
}
