// Package gen provides deterministic Go code generation for mapper types.
//
// Generation approach uses text/template + golang.org/x/tools/imports for
// readable, reflection-free Go code. For every package declaring mapper
// types one file is emitted (plus the base definitions when the package
// lacks them) holding, per mapper:
//   - one method per declared pair, assigning each mutable target member
//     from its override, or from the same-named source member (direct
//     assignment or conversion)
//   - a Map dispatch method that asserts the dynamic source type (value or
//     pointer) in declaration order
package gen
