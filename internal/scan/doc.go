// Package scan finds configuration sites in type-checked packages.
//
// A configuration site is a call
//
//	CreateMap[From, To](mapper)
//
// whose argument is a variable or field whose type directly embeds
// AutoMapperBase, optionally followed by a chain of
//
//	.ForMember(func(t To) any { return t.Member }, func(f From[, ctx C]) any { return ... })
//
// calls. Calls that only resemble this shape are skipped without a
// diagnostic. Problems inside a recognized site are reported and drop the
// affected mapping or override.
package scan
