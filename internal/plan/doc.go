// Package plan turns the declared mappings of each mapper type into a
// ResolvedMappingPlan consumed by code generation.
//
// Resolution pipeline, per declared pair:
//  1. Flatten the mutable members of the target type (self before embedded).
//  2. For every target member pick a strategy:
//     - a registered override wins
//     - otherwise the same-named readable source member is copied, converted
//     when the types share an underlying type or the numeric conversion
//     widens without loss
//     - otherwise the member keeps its zero value
//  3. Name the per-pair methods without colliding with the mapper's members.
//  4. Emit diagnostics (incompatible same-named members, dispatch name taken).
package plan
