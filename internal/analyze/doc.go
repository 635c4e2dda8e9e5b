// Package analyze provides package loading and the symbol surface consumed by
// the scanner, the override resolver and the generator.
//
// It uses golang.org/x/tools/go/packages (or an in-memory source set for
// tests) with AST and go/types to expose a small front-end Service:
// symbol resolution, embedding-chain flattening and member listing.
//
// Key types:
//   - TypeRef: package import path + type name (+ type arguments)
//   - MemberRef: a field or getter method reachable on a type
//   - Catalog: a type's flattened members, closest declaration first
//   - Program / Unit: the loaded packages and one compilation unit
package analyze
