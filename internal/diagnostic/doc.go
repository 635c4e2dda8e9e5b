// Package diagnostic provides structured errors and warnings for
// configuration sites found during analysis.
//
// Configuration problems are never Go errors: the offending mapping or
// override is dropped and a Diagnostic is recorded so generation of the
// remaining pairs can continue.
//
// Key capabilities:
//   - Source positions of the offending call site
//   - Type pair and member context
//   - "Did you mean" suggestions for unknown members
package diagnostic
