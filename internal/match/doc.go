// Package match decides how a source member value can be copied into a
// target member and ranks "did you mean" suggestions for misspelled member
// names.
//
// Key functions:
//   - NormalizeIdent: normalizes identifiers for fuzzy matching
//   - Levenshtein: computes edit distance between strings
//   - Classify: how a value of one type may be stored in another
//   - Suggest: nearest member names for an unknown one
package match
