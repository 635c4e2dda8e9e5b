// Package model holds the mapping model of one analysis pass: for every
// mapper type the ordered list of type pairs declared on it, each with its
// member overrides.
//
// Scanners fill a Builder per compilation unit; Builder.Merge reduces the
// per-unit builders in unit order so the final model does not depend on how
// the scan was scheduled.
package model
