// Package pipeline runs one generation pass: load the packages, scan them for
// configuration sites, resolve a plan, render it and emit the files.
package pipeline
