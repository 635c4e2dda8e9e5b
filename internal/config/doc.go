// Package config defines the automap.yaml configuration file.
//
// Example:
//
//	version: "1"
//	packages: ./...
//	tags: [codegen]
//	output:
//	  file: automap_gen.go
//	  base_file: automap_base.go
//	  emit_base: true
//	params:
//	  source: source
//	  context: context
//	parallel: 4
//
// Every field is optional. Command-line flags override the file.
package config
