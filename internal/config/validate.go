package config

import (
	"fmt"
	"go/token"
	"path/filepath"
	"strings"

	"automap-generator/internal/diagnostic"
)

// reservedLocals are names the generated methods use for themselves.
var reservedLocals = map[string]bool{"m": true, "out": true, "v": true, "ok": true}

// Validate checks the configuration before any package is loaded.
func Validate(cfg *Config) diagnostic.Diagnostics {
	var res diagnostic.Diagnostics

	if cfg == nil {
		res.AddError(token.Position{}, diagnostic.CodeInvalidConfig, "config is nil", "", "")
		return res
	}

	if cfg.Version != CurrentVersion {
		res.AddError(token.Position{}, diagnostic.CodeInvalidConfig,
			fmt.Sprintf("unsupported config version %q, expected %q", cfg.Version, CurrentVersion), "", "version")
	}

	for _, p := range cfg.Patterns {
		if strings.TrimSpace(p) == "" {
			res.AddError(token.Position{}, diagnostic.CodeInvalidConfig, "empty package pattern", "", "packages")
		}
	}

	validateFileName(&res, "output.file", cfg.Output.File)
	validateFileName(&res, "output.base_file", cfg.Output.BaseFile)

	if cfg.Output.File != "" && cfg.Output.File == cfg.Output.BaseFile {
		res.AddError(token.Position{}, diagnostic.CodeInvalidConfig,
			fmt.Sprintf("output.file and output.base_file are both %q", cfg.Output.File), "", "output")
	}

	validateParam(&res, "params.source", cfg.Params.Source)
	validateParam(&res, "params.context", cfg.Params.Context)

	if cfg.Params.Source != "" && cfg.Params.Source == cfg.Params.Context {
		res.AddError(token.Position{}, diagnostic.CodeInvalidConfig,
			fmt.Sprintf("params.source and params.context are both %q", cfg.Params.Source), "", "params")
	}

	if cfg.Parallel < 0 {
		res.AddError(token.Position{}, diagnostic.CodeInvalidConfig,
			fmt.Sprintf("parallel must not be negative, got %d", cfg.Parallel), "", "parallel")
	}

	return res
}

func validateFileName(res *diagnostic.Diagnostics, field, name string) {
	switch {
	case name == "":
		res.AddError(token.Position{}, diagnostic.CodeInvalidConfig, field+" is empty", "", field)
	case filepath.Base(name) != name || strings.ContainsAny(name, `/\`):
		res.AddError(token.Position{}, diagnostic.CodeInvalidConfig,
			fmt.Sprintf("%s %q must be a bare file name", field, name), "", field)
	case !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go"):
		res.AddError(token.Position{}, diagnostic.CodeInvalidConfig,
			fmt.Sprintf("%s %q must be a non-test .go file", field, name), "", field)
	}
}

func validateParam(res *diagnostic.Diagnostics, field, name string) {
	switch {
	case !token.IsIdentifier(name):
		res.AddError(token.Position{}, diagnostic.CodeInvalidConfig,
			fmt.Sprintf("%s %q is not a valid identifier", field, name), "", field)
	case name == "_":
		res.AddError(token.Position{}, diagnostic.CodeInvalidConfig, field+" must not be blank", "", field)
	case reservedLocals[name]:
		res.AddError(token.Position{}, diagnostic.CodeInvalidConfig,
			fmt.Sprintf("%s %q clashes with a generated local", field, name), "", field)
	}
}
