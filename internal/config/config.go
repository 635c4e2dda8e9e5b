package config

import (
	"strings"

	"automap-generator/internal/gen"
)

// CurrentVersion is the only configuration version understood.
const CurrentVersion = "1"

// Config is the root structure of automap.yaml.
type Config struct {
	Version  string        `yaml:"version"`
	Patterns StringOrArray `yaml:"packages,omitempty"`
	Tags     StringOrArray `yaml:"tags,omitempty"`
	Output   Output        `yaml:"output,omitempty"`
	Params   Params        `yaml:"params,omitempty"`
	// Parallel bounds concurrent scanning; 0 means one worker per CPU.
	Parallel int  `yaml:"parallel,omitempty"`
	DryRun   bool `yaml:"dry_run,omitempty"`
	// Strict makes warnings fail the run.
	Strict bool `yaml:"strict,omitempty"`
}

// Output controls the emitted files.
type Output struct {
	File     string `yaml:"file,omitempty"`
	BaseFile string `yaml:"base_file,omitempty"`
	// EmitBase is a pointer so an explicit false survives defaulting.
	EmitBase         *bool `yaml:"emit_base,omitempty"`
	DebugUnformatted bool  `yaml:"debug_unformatted,omitempty"`
}

// Params names the parameters of generated methods.
type Params struct {
	Source  string `yaml:"source,omitempty"`
	Context string `yaml:"context,omitempty"`
}

// Defaults used when the file leaves a field empty.
const (
	DefaultPattern      = "./..."
	DefaultOutputFile   = gen.DefaultOutputFile
	DefaultBaseFile     = gen.DefaultBaseFile
	DefaultSourceParam  = gen.DefaultSourceParam
	DefaultContextParam = gen.DefaultContextParam
)

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)

	return cfg
}

// ShouldEmitBase reports whether the base declarations file is written.
func (c *Config) ShouldEmitBase() bool {
	return c.Output.EmitBase == nil || *c.Output.EmitBase
}

// BuildFlags returns the go build flags for package loading.
func (c *Config) BuildFlags() []string {
	if c.Tags.IsEmpty() {
		return nil
	}

	return []string{"-tags=" + strings.Join(c.Tags, ",")}
}
