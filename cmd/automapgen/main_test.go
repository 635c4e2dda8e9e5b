package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automap-generator/internal/config"
)

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 0, run(context.Background(), []string{"-h"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-dry-run")
	assert.Contains(t, stderr.String(), "-log-level")
}

func TestRun_BadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(context.Background(), []string{"-nope"}, &stdout, &stderr))
}

func TestRun_InvalidConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-C", t.TempDir(), "-output", "gen.txt"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "[invalid_config]")
	assert.Contains(t, stderr.String(), "1 error(s)")
}

func TestRun_MissingConfigFile(t *testing.T) {
	var stdout, stderr bytes.Buffer

	path := filepath.Join(t.TempDir(), "nope.yaml")
	assert.Equal(t, 1, run(context.Background(), []string{"-config", path}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "failed to read config file")
}

func TestRun_Init(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, defaultConfigFile)

	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-C", dir, "-init", "-tags", "integration", "-strict", "./mappers"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.StringOrArray{"./mappers"}, cfg.Patterns)
	assert.Equal(t, config.StringOrArray{"integration"}, cfg.Tags)
	assert.True(t, cfg.Strict)
	assert.Empty(t, stdout.String())

	stderr.Reset()

	code = run(context.Background(), []string{"-C", dir, "-init", "-log-level", "error"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "config file already exists")

	again, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestRun_InitInvalid(t *testing.T) {
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-C", dir, "-init", "-output", "gen.txt"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "[invalid_config]")

	_, err := os.Stat(filepath.Join(dir, defaultConfigFile))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig(options{dir: dir})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, defaultConfigFile), []byte("parallel: 3\ntags: [a, b]\n"), 0o644))

	cfg, err = loadConfig(options{dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Parallel)
	assert.Equal(t, []string{"-tags=a,b"}, cfg.BuildFlags())
}

func TestOptionsApply(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Parallel = 3

	options{parallel: -1}.apply(cfg, nil)
	assert.Equal(t, 3, cfg.Parallel)
	assert.True(t, cfg.ShouldEmitBase())

	options{
		tags:     "x, y,x,",
		output:   "gen.go",
		baseFile: "base.go",
		noBase:   true,
		parallel: 0,
		dryRun:   true,
		strict:   true,
	}.apply(cfg, []string{"./mappers"})

	assert.Equal(t, config.StringOrArray{"./mappers"}, cfg.Patterns)
	assert.Equal(t, config.StringOrArray{"x", "y"}, cfg.Tags)
	assert.Equal(t, "gen.go", cfg.Output.File)
	assert.Equal(t, "base.go", cfg.Output.BaseFile)
	assert.False(t, cfg.ShouldEmitBase())
	assert.Equal(t, 0, cfg.Parallel)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.Strict)
}
