package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automap-generator/internal/analyze"
	"automap-generator/internal/config"
	"automap-generator/internal/diagnostic"
	"automap-generator/internal/gen"
)

const appPkg = "example.com/app"

func packages(mapper string) map[string]map[string]string {
	return map[string]map[string]string{
		"example.com/a": {"a.go": `package a

type From struct {
	Text  string
	Count int32
	Tags  []string
}
`},
		"example.com/b": {"b.go": `package b

type To struct {
	Text  string
	Count int64
	Tags  map[string]bool
	Info  int
}
`},
		appPkg: {"mapper.go": mapper},
	}
}

const mapper = `package app

import (
	"example.com/a"
	"example.com/b"
)

type Mapper struct{ AutoMapperBase }

func Configure(m *Mapper) {
	CreateMap[a.From, b.To](m).
		ForMember(func(t b.To) any { return t.Info }, func(f a.From) any { return len(f.Tags) })
}
`

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Patterns = config.StringOrArray{appPkg}

	return cfg
}

func loader(pkgs map[string]map[string]string) *analyze.MemoryLoader {
	return &analyze.MemoryLoader{Packages: pkgs, BaseFile: config.DefaultBaseFile, GeneratedFile: config.DefaultOutputFile}
}

func TestRun(t *testing.T) {
	sink := &gen.MemorySink{}

	res, err := Run(context.Background(), Options{
		Config: testConfig(),
		Loader: loader(packages(mapper)),
		Sink:   sink,
	})
	require.NoError(t, err)

	require.Len(t, res.Models, 1)
	assert.Equal(t, "Mapper", res.Models[0].Type.Name)
	require.Len(t, res.Plan.Mappers, 1)

	// Tags exists on both sides with unrelated types.
	assert.Equal(t, []string{diagnostic.CodeIncompatibleMember}, res.Diagnostics.Codes())
	assert.False(t, res.Failed())

	files := sink.Files()
	require.Len(t, files, 2)
	assert.Equal(t, res.Files, []gen.GeneratedFile{
		mustLookup(t, sink, "/example.com/app/automap_gen.go"),
		mustLookup(t, sink, "/example.com/app/automap_base.go"),
	})

	content := string(files[1].Content)
	assert.Contains(t, content, "out.Text = source.Text\n")
	assert.Contains(t, content, "out.Count = int64(source.Count)\n")
	assert.Contains(t, content, "out.Info = len(source.Tags)\n")
	assert.NotContains(t, content, "out.Tags")
}

func mustLookup(t *testing.T, sink *gen.MemorySink, path string) gen.GeneratedFile {
	t.Helper()

	f, ok := sink.Lookup(path)
	require.True(t, ok, path)

	return f
}

func TestRun_Strict(t *testing.T) {
	cfg := testConfig()
	cfg.Strict = true

	res, err := Run(context.Background(), Options{
		Config: cfg,
		Loader: loader(packages(mapper)),
		Sink:   &gen.MemorySink{},
	})
	require.NoError(t, err)

	assert.False(t, res.Diagnostics.HasErrors())
	assert.True(t, res.Failed())
}

func TestRun_DryRunDump(t *testing.T) {
	cfg := testConfig()
	cfg.DryRun = true
	cfg.Parallel = 2
	cfg.Params = config.Params{Source: "src", Context: "ctx"}

	var dump bytes.Buffer

	res, err := Run(context.Background(), Options{
		Config: cfg,
		Loader: loader(packages(mapper)),
		Dump:   &dump,
	})
	require.NoError(t, err)

	assert.Nil(t, res.Module)
	require.NotEmpty(t, res.Files)
	assert.Contains(t, string(res.Files[0].Content), "func (m *Mapper) MapAFromToBTo(src a.From, ctx any) b.To {")
	assert.Contains(t, dump.String(), "Mappings")
	assert.Contains(t, dump.String(), "example.com/a.From")

	_, err = os.Stat(res.Files[0].Path())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Output.File = "out.txt"

	res, err := Run(context.Background(), Options{Config: cfg, Loader: loader(packages(mapper))})
	require.NoError(t, err)

	assert.True(t, res.Failed())
	assert.Equal(t, []string{diagnostic.CodeInvalidConfig}, res.Diagnostics.Codes())
	assert.Nil(t, res.Plan)
	assert.Empty(t, res.Files)
}

func TestRun_NoMappers(t *testing.T) {
	cfg := testConfig()
	cfg.Strict = true

	res, err := Run(context.Background(), Options{
		Config: cfg,
		Loader: loader(packages("package app\n\ntype Plain struct{ Name string }\n")),
		Sink:   &gen.MemorySink{},
	})
	require.NoError(t, err)

	assert.False(t, res.Failed())
	assert.Empty(t, res.Models)
	assert.Empty(t, res.Files)
	require.Len(t, res.Diagnostics.Infos, 1)
	assert.Equal(t, diagnostic.CodeNoMappers, res.Diagnostics.Infos[0].Code)
	assert.Contains(t, res.Diagnostics.Infos[0].Message, appPkg)
}

func TestRun_LoadError(t *testing.T) {
	cfg := testConfig()
	cfg.Patterns = config.StringOrArray{"example.com/missing"}

	_, err := Run(context.Background(), Options{Config: cfg, Loader: loader(packages(mapper)), Sink: &gen.MemorySink{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, analyze.ErrNoPackages)
}

func TestFindModule(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/shop\n\ngo 1.24\n"), 0o644))

	nested := filepath.Join(root, "internal", "dto")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	mod, err := FindModule(nested)
	require.NoError(t, err)
	require.NotNil(t, mod)
	assert.Equal(t, "example.com/shop", mod.Path)
	assert.Equal(t, root, mod.Root)

	assert.True(t, mod.Contains(root))
	assert.True(t, mod.Contains(nested))
	assert.False(t, mod.Contains(filepath.Dir(root)))
	assert.False(t, mod.Contains(filepath.Join(filepath.Dir(root), "..other")))
}

func TestFindModule_BadFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("go 1.24\n"), 0o644))

	_, err := FindModule(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no module directive")
}

func TestKeepInModule(t *testing.T) {
	res := &Result{Module: &Module{Path: "example.com/shop", Root: "/src/shop"}}

	files := res.keepInModule([]gen.GeneratedFile{
		{Dir: "/src/shop/mappers", Filename: "automap_gen.go"},
		{Dir: "/go/pkg/mod/example.com/dep", Filename: "automap_gen.go"},
	})

	require.Len(t, files, 1)
	assert.Equal(t, "/src/shop/mappers", files[0].Dir)
	assert.Equal(t, []string{diagnostic.CodeOutsideModule}, res.Diagnostics.Codes())
}
