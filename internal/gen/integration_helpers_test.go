package gen_test

import (
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// runExampleIntegrationTest regenerates an example package with the real
// loader in dry-run mode and checks that the committed package still builds.
func runExampleIntegrationTest(t *testing.T, exampleName string) string {
	t.Helper()

	if testing.Short() {
		t.Skip("runs the go command")
	}

	repoRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}

	cmd := exec.CommandContext(t.Context(), "go", "run", "./cmd/automapgen",
		"-dry-run", "-strict", "./examples/"+exampleName)
	cmd.Dir = repoRoot

	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			t.Fatalf("gen failed: %v\n%s", err, ee.Stderr)
		}

		t.Fatalf("gen failed: %v", err)
	}

	build := exec.CommandContext(t.Context(), "go", "test", "./examples/"+exampleName, "-run", "^$", "-count=1")
	build.Dir = repoRoot

	b, err := build.CombinedOutput()
	if err != nil {
		t.Fatalf("compile failed: %v\n%s", err, string(b))
	}

	return string(out)
}

func TestIntegration_Basic(t *testing.T) {
	out := runExampleIntegrationTest(t, "basic")

	for _, want := range []string{
		"func (m *Mapper) MapApiUserDTOToDomainUser(source api.UserDTO, context any) domain.User {",
		"out.TotalCents = int64(math.Round(source.Amount * 100))",
		"out.CustomerID = uint(source.CustomerID)",
		"out.Info = context.(int)",
		"func (m *Mapper) Map(source, context any) any {",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated code lacks %q:\n%s", want, out)
		}
	}
}
