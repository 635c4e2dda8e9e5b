package gen

import (
	"os"
	"path/filepath"
	"strings"
)

// writeDebugUnformatted writes unformatted code to a sidecar file next to the
// intended output. This is best-effort and should never make generation fail
// harder.
func writeDebugUnformatted(dir, filename string, content []byte) error {
	if dir == "" || filename == "" {
		return nil
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}
	// Keep it a .go file so editors can syntax highlight, but exclude it from
	// builds so a broken sidecar never breaks the package.
	debugName := strings.TrimSuffix(filename, ".go") + ".unformatted.go"
	content = append([]byte("//go:build ignore\n\n"), content...)

	return os.WriteFile(filepath.Join(dir, debugName), content, filePerm)
}
