package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// Module describes the main module of the working directory.
type Module struct {
	Path string // module path from go.mod
	Root string // directory holding go.mod
}

// FindModule walks up from dir to the nearest go.mod and parses its module
// path. It returns nil without error when dir is not inside a module.
func FindModule(dir string) (*Module, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}

	for {
		gomod := filepath.Join(dir, "go.mod")

		data, err := os.ReadFile(gomod)
		if err == nil {
			path := modfile.ModulePath(data)
			if path == "" {
				return nil, fmt.Errorf("%s has no module directive", gomod)
			}

			return &Module{Path: path, Root: dir}, nil
		}

		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", gomod, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}

		dir = parent
	}
}

// Contains reports whether dir lies inside the module tree.
func (m *Module) Contains(dir string) bool {
	rel, err := filepath.Rel(m.Root, dir)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
