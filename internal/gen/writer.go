package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Sink receives generated files.
type Sink interface {
	Emit(ctx context.Context, file GeneratedFile) error
}

// FileSink writes files into their package directories.
type FileSink struct{}

var _ Sink = FileSink{}

// Emit writes file to disk, creating its directory if needed.
func (FileSink) Emit(_ context.Context, file GeneratedFile) error {
	if file.Dir == "" {
		return fmt.Errorf("writing file %s: package %s has no directory", file.Filename, file.PkgPath)
	}

	if err := os.MkdirAll(file.Dir, dirPerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := os.WriteFile(file.Path(), file.Content, filePerm); err != nil {
		return fmt.Errorf("writing file %s: %w", file.Filename, err)
	}

	return nil
}

// MemorySink keeps emitted files in memory, keyed by path.
type MemorySink struct {
	mu    sync.Mutex
	files map[string]GeneratedFile
}

var _ Sink = (*MemorySink)(nil)

// Emit records file, replacing an earlier file with the same path.
func (s *MemorySink) Emit(_ context.Context, file GeneratedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.files == nil {
		s.files = make(map[string]GeneratedFile)
	}

	s.files[file.Path()] = file

	return nil
}

// Files returns the recorded files sorted by path.
func (s *MemorySink) Files() []GeneratedFile {
	s.mu.Lock()
	defer s.mu.Unlock()

	files := make([]GeneratedFile, 0, len(s.files))
	for _, f := range s.files {
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path() < files[j].Path()
	})

	return files
}

// Lookup returns the file recorded at path.
func (s *MemorySink) Lookup(path string) (GeneratedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[filepath.Clean(path)]

	return f, ok
}

// WriteFiles emits all files to sink in order.
func WriteFiles(ctx context.Context, sink Sink, files []GeneratedFile) error {
	for _, file := range files {
		if err := sink.Emit(ctx, file); err != nil {
			return err
		}
	}

	return nil
}
