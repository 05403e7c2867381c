package page

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/substitute"
)

// File is a page captured as a JSON snapshot on disk. Substitutions are
// written back to the file.
type File struct {
	path   string
	logger hclog.Logger
	mu     sync.Mutex
}

// NewFile creates a snapshot page backed by path.
func NewFile(path string, logger hclog.Logger) *File {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &File{path: path, logger: logger}
}

// Path returns the snapshot location.
func (f *File) Path() string { return f.path }

// Scan reads the snapshot.
func (f *File) Scan(_ context.Context) (*palette.Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

// Apply edits the snapshot and atomically replaces the file.
func (f *File) Apply(ctx context.Context, req substitute.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	scan, err := f.load()
	if err != nil {
		return err
	}

	doc := NewDocument(scan)
	if err := doc.Apply(ctx, req); err != nil {
		return err
	}
	edited, err := doc.Scan(ctx)
	if err != nil {
		return err
	}

	f.logger.Debug("writing snapshot", "path", f.path, "edits", len(doc.Edits()))
	return f.save(edited)
}

// Close is a no-op.
func (f *File) Close() error { return nil }

func (f *File) load() (*palette.Scan, error) {
	data, err := os.ReadFile(f.path) // #nosec G304 - User-specified snapshot, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	scan, err := palette.ParseScan(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", f.path, err)
	}
	return scan, nil
}

func (f *File) save(scan *palette.Scan) error {
	data, err := json.MarshalIndent(scan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return writeAtomic(f.path, append(data, '\n'))
}

// writeAtomic replaces path with data through a temp file in the same
// directory, keeping the existing file mode.
func writeAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".swatches-"+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Chmod(tmpPath, mode); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
