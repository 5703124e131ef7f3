package database

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/mcp-resonance-memory-go/internal/apptype"
)

// maxRecordSize bounds a single JSONL line.
const maxRecordSize = 64 << 20

// FileStore keeps the graph as newline-delimited JSON records in one file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load replays the file. A missing file is an empty graph; blank lines are skipped.
func (s *FileStore) Load(ctx context.Context) (*apptype.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return apptype.NewGraph(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open memory file %s: %w", s.path, err)
	}
	defer f.Close()

	g := apptype.NewGraph()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := decodeRecord(g, line, raw); err != nil {
			return nil, fmt.Errorf("%s: %w", s.path, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read memory file %s: %w", s.path, err)
	}
	return g, nil
}

// Save writes the graph to a temp file next to the target, syncs it and
// renames it into place.
func (s *FileStore) Save(ctx context.Context, g *apptype.Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	records, err := encodeGraph(g)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create memory directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	for i, rec := range records {
		if i > 0 {
			if err := w.WriteByte('\n'); err != nil {
				return fmt.Errorf("failed to write memory file: %w", err)
			}
		}
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write memory file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush memory file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync memory file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close memory file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace memory file %s: %w", s.path, err)
	}
	committed = true
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (s *FileStore) Close() error { return nil }
