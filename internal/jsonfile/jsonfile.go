// Package jsonfile writes compact UTF-8 JSON documents to disk.
package jsonfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/goccy/go-json"
)

// Marshal encodes v compactly. HTML characters and non-ASCII text are written
// as-is rather than escaped, and no trailing newline is added.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// Size returns the encoded length of v in bytes.
func Size(v any) (int, error) {
	b, err := Marshal(v)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// Dir writes documents under Root, creating parent directories as needed.
// It is safe for concurrent use and counts what it writes.
type Dir struct {
	Root string

	files atomic.Int64
	bytes atomic.Int64
}

// NewDir returns a writer rooted at root.
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

// Write encodes v to rel (slash separated, relative to Root) and returns the byte count.
func (d *Dir) Write(rel string, v any) (int, error) {
	b, err := Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", rel, err)
	}
	if err := WriteBytes(filepath.Join(d.Root, filepath.FromSlash(rel)), b); err != nil {
		return 0, err
	}
	d.files.Add(1)
	d.bytes.Add(int64(len(b)))
	return len(b), nil
}

// Files returns the number of documents written.
func (d *Dir) Files() int64 { return d.files.Load() }

// Bytes returns the number of bytes written.
func (d *Dir) Bytes() int64 { return d.bytes.Load() }

// WriteFile encodes v to path.
func WriteFile(path string, v any) error {
	b, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return WriteBytes(path, b)
}

// WriteBytes writes b to path, creating parent directories.
func WriteBytes(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes the document at path into v.
func ReadFile(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
