package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONWriter writes indented JSON artifacts. Each file is written to a
// temporary sibling and renamed so readers never see a partial document.
type JSONWriter struct{}

// NewJSONWriter returns a JSONWriter.
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{}
}

// Write encodes v to path, creating parent directories.
func (w *JSONWriter) Write(path string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("json: encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("json: create dir for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("json: create temp for %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("json: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("json: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("json: rename %s: %w", path, err)
	}
	return nil
}

// ResetDir removes path and recreates it empty, so a run fully regenerates
// its output set.
func (w *JSONWriter) ResetDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("json: clear %s: %w", path, err)
	}
	return os.MkdirAll(path, 0755)
}

// Marshal renders v as two-space indented JSON with a trailing newline and
// without HTML escaping, so URLs stay readable.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadJSON decodes the file at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("json: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json: decode %s: %w", path, err)
	}
	return nil
}
