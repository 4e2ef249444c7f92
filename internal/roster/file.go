package roster

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/face-auth/internal/facematch"
)

// File is the on-disk YAML roster format:
//
//	model: buffalo_l
//	identities:
//	  - identity: alice
//	    embedding: [0.0123, -0.0456, ...]
type File struct {
	Model      string                     `yaml:"model,omitempty"`
	Identities []facematch.ReferenceEntry `yaml:"identities"`
}

// Entries returns the roster entries in file order.
func (f *File) Entries() []facematch.ReferenceEntry {
	return f.Identities
}

// ReadFile parses a YAML roster.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML roster bytes. Unknown keys are rejected and an empty
// document is an empty roster.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return &f, nil
}

// WriteFile writes the roster atomically via a temp file in the same directory.
func WriteFile(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".roster-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write roster: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close roster: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace roster file: %w", err)
	}
	return nil
}
