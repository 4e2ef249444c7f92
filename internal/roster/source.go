// Package roster supplies the reference entries the matcher is loaded from.
package roster

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-auth/internal/database"
	"github.com/kozaktomas/face-auth/internal/facematch"
)

// Source yields reference entries in enrollment order.
type Source interface {
	Entries(ctx context.Context) ([]facematch.ReferenceEntry, error)
	Name() string
}

// FileSource reads a YAML roster file on every call.
type FileSource struct {
	Path string
}

// NewFileSource creates a source backed by a YAML roster file.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Entries(ctx context.Context) ([]facematch.ReferenceEntry, error) {
	f, err := ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	return f.Entries(), nil
}

func (s *FileSource) Name() string {
	return "file:" + s.Path
}

// DatabaseSource reads references through a database.ReferenceReader.
type DatabaseSource struct {
	reader  database.ReferenceReader
	backend string
}

// NewDatabaseSource wraps reader. backend is used for logging only.
func NewDatabaseSource(reader database.ReferenceReader, backend string) *DatabaseSource {
	return &DatabaseSource{reader: reader, backend: backend}
}

func (s *DatabaseSource) Entries(ctx context.Context) ([]facematch.ReferenceEntry, error) {
	refs, err := s.reader.ListReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list references from %s: %w", s.backend, err)
	}
	return database.ReferenceEntries(refs), nil
}

func (s *DatabaseSource) Name() string {
	return s.backend
}

// StaticSource serves a fixed list of entries.
type StaticSource []facematch.ReferenceEntry

func (s StaticSource) Entries(context.Context) ([]facematch.ReferenceEntry, error) {
	return s, nil
}

func (s StaticSource) Name() string {
	return "static"
}
