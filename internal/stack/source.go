package stack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

// EntryFile is the entry artifact each unit directory must contain.
const EntryFile = "unit.yaml"

// Candidate names a unit and the locator of its entry artifact.
type Candidate struct {
	ID    string
	Entry string
}

// Source enumerates candidate units and answers existence checks.
type Source interface {
	Candidates(ctx context.Context) ([]Candidate, error)
	Exists(ctx context.Context, c Candidate) (bool, error)
	Read(ctx context.Context, c Candidate) ([]byte, error)
}

// DirSource discovers units as the subdirectories of Root in FS. A unit
// directory is a candidate even when it lacks its entry file.
type DirSource struct {
	FS   fs.FS
	Root string
}

var _ Source = DirSource{}

// Candidates lists the subdirectories of Root in lexical order.
func (d DirSource) Candidates(_ context.Context) ([]Candidate, error) {
	entries, err := fs.ReadDir(d.FS, d.Root)
	if err != nil {
		return nil, fmt.Errorf("read discovery root %s: %w", d.Root, err)
	}

	var out []Candidate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		out = append(out, Candidate{
			ID:    e.Name(),
			Entry: path.Join(d.Root, e.Name(), EntryFile),
		})
	}
	return out, nil
}

// Exists reports whether the candidate's entry file is present.
// Errors other than "does not exist" are returned.
func (d DirSource) Exists(_ context.Context, c Candidate) (bool, error) {
	info, err := fs.Stat(d.FS, c.Entry)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", c.Entry, err)
	}
	return !info.IsDir(), nil
}

// Read returns the content of the candidate's entry file.
func (d DirSource) Read(_ context.Context, c Candidate) ([]byte, error) {
	return fs.ReadFile(d.FS, c.Entry)
}

// Entry is the entry artifact handed to a unit factory.
type Entry struct {
	Path string
	Data []byte
}

// Decode unmarshals the entry into v. Unknown fields are rejected.
// An empty entry leaves v untouched.
func (e Entry) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(e.Data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s: %w", e.Path, err)
	}
	return nil
}
