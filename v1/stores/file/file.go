// Package file registers the "file" scheme: a directory holding one JSON or
// YAML document per collection.
//
// Handles:
//
//	file                          a fresh temporary directory
//	file:///data/people           the directory /data/people, JSON files
//	file:///data/people?format=yaml
//
// Writes are buffered in memory and flushed on Commit and Close. Dropping the
// database removes the directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
	"github.com/Aleph-Alpha/polystore/v1/stores/docstore"
)

// Scheme is the locator scheme of this adapter.
const Scheme = "file"

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Register adds the file scheme to r.
func Register(r *store.Registry) {
	r.Register(Scheme, Open)
}

// Open is the store.Factory for the file scheme.
func Open(_ context.Context, loc store.Locator, opts store.Options) (store.Database, error) {
	format := strings.ToLower(loc.Params.Get("format"))
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatYAML:
	case "yml":
		format = FormatYAML
	default:
		return nil, fmt.Errorf("file format %q: %w", format, store.ErrInvalidLocator)
	}

	dir := loc.Host + loc.Path
	if loc.Bare || dir == "" {
		tmp, err := os.MkdirTemp("", "polystore-")
		if err != nil {
			return nil, fmt.Errorf("failed to create temporary directory: %w", err)
		}
		dir = tmp
	} else {
		dir = filepath.Clean(dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return docstore.New(loc, opts, &Persister{Dir: dir, Format: format}), nil
}

// Persister stores each collection as <Dir>/<name>.<Format>.
type Persister struct {
	Dir    string
	Format string
}

func (p *Persister) ext() string { return "." + p.Format }

func (p *Persister) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("collection name %q is not a file name: %w", name, store.ErrInvalidConfig)
	}
	return filepath.Join(p.Dir, name+p.ext()), nil
}

func (p *Persister) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), p.ext()) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), p.ext()))
	}
	sort.Strings(names)
	return names, nil
}

func (p *Persister) Load(_ context.Context, name string) ([]query.Object, error) {
	path, err := p.path(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var rows []query.Object
	switch p.Format {
	case FormatYAML:
		err = yaml.Unmarshal(b, &rows)
	default:
		rows, err = query.UnmarshalObjects(b)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return rows, nil
}

// Save replaces the collection file. The file is written next to its
// destination and renamed into place.
func (p *Persister) Save(_ context.Context, name string, rows []query.Object) error {
	path, err := p.path(name)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []query.Object{}
	}

	var b []byte
	switch p.Format {
	case FormatYAML:
		b, err = yaml.Marshal(rows)
	default:
		b, err = json.MarshalIndent(rows, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %v: %w", name, err, store.ErrUnsupportedValue)
	}

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (p *Persister) Remove(_ context.Context, name string) error {
	path, err := p.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (p *Persister) RemoveAll(context.Context) error {
	return os.RemoveAll(p.Dir)
}

func (p *Persister) Close(context.Context) error { return nil }
