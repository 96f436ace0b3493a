package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

// Supported input and output formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func normalizeFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q, use json or yaml", format)
	}
}

// render encodes v in the given format, always ending with a newline.
func render(v any, format string) ([]byte, error) {
	format, err := normalizeFormat(format)
	if err != nil {
		return nil, err
	}
	if format == formatYAML {
		return yaml.Marshal(v)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// emit writes v to path, or to w when path is empty.
func emit(w io.Writer, v any, format, path string) error {
	b, err := render(v, format)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = w.Write(b)
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Results saved to %s\n", path)
	return err
}

// loadObjects reads a file holding one object or a list of objects. The
// format is taken from the extension unless given.
func loadObjects(path, format string) ([]query.Object, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	format, err := normalizeFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if format == formatJSON {
		return decodeJSONObjects(b)
	}
	return parseObjects(string(b))
}

func decodeJSONObjects(b []byte) ([]query.Object, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return toObjects(query.FromJSONNumbers(v))
}

// parseObjects parses YAML (and therefore JSON) text holding one object or a
// list of objects.
func parseObjects(text string) ([]query.Object, error) {
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return toObjects(v)
}

// parseWhere parses a YAML filter such as "{name: John}". Empty text means
// no filter.
func parseWhere(text string) (query.Where, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var where query.Where
	if err := yaml.Unmarshal([]byte(text), &where); err != nil {
		return nil, fmt.Errorf("invalid where clause %q: %v: %w", text, err, store.ErrInvalidConfig)
	}
	return where, nil
}

func toObjects(v any) ([]query.Object, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []query.Object{t}, nil
	case []any:
		out := make([]query.Object, 0, len(t))
		for i, item := range t {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d is a %T, not an object: %w", i, item, store.ErrUnsupportedValue)
			}
			out = append(out, obj)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("input is a %T, not an object or list of objects: %w", v, store.ErrUnsupportedValue)
	}
}
