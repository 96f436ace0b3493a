package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"-q"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func decodeRows(t *testing.T, out string) []map[string]any {
	t.Helper()
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows), out)
	return rows
}

func TestInsertQueryAndDrop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.db")
	handle := "sqlite://" + path

	input := filepath.Join(dir, "people.json")
	require.NoError(t, os.WriteFile(input, []byte(`[
  {"id": "P1", "name": "John", "age": 30},
  {"id": "P2", "name": "Alice", "age": 25}
]`), 0o644))

	out, err := run(t, "-d", handle, "-c", "Person", "insert", input)
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted 2 objects")

	out, err = run(t, "-d", handle, "-c", "Person", "insert", "-i", "{id: P3, name: Bob, age: 41}")
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted 1 objects")

	t.Run("Where", func(t *testing.T) {
		out, err := run(t, "-d", handle, "-c", "Person", "query", "-w", "{name: John}")
		require.NoError(t, err)
		rows := decodeRows(t, out)
		require.Len(t, rows, 1)
		assert.Equal(t, "P1", rows[0]["id"])
	})

	t.Run("SortSelectLimit", func(t *testing.T) {
		out, err := run(t, "-d", handle, "-c", "Person", "query", "--sort=-age", "-s", "id", "-l", "2")
		require.NoError(t, err)
		rows := decodeRows(t, out)
		assert.Equal(t, []map[string]any{{"id": "P3"}, {"id": "P1"}}, rows)
	})

	t.Run("DefaultCollection", func(t *testing.T) {
		out, err := run(t, "-d", handle, "query", "-O", "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "name: Alice")
	})

	t.Run("OutputFile", func(t *testing.T) {
		target := filepath.Join(dir, "out.json")
		out, err := run(t, "-d", handle, "-c", "Person", "query", "-o", target)
		require.NoError(t, err)
		assert.Contains(t, out, "Results saved to")
		b, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Len(t, decodeRows(t, string(b)), 3)
	})

	t.Run("ListCollections", func(t *testing.T) {
		out, err := run(t, "-d", handle, "list-collections")
		require.NoError(t, err)
		assert.Equal(t, "Person\n", out)
	})

	t.Run("Search", func(t *testing.T) {
		out, err := run(t, "-d", handle, "-c", "Person", "search", "John", "-l", "1")
		require.NoError(t, err)
		rows := decodeRows(t, out)
		require.Len(t, rows, 1)
		assert.Equal(t, "John", rows[0]["name"])
		assert.Contains(t, rows[0], "score")
	})

	t.Run("Schema", func(t *testing.T) {
		_, err := run(t, "-d", handle, "schema")
		require.NoError(t, err)
	})

	t.Run("DropCollection", func(t *testing.T) {
		out, err := run(t, "-d", handle, "-c", "Person", "drop")
		require.NoError(t, err)
		assert.Contains(t, out, "Dropped collection 'Person'")

		out, err = run(t, "-d", handle, "list-collections")
		require.NoError(t, err)
		assert.Empty(t, out)

		_, err = run(t, "-d", handle, "-c", "Person", "drop")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = run(t, "-d", handle, "-c", "Person", "drop", "--missing-ok")
		assert.NoError(t, err)
	})

	t.Run("DropDatabase", func(t *testing.T) {
		_, err := run(t, "-d", handle, "drop")
		require.NoError(t, err)
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestDatabaseFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POLYSTORE_DATABASE", "file://"+dir)
	t.Setenv("POLYSTORE_COLLECTION", "notes")

	_, err := run(t, "insert", "-i", "[{title: a}, {title: b}]")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "notes.json"))
	require.NoError(t, err)

	out, err := run(t, "query", "-w", "{title: b}")
	require.NoError(t, err)
	assert.Len(t, decodeRows(t, out), 1)
}

func TestConfigAndSet(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "polystore.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
base_dir: `+dir+`
databases:
  people:
    handle: "sqlite:///{base_dir}/people.db"
    collections:
      Person:
        attributes:
          name:
            range: string
`), 0o644))

	out, err := run(t, "-C", cfgPath, "-d", "people", "-c", "Person", "insert", "-i", "{id: P1, name: John}")
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted 1 objects")

	out, err = run(t, "-C", cfgPath, "list-collections")
	require.NoError(t, err)
	assert.Equal(t, "Person\n", out)

	out, err = run(t, "-C", cfgPath, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "Person")

	// Recreating the collection empties it.
	_, err = run(t, "-C", cfgPath, "-d", "people", "--set", "collections.Person.recreate_if_exists=true", "-c", "Person", "query")
	require.NoError(t, err)
	out, err = run(t, "-C", cfgPath, "-d", "people", "-c", "Person", "query")
	require.NoError(t, err)
	assert.Empty(t, decodeRows(t, out))

	_, err = run(t, "--set", "a=b", "list-collections")
	assert.ErrorIs(t, err, store.ErrInvalidConfig)
}

func TestApplySet(t *testing.T) {
	doc := map[string]any{"handle": "sqlite"}
	require.NoError(t, applySet(doc, "recreate_if_exists=true"))
	require.NoError(t, applySet(doc, "collections.Person.type=Human"))
	require.NoError(t, applySet(doc, "index.vector_length=64"))

	assert.Equal(t, true, doc["recreate_if_exists"])
	assert.Equal(t, map[string]any{"Person": map[string]any{"type": "Human"}}, doc["collections"])
	assert.Equal(t, map[string]any{"vector_length": 64}, doc["index"])

	assert.ErrorIs(t, applySet(doc, "novalue"), store.ErrInvalidConfig)
	assert.ErrorIs(t, applySet(doc, "handle.x=1"), store.ErrInvalidConfig)
	assert.ErrorIs(t, applySet(doc, "a..b=1"), store.ErrInvalidConfig)
}

func TestLoadObjects(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "one.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"id": 7, "score": 0.5, "tags": [1, 2]}`), 0o644))
	objs, err := loadObjects(jsonPath, "")
	require.NoError(t, err)
	assert.Equal(t, []query.Object{{"id": int64(7), "score": 0.5, "tags": []any{int64(1), int64(2)}}}, objs)

	yamlPath := filepath.Join(dir, "many.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("- id: a\n- id: b\n"), 0o644))
	objs, err = loadObjects(yamlPath, "")
	require.NoError(t, err)
	assert.Len(t, objs, 2)

	_, err = loadObjects(filepath.Join(dir, "x.tsv"), "")
	assert.Error(t, err)

	_, err = parseObjects("[1, 2]")
	assert.ErrorIs(t, err, store.ErrUnsupportedValue)

	where, err := parseWhere("")
	require.NoError(t, err)
	assert.Nil(t, where)
	where, err = parseWhere("{name: John, age: 30}")
	require.NoError(t, err)
	assert.Equal(t, query.Where{"name": "John", "age": 30}, where)
}
