package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `
name: people
classes:
  Person:
    attributes:
      id: {range: string, identifier: true}
      age: {range: integer}
  Address: {}
`

func TestLoadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(personSchema), 0o600))

	s, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, "people", s.Name)
	assert.Equal(t, []string{"Address", "Person"}, s.ClassNames())
	assert.True(t, s.Class("Person").Attributes["id"].Identifier)
	assert.Equal(t, "Address", s.Class("Address").Name)
}

func TestParseSchema_Invalid(t *testing.T) {
	_, err := ParseSchema([]byte("classes: [unclosed"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMergeClass_KeepsExisting(t *testing.T) {
	s := NewSchema("x")
	s.MergeClass("Person", map[string]Attribute{"age": {Range: "integer"}})
	s.MergeClass("Person", map[string]Attribute{"age": {Range: "string"}, "name": {Range: "string"}})

	assert.Equal(t, "integer", s.Class("Person").Attributes["age"].Range)
	assert.Equal(t, "string", s.Class("Person").Attributes["name"].Range)
}
