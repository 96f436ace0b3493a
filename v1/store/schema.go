package store

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Attribute describes one field of a class.
type Attribute struct {
	Range       string `yaml:"range,omitempty" mapstructure:"range" json:"range,omitempty"`
	Required    bool   `yaml:"required,omitempty" mapstructure:"required" json:"required,omitempty"`
	Multivalued bool   `yaml:"multivalued,omitempty" mapstructure:"multivalued" json:"multivalued,omitempty"`
	Identifier  bool   `yaml:"identifier,omitempty" mapstructure:"identifier" json:"identifier,omitempty"`
	Description string `yaml:"description,omitempty" mapstructure:"description" json:"description,omitempty"`
}

// Class is a named object type with attributes.
type Class struct {
	Name        string               `yaml:"name,omitempty" json:"name,omitempty"`
	Description string               `yaml:"description,omitempty" json:"description,omitempty"`
	Attributes  map[string]Attribute `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// Schema is the metadata view associated with a database. It is loaded from
// YAML documents of the form:
//
//	name: people
//	classes:
//	  Person:
//	    attributes:
//	      id: {range: string, identifier: true}
//	      age: {range: integer}
type Schema struct {
	ID      string            `yaml:"id,omitempty" json:"id,omitempty"`
	Name    string            `yaml:"name,omitempty" json:"name,omitempty"`
	Classes map[string]*Class `yaml:"classes,omitempty" json:"classes,omitempty"`
}

// NewSchema returns an empty schema.
func NewSchema(name string) *Schema {
	return &Schema{Name: name, Classes: map[string]*Class{}}
}

// LoadSchema reads a YAML schema document.
func LoadSchema(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	return ParseSchema(b)
}

// ParseSchema decodes a YAML schema document.
func ParseSchema(b []byte) (*Schema, error) {
	s := &Schema{}
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %v: %w", err, ErrInvalidConfig)
	}
	if s.Classes == nil {
		s.Classes = map[string]*Class{}
	}
	for name, c := range s.Classes {
		if c == nil {
			c = &Class{}
			s.Classes[name] = c
		}
		if c.Name == "" {
			c.Name = name
		}
	}
	return s, nil
}

// Class returns the named class or nil.
func (s *Schema) Class(name string) *Class {
	if s == nil {
		return nil
	}
	return s.Classes[name]
}

// ClassNames returns the class names in sorted order.
func (s *Schema) ClassNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Classes))
	for n := range s.Classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MergeClass adds attributes to the named class, creating it when absent.
// Attributes already present are kept.
func (s *Schema) MergeClass(name string, attrs map[string]Attribute) {
	if s.Classes == nil {
		s.Classes = map[string]*Class{}
	}
	c, ok := s.Classes[name]
	if !ok {
		c = &Class{Name: name}
		s.Classes[name] = c
	}
	if c.Attributes == nil {
		c.Attributes = map[string]Attribute{}
	}
	for k, v := range attrs {
		if _, exists := c.Attributes[k]; !exists {
			c.Attributes[k] = v
		}
	}
}

// Marshal renders the schema as YAML.
func (s *Schema) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
