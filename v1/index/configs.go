package index

// Config describes an Index declaratively, as it appears in a database
// configuration document.
type Config struct {
	// Name identifies the index within its database.
	Name string `yaml:"name" mapstructure:"name" json:"name"`

	// Metric selects the similarity function, "cosine" by default.
	Metric Metric `yaml:"metric" mapstructure:"metric" json:"metric,omitempty"`

	// Attributes restricts ObjectToText to these fields. Empty keeps all fields.
	Attributes []string `yaml:"attributes" mapstructure:"attributes" json:"attributes,omitempty"`

	// TextTemplate is a text/template rendered with the projected object.
	// Empty renders the object as canonical JSON.
	TextTemplate string `yaml:"text_template" mapstructure:"text_template" json:"text_template,omitempty"`

	// KeepNulls disables the removal of null-valued fields before rendering.
	KeepNulls bool `yaml:"keep_nulls" mapstructure:"keep_nulls" json:"keep_nulls,omitempty"`

	// VectorLength is the dimensionality hint passed to embedders that
	// produce fixed-size vectors.
	VectorLength int `yaml:"vector_length" mapstructure:"vector_length" json:"vector_length,omitempty"`

	// IndexField is the field name under which stores that persist vectors
	// alongside objects keep them.
	IndexField string `yaml:"index_field" mapstructure:"index_field" json:"index_field,omitempty"`
}

const (
	// DefaultVectorLength matches the default dimensionality of the
	// n-gram embedder.
	DefaultVectorLength = 1000

	// DefaultIndexField is the default field name for persisted vectors.
	DefaultIndexField = "__index__"
)
