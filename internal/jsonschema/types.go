package jsonschema

// FieldType is the JSON Schema "type" keyword of a property.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
)

// Format is the JSON Schema "format" keyword of a string property.
// Formats outside the known set are kept verbatim and treated as plain text.
type Format string

const (
	FormatNone     Format = ""
	FormatDateTime Format = "date-time"
	FormatDate     Format = "date"
	FormatTime     Format = "time"
	FormatMemo     Format = "memo" // long text
)

// Field describes a single property.
type Field struct {
	Type      FieldType
	Format    Format
	Precision int
	// Scale is nil when the schema does not declare it. A number with
	// precision but no scale maps to a floating point column.
	Scale       *int
	Items       *Field // element definition, only for arrays
	UniqueItems bool
}

// Property is a named field. Properties keep their declared order.
type Property struct {
	Name  string
	Field Field
}

// Properties is the ordered property list of a schema.
type Properties []Property

// Get returns the field declared under name.
func (p Properties) Get(name string) (Field, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Field, true
		}
	}
	return Field{}, false
}

// Names returns the property names in declared order.
func (p Properties) Names() []string {
	names := make([]string, len(p))
	for i, prop := range p {
		names[i] = prop.Name
	}
	return names
}

// Schema is a named object description that maps to one table.
// Required and Properties are nil when the input did not declare them;
// Normalize replaces nil with empty values.
type Schema struct {
	Name       string
	Required   []string
	Properties Properties
}

// IsRequired reports whether name is listed in Required.
func (s Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}
