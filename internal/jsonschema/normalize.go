package jsonschema

import "strings"

// Normalize fills in an empty required list and property list when they are
// absent and validates the schema shape. Values supplied by the caller are
// never overwritten, and normalizing twice yields the same schema.
func Normalize(s Schema) (Schema, error) {
	out := Schema{
		Name:       s.Name,
		Required:   s.Required,
		Properties: s.Properties,
	}
	if out.Required == nil {
		out.Required = []string{}
	}
	if out.Properties == nil {
		out.Properties = Properties{}
	}

	if strings.TrimSpace(out.Name) == "" {
		return Schema{}, invalidf("name", "must be a non-empty string")
	}

	seen := make(map[string]bool, len(out.Properties))
	for _, p := range out.Properties {
		if p.Name == "" {
			return Schema{}, invalidf("properties", "property with empty name")
		}
		if seen[p.Name] {
			return Schema{}, invalidf("properties."+p.Name, "declared more than once")
		}
		seen[p.Name] = true

		if err := validateField("properties."+p.Name, p.Field); err != nil {
			return Schema{}, err
		}
	}

	for _, r := range out.Required {
		if !seen[r] {
			return Schema{}, invalidf("required", "%q is not a declared property", r)
		}
	}

	return out, nil
}

// validateField checks the structural invariants of a field. Whether its type
// can be mapped to a column is decided later by the type mapper.
func validateField(path string, f Field) error {
	if f.Precision < 0 {
		return invalidf(path+".precision", "must not be negative")
	}
	if f.Scale != nil && *f.Scale < 0 {
		return invalidf(path+".scale", "must not be negative")
	}
	if f.Type == TypeArray {
		if f.Items == nil {
			return invalidf(path+".items", "required for arrays")
		}
		return validateField(path+".items", *f.Items)
	}
	if f.Items != nil {
		return invalidf(path+".items", "only allowed for arrays")
	}
	return nil
}
