// Package jsonschema decodes and normalizes the JSON-Schema-style object
// descriptions that schema-sync turns into tables.
//
// Only the keywords that affect the table layout are read: name, required,
// properties and, per property, type, format, precision, scale, items and
// uniqueItems. Everything else (title, description, $schema, ...) is ignored.
package jsonschema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DecodeFile reads and decodes a schema file.
func DecodeFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("reading schema file: %w", err)
	}
	s, err := Decode(data)
	if err != nil {
		return Schema{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return s, nil
}

// Decode parses a schema document in YAML or JSON. It walks the YAML node
// tree instead of unmarshalling into a map so that properties keep their
// declared order, which becomes the column order.
func Decode(data []byte) (Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Schema{}, invalidf("", "parse: %v", err)
	}

	root := resolve(&doc)
	if root == nil || root.Kind != yaml.MappingNode {
		return Schema{}, invalidf("", "document must be an object")
	}

	var s Schema
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, resolve(root.Content[i+1])
		switch key {
		case "name":
			if !isString(val) {
				return Schema{}, invalidf("name", "must be a string")
			}
			s.Name = val.Value
		case "required":
			req, err := decodeStrings("required", val)
			if err != nil {
				return Schema{}, err
			}
			s.Required = req
		case "properties":
			props, err := decodeProperties(val)
			if err != nil {
				return Schema{}, err
			}
			s.Properties = props
		}
	}
	return s, nil
}

func decodeProperties(n *yaml.Node) (Properties, error) {
	if n.Kind != yaml.MappingNode {
		return nil, invalidf("properties", "must be an object")
	}
	props := make(Properties, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		f, err := decodeField("properties."+name, resolve(n.Content[i+1]))
		if err != nil {
			return nil, err
		}
		props = append(props, Property{Name: name, Field: f})
	}
	return props, nil
}

func decodeField(path string, n *yaml.Node) (Field, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		return Field{}, invalidf(path, "field definition must be an object")
	}

	var f Field
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, resolve(n.Content[i+1])
		switch key {
		case "type":
			if !isString(val) {
				return Field{}, invalidf(path+".type", "must be a string")
			}
			f.Type = FieldType(val.Value)
		case "format":
			if !isString(val) {
				return Field{}, invalidf(path+".format", "must be a string")
			}
			f.Format = Format(val.Value)
		case "precision":
			if err := val.Decode(&f.Precision); err != nil {
				return Field{}, invalidf(path+".precision", "must be an integer")
			}
		case "scale":
			var scale int
			if err := val.Decode(&scale); err != nil {
				return Field{}, invalidf(path+".scale", "must be an integer")
			}
			f.Scale = &scale
		case "uniqueItems":
			if err := val.Decode(&f.UniqueItems); err != nil {
				return Field{}, invalidf(path+".uniqueItems", "must be a boolean")
			}
		case "items":
			items, err := decodeField(path+".items", val)
			if err != nil {
				return Field{}, err
			}
			f.Items = &items
		}
	}
	return f, nil
}

func decodeStrings(path string, n *yaml.Node) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, invalidf(path, "must be a list of strings")
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		item = resolve(item)
		if !isString(item) {
			return nil, invalidf(path, "must be a list of strings")
		}
		out = append(out, item.Value)
	}
	return out, nil
}

// resolve unwraps document and alias nodes.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) > 0:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode:
			n = n.Alias
		case n.Kind == yaml.DocumentNode:
			return nil
		default:
			return n
		}
	}
	return nil
}

func isString(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}
