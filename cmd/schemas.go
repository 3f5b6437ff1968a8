package cmd

import (
	"fmt"
	"strings"

	"github.com/hurou927/schema-sync/internal/jsonschema"
)

// loadSchemas decodes the schema files named on the command line, or the
// config's schemas when none are given. Two files describing the same
// table are rejected since their synchronizations would race.
func loadSchemas(args []string) ([]jsonschema.Schema, error) {
	paths := args
	if len(paths) == 0 {
		paths = cfg.Schemas
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no schema files given (pass them as arguments or list them under schemas in the config)")
	}

	schemas := make([]jsonschema.Schema, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := jsonschema.DecodeFile(path)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(s.Name)
		if prev, dup := seen[name]; dup && name != "" {
			return nil, fmt.Errorf("table %q is described by both %s and %s", name, prev, path)
		}
		seen[name] = path
		schemas = append(schemas, s)
	}
	return schemas, nil
}
