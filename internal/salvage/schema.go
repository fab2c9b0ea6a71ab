package salvage

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validate checks a recovered value against a JSON schema for the
// schema-bound analysis paths. A nil schema accepts anything.
func Validate(value any, schema map[string]any) (bool, []string) {
	if schema == nil {
		return true, nil
	}
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return false, []string{err.Error()}
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaBytes)); err != nil {
		return false, []string{err.Error()}
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return false, []string{err.Error()}
	}
	if err := compiled.Validate(value); err != nil {
		return false, []string{err.Error()}
	}
	return true, nil
}
