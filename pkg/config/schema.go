package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// JSONSchema generates the JSON schema of the configuration file.
func JSONSchema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		FieldNameTag:               "json",
		RequiredFromJSONSchemaTags: true,
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "ChainDemux configuration"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config schema: %w", err)
	}

	return data, nil
}
