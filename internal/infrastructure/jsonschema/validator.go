// Package jsonschema validates manifest and catalogue documents against
// fixed JSON Schemas before their bytes are handed to domain parsing, so
// malformed config fails at the deserialization boundary with a pointer to
// the offending field rather than deep inside entity construction.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const manifestSchemaSource = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "plugins"],
  "properties": {
    "name": {"type": "string"},
    "schemaVersion": {"type": "integer"},
    "plugins": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "repositories": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["type", "id"]
      }
    }
  }
}`

const catalogueSchemaSource = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "repositories"],
  "properties": {
    "id": {"type": "string"},
    "website": {"type": "string"},
    "source": {"type": "string"},
    "license": {"type": "string"},
    "repositories": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["type", "id"],
        "properties": {
          "type": {"type": "string"},
          "id": {"type": "string"},
          "versionPattern": {"type": "string"},
          "downloadUrlTemplate": {"type": "string"},
          "fileNamePattern": {"type": "string"},
          "fileNameTemplate": {"type": "string"}
        }
      }
    }
  }
}`

var (
	once            sync.Once
	manifestSchema  *jsonschema.Schema
	catalogueSchema *jsonschema.Schema
	compileErr      error
)

func compile() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("manifest.json", bytes.NewReader([]byte(manifestSchemaSource))); err != nil {
		compileErr = err
		return
	}
	if err := c.AddResource("catalogue.json", bytes.NewReader([]byte(catalogueSchemaSource))); err != nil {
		compileErr = err
		return
	}
	manifestSchema, compileErr = c.Compile("manifest.json")
	if compileErr != nil {
		return
	}
	catalogueSchema, compileErr = c.Compile("catalogue.json")
}

func validate(pick func() *jsonschema.Schema, data []byte) error {
	once.Do(compile)
	if compileErr != nil {
		return fmt.Errorf("compile schema: %w", compileErr)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return pick().Validate(doc)
}

// ValidateManifest checks data against the manifest file schema.
func ValidateManifest(data []byte) error {
	return validate(func() *jsonschema.Schema { return manifestSchema }, data)
}

// ValidateCatalogue checks data against the per-plugin catalogue file
// schema.
func ValidateCatalogue(data []byte) error {
	return validate(func() *jsonschema.Schema { return catalogueSchema }, data)
}
