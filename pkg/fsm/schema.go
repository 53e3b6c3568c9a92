package fsm

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const definitionSchemaURL = "https://fsmflow.dev/schemas/machine.json"

// definitionSchemaJSON accepts a single machine, a list of machines or an
// object with a "machines" list.
const definitionSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$defs": {
    "name": {"type": "string", "minLength": 1},
    "state": {
      "oneOf": [
        {"$ref": "#/$defs/name"},
        {
          "type": "object",
          "required": ["name"],
          "properties": {
            "name": {"$ref": "#/$defs/name"},
            "label": {"type": "string"}
          },
          "additionalProperties": false
        }
      ]
    },
    "source": {
      "oneOf": [
        {"$ref": "#/$defs/name"},
        {"type": "array", "minItems": 1, "items": {"$ref": "#/$defs/name"}}
      ]
    },
    "transition": {
      "type": "object",
      "required": ["trigger", "source"],
      "properties": {
        "trigger": {"$ref": "#/$defs/name"},
        "source": {"$ref": "#/$defs/source"},
        "dest": {"type": "string"}
      },
      "additionalProperties": false
    },
    "machine": {
      "type": "object",
      "required": ["name", "states"],
      "properties": {
        "name": {"$ref": "#/$defs/name"},
        "kind": {"type": "string"},
        "initial": {"type": "string"},
        "states": {"type": "array", "items": {"$ref": "#/$defs/state"}},
        "transitions": {"type": "array", "items": {"$ref": "#/$defs/transition"}}
      },
      "additionalProperties": false
    },
    "machines": {"type": "array", "items": {"$ref": "#/$defs/machine"}}
  },
  "oneOf": [
    {"$ref": "#/$defs/machine"},
    {"$ref": "#/$defs/machines"},
    {
      "type": "object",
      "required": ["machines"],
      "properties": {"machines": {"$ref": "#/$defs/machines"}},
      "additionalProperties": false
    }
  ]
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func definitionSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(definitionSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("unmarshal definition schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(definitionSchemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add definition schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(definitionSchemaURL)
	})
	return compiledSchema, schemaErr
}

// violations flattens a validation error tree into "location: message"
// strings, one per leaf.
func violations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/" + strings.Join(verr.InstanceLocation, "/")
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}
	var out []string
	for _, cause := range verr.Causes {
		out = append(out, violations(cause)...)
	}
	return out
}
