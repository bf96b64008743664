package tools

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/agentmesh/core/pkg/models"
)

// Validate checks args against schema by compiling schema's declared
// parameters into the same JSON Schema document schema.go emits for
// OpenAI/MCP tool listings, then validating the marshaled args against it
// with santhosh-tekuri/jsonschema/v5. It does not mutate args.
func Validate(schema models.ToolSchema, args map[string]any) error {
	compiled, err := compileParamSchema(schema)
	if err != nil {
		return fmt.Errorf("tool %q: compile schema: %w", schema.Name, err)
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("tool %q: encode args: %w", schema.Name, err)
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("tool %q: decode args: %w", schema.Name, err)
	}

	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("tool %q: %w", schema.Name, err)
	}
	return nil
}

var paramSchemaCache sync.Map // marshaled params document -> *jsonschema.Schema

// compileParamSchema compiles schema's parameters into a JSON Schema
// document, caching by the document's own bytes rather than the tool name:
// two registries may give the same name to differently shaped tools, but
// never the same name to the same document twice, so keying on content
// avoids a stale hit across registries.
func compileParamSchema(schema models.ToolSchema) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(paramsObject(schema))
	if err != nil {
		return nil, err
	}
	key := string(raw)
	if cached, ok := paramSchemaCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}

	compiled, err := jsonschema.CompileString(schema.Name+".params.json", key)
	if err != nil {
		return nil, err
	}
	paramSchemaCache.Store(key, compiled)
	return compiled, nil
}
