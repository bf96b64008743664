package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/agentmesh/core/pkg/models"
)

// FunctionSchema is the OpenAI-style function-calling dialect: a flat
// name/description/parameters object.
type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// MCPSchema is the Model Context Protocol tool dialect: the same data under
// different field names (inputSchema rather than parameters), matching
// what an MCP client expects from a tools/list response.
type MCPSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToFunctionSchemas renders every registered tool (optionally filtered by
// category) as the OpenAI function-calling dialect.
func (r *Registry) ToFunctionSchemas(category string) ([]FunctionSchema, error) {
	schemas := r.List(category)
	out := make([]FunctionSchema, 0, len(schemas))
	for _, s := range schemas {
		params := paramsObject(s)
		if err := validateJSONSchema(params); err != nil {
			return nil, fmt.Errorf("tool %q: generated invalid schema: %w", s.Name, err)
		}
		out = append(out, FunctionSchema{Name: s.Name, Description: s.Description, Parameters: params})
	}
	return out, nil
}

// ToMCPSchemas renders every registered tool (optionally filtered by
// category) as the MCP tool dialect.
func (r *Registry) ToMCPSchemas(category string) ([]MCPSchema, error) {
	schemas := r.List(category)
	out := make([]MCPSchema, 0, len(schemas))
	for _, s := range schemas {
		params := paramsObject(s)
		if err := validateJSONSchema(params); err != nil {
			return nil, fmt.Errorf("tool %q: generated invalid schema: %w", s.Name, err)
		}
		out = append(out, MCPSchema{Name: s.Name, Description: s.Description, InputSchema: params})
	}
	return out, nil
}

func paramsObject(s models.ToolSchema) map[string]any {
	properties := map[string]any{}
	var required []string
	for _, p := range s.Params {
		prop := map[string]any{"type": jsonSchemaType(p.Kind)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			enum := make([]any, len(p.Enum))
			for i, e := range p.Enum {
				enum[i] = e
			}
			prop["enum"] = enum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func jsonSchemaType(k models.ParamKind) string {
	switch k {
	case models.ParamString, models.ParamNumber, models.ParamBoolean, models.ParamArray, models.ParamObject:
		return string(k)
	default:
		return "string"
	}
}

// validateJSONSchema compiles doc as a JSON Schema draft document, catching
// malformed parameter declarations (a bad enum type, an unsupported kind)
// before they reach a provider or an MCP client that would reject them
// outright.
func validateJSONSchema(doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return err
	}
	_, err = compiler.Compile("schema.json")
	return err
}
