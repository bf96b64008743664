package providers

import "github.com/agentmesh/core/pkg/models"

// functionSchemaParams renders a ToolSchema's parameter list as the
// JSON-Schema "parameters" object every function-calling dialect
// (OpenAI, Anthropic, Bedrock Converse) expects.
func functionSchemaParams(s models.ToolSchema) map[string]any {
	properties := map[string]any{}
	var required []string
	for _, p := range s.Params {
		prop := map[string]any{"type": string(p.Kind)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
