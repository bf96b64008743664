package models

// ParamKind enumerates the JSON-Schema-ish primitive kinds a tool parameter
// may declare.
type ParamKind string

const (
	ParamString  ParamKind = "string"
	ParamNumber  ParamKind = "number"
	ParamBoolean ParamKind = "boolean"
	ParamArray   ParamKind = "array"
	ParamObject  ParamKind = "object"
)

// ToolParam describes one named argument accepted by a tool.
type ToolParam struct {
	Name        string    `json:"name"`
	Kind        ParamKind `json:"kind"`
	Required    bool      `json:"required,omitempty"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Default     any       `json:"default,omitempty"`
}

// ToolSchema is the provider-agnostic description of a registered tool. It
// is the source of truth the registry renders into either wire dialect
// (OpenAI function-calling or MCP) on demand.
type ToolSchema struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ToolParam `json:"params"`
	Returns     string      `json:"returns,omitempty"`
	Category    string      `json:"category,omitempty"`
}

// ToolResult is the tagged outcome of a tool execution. Tools never panic or
// return a bare Go error to their caller; a failure is represented as
// Success == false with a human-readable Error.
type ToolResult struct {
	Success  bool           `json:"success"`
	Payload  any            `json:"payload,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Failure builds a failed ToolResult.
func Failure(reason string) *ToolResult {
	return &ToolResult{Success: false, Error: reason}
}

// Succeeded builds a successful ToolResult carrying payload.
func Succeeded(payload any) *ToolResult {
	return &ToolResult{Success: true, Payload: payload}
}
