package tools

import "testing"

func TestToFunctionSchemasRoundTripsParams(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(echoTool())

	schemas, err := r.ToFunctionSchemas("")
	if err != nil {
		t.Fatalf("ToFunctionSchemas: %v", err)
	}
	if len(schemas) != 1 {
		t.Fatalf("expected 1 schema, got %d", len(schemas))
	}
	fs := schemas[0]
	if fs.Name != "echo" {
		t.Fatalf("unexpected name %q", fs.Name)
	}
	props, ok := fs.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties map, got %T", fs.Parameters["properties"])
	}
	if _, ok := props["message"]; !ok {
		t.Fatal("expected message property to be present")
	}
	required, ok := fs.Parameters["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "message" {
		t.Fatalf("expected required=[message], got %v", fs.Parameters["required"])
	}
}

func TestToMCPSchemasUsesInputSchemaField(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(echoTool())

	schemas, err := r.ToMCPSchemas("")
	if err != nil {
		t.Fatalf("ToMCPSchemas: %v", err)
	}
	if len(schemas) != 1 {
		t.Fatalf("expected 1 schema, got %d", len(schemas))
	}
	if schemas[0].InputSchema["type"] != "object" {
		t.Fatalf("expected object type, got %v", schemas[0].InputSchema["type"])
	}
}

func TestToFunctionSchemasEmptyRegistry(t *testing.T) {
	r := NewRegistry()
	schemas, err := r.ToFunctionSchemas("")
	if err != nil {
		t.Fatalf("ToFunctionSchemas: %v", err)
	}
	if len(schemas) != 0 {
		t.Fatalf("expected no schemas, got %d", len(schemas))
	}
}
