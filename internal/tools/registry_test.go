package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/agentmesh/core/pkg/models"
)

func echoSchema() models.ToolSchema {
	return models.ToolSchema{
		Name:        "echo",
		Description: "echoes the message parameter",
		Category:    "util",
		Params: []models.ToolParam{
			{Name: "message", Kind: models.ParamString, Required: true},
			{Name: "shout", Kind: models.ParamBoolean},
			{Name: "mode", Kind: models.ParamString, Enum: []string{"upper", "lower"}},
		},
	}
}

func echoTool() Tool {
	return Tool{
		Schema: echoSchema(),
		Run: func(_ context.Context, args map[string]any) (*models.ToolResult, error) {
			msg, _ := args["message"].(string)
			return models.Succeeded(msg), nil
		},
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := r.Register(echoTool())
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestGetAndList(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(echoTool())

	if _, ok := r.Get("missing"); ok {
		t.Fatal("expected missing tool to be absent")
	}
	if _, ok := r.Get("echo"); !ok {
		t.Fatal("expected echo tool to be present")
	}

	all := r.List("")
	if len(all) != 1 || all[0].Name != "echo" {
		t.Fatalf("unexpected list result: %+v", all)
	}
	if filtered := r.List("nonexistent-category"); len(filtered) != 0 {
		t.Fatalf("expected empty filtered list, got %+v", filtered)
	}
}

func TestValidateRequiredAndEnum(t *testing.T) {
	cases := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{"missing required", map[string]any{}, true},
		{"wrong type", map[string]any{"message": 5}, true},
		{"bad enum", map[string]any{"message": "hi", "mode": "sideways"}, true},
		{"valid minimal", map[string]any{"message": "hi"}, false},
		{"valid full", map[string]any{"message": "hi", "shout": true, "mode": "upper"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(echoSchema(), tc.args)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate(%v) error = %v, wantErr %v", tc.args, err, tc.wantErr)
			}
		})
	}
}

func TestExecuteRejectsInvalidArgsWithoutRunning(t *testing.T) {
	r := NewRegistry()
	ran := false
	_ = r.Register(Tool{
		Schema: echoSchema(),
		Run: func(_ context.Context, _ map[string]any) (*models.ToolResult, error) {
			ran = true
			return models.Succeeded("should not happen"), nil
		},
	})

	result, err := r.Execute(context.Background(), "echo", map[string]any{})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result for missing required param")
	}
	if ran {
		t.Fatal("executor should not run when validation fails")
	}
}

func TestExecuteCatchesExecutorError(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(Tool{
		Schema: echoSchema(),
		Run: func(_ context.Context, _ map[string]any) (*models.ToolResult, error) {
			return nil, errors.New("boom")
		},
	})

	result, err := r.Execute(context.Background(), "echo", map[string]any{"message": "hi"})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Success || result.Error != "boom" {
		t.Fatalf("expected failure result carrying executor error, got %+v", result)
	}
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(Tool{
		Schema: echoSchema(),
		Run: func(_ context.Context, _ map[string]any) (*models.ToolResult, error) {
			panic("executor exploded")
		},
	})

	result, err := r.Execute(context.Background(), "echo", map[string]any{"message": "hi"})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result after panic recovery")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "missing", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
