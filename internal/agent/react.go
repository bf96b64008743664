package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentmesh/core/pkg/models"
)

// DefaultMaxIterations bounds a ReAct loop when the caller doesn't specify
// one.
const DefaultMaxIterations = 5

const reactSystemPrompt = `You are a reasoning agent that solves tasks step by step using tools.
On each turn respond with exactly one of:
  Thought: <your reasoning>
  Action: <tool_name>(<json arguments>)
  Final Answer: <your answer>
When you take an Action, wait for its Observation before continuing.`

// ReAct is the bounded think/act/observe loop: at most MaxIterations turns,
// each attempting to extract a Thought, an Action + Observation, or a
// Final Answer from the model's reply.
type ReAct struct {
	*BaseAgent
	MaxIterations int
}

// NewReAct wraps base with the ReAct system prompt and iteration bound.
// maxIterations of 0 uses DefaultMaxIterations.
func NewReAct(base *BaseAgent, maxIterations int) *ReAct {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	base.Context = NewConversationContext(reactSystemPrompt, DefaultMaxTurns)
	return &ReAct{BaseAgent: base, MaxIterations: maxIterations}
}

// Run is the ReAct loop's outcome: the transcript of parsed steps, the
// final answer text (best-effort if truncated), and a terminal status.
type Run struct {
	Steps  []models.ReActStep
	Answer string
	Status models.RunStatus
}

// Execute drives the loop to completion, a Final Answer, or exhaustion of
// MaxIterations.
func (r *ReAct) Execute(ctx context.Context, task string) (any, error) {
	run := &Run{}
	message := task
	lastAssistantText := ""

	for iter := 0; iter < r.MaxIterations; iter++ {
		reply, err := r.Chat(ctx, message)
		if err != nil {
			run.Status = models.StatusFailed
			return run, err
		}
		lastAssistantText = reply

		parsed := ParseAssistantText(reply)
		switch parsed.Step.Kind {
		case "final_answer":
			run.Steps = append(run.Steps, models.ReActStep{Kind: models.ReActFinal, Text: parsed.Step.Text})
			run.Answer = parsed.Step.Text
			run.Status = models.StatusCompleted
			return run, nil

		case "thought":
			run.Steps = append(run.Steps, models.ReActStep{Kind: models.ReActThought, Text: parsed.Step.Text})
			message = "Continue."

		case "action":
			run.Steps = append(run.Steps, models.ReActStep{
				Kind:     models.ReActAction,
				ToolName: parsed.Step.ToolName,
				ToolArgs: parsed.Step.ToolArgs,
			})
			observation := r.observe(ctx, parsed.Step.ToolName, parsed.Step.ToolArgs)
			run.Steps = append(run.Steps, models.ReActStep{Kind: models.ReActObservation, Observation: observation})
			message = fmt.Sprintf("Observation: %s", observation)

		default:
			// No recognisable pattern: treat the raw text as the final answer.
			run.Answer = reply
			run.Status = models.StatusCompleted
			return run, nil
		}
	}

	run.Answer = lastAssistantText
	run.Status = models.StatusTruncated
	return run, ErrIterationExhausted
}

// observe dispatches a parsed Action to the tool registry and renders its
// result as observation text. A missing registry or unparsable arguments
// produce an observation describing the failure rather than erroring the
// whole loop, since the model can often recover from a bad tool call.
func (r *ReAct) observe(ctx context.Context, toolName, rawArgs string) string {
	if r.Tools == nil {
		return fmt.Sprintf("error: no tool registry configured, cannot run %q", toolName)
	}
	args, err := parseToolArgs(rawArgs)
	if err != nil {
		return fmt.Sprintf("error: could not parse arguments for %q: %v", toolName, err)
	}
	result, err := r.Tools.Execute(ctx, toolName, args)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	if !result.Success {
		return fmt.Sprintf("error: %s", result.Error)
	}
	payload, _ := json.Marshal(result.Payload)
	return string(payload)
}

// parseToolArgs accepts either a JSON object or a loose key=value,
// comma-separated argument list, since models frequently emit
// Action: search(query="go generics", limit=5) rather than valid JSON.
func parseToolArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args, nil
	}
	args = map[string]any{}
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed argument %q", pair)
		}
		key := strings.TrimSpace(kv[0])
		val := strings.Trim(strings.TrimSpace(kv[1]), `"'`)
		args[key] = val
	}
	return args, nil
}
