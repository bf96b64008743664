package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	codeFenceRe  = regexp.MustCompile("(?s)```(?:json|[a-zA-Z]*)?\\s*\\n?(.*?)\\n?```")
	thinkTagRe   = regexp.MustCompile(`(?s)<think>.*?</think>`)
	thoughtRe    = regexp.MustCompile(`(?im)^\s*Thought:\s*(.+)$`)
	actionRe     = regexp.MustCompile(`(?im)^\s*Action:\s*([a-zA-Z0-9_.:-]+)\s*\((.*)\)\s*$`)
	finalAnswerRe = regexp.MustCompile(`(?is)Final Answer:\s*(.+)$`)
)

// ParseResult is the outcome of running the lenient assistant-text parser
// against one turn of model output.
type ParseResult struct {
	// Strategy names which of the five extraction strategies produced the
	// result, for diagnostics and tests.
	Strategy string
	Step     ReActLike
	Raw      string
}

// ReActLike is the minimal shape both the ReAct loop and the Planner parse
// out of free-form model text: a kind tag plus associated payload.
type ReActLike struct {
	Kind     string // "thought" | "action" | "final_answer" | "json" | "raw"
	Text     string
	ToolName string
	ToolArgs string
	JSON     map[string]any
}

// ParseAssistantText runs the five layered strategies from the design
// notes in order -- strict JSON, code-block extraction, tag strip, regex
// span, fallback to raw text -- and returns the first one that succeeds.
func ParseAssistantText(text string) ParseResult {
	if r, ok := tryStrictJSON(text); ok {
		return r
	}
	if r, ok := tryCodeBlock(text); ok {
		return r
	}
	if r, ok := tryTagStrip(text); ok {
		return r
	}
	if r, ok := tryRegexSpan(text); ok {
		return r
	}
	return ParseResult{Strategy: "fallback", Step: ReActLike{Kind: "raw", Text: strings.TrimSpace(text)}, Raw: text}
}

func tryStrictJSON(text string) (ParseResult, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return ParseResult{}, false
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return ParseResult{}, false
	}
	return ParseResult{Strategy: "strict_json", Step: ReActLike{Kind: "json", JSON: doc}, Raw: text}, true
}

func tryCodeBlock(text string) (ParseResult, bool) {
	m := codeFenceRe.FindStringSubmatch(text)
	if m == nil {
		return ParseResult{}, false
	}
	inner := strings.TrimSpace(m[1])
	var doc map[string]any
	if err := json.Unmarshal([]byte(inner), &doc); err == nil {
		return ParseResult{Strategy: "code_block", Step: ReActLike{Kind: "json", JSON: doc}, Raw: text}, true
	}
	if step, ok := extractReActStep(inner); ok {
		return ParseResult{Strategy: "code_block", Step: step, Raw: text}, true
	}
	return ParseResult{}, false
}

func tryTagStrip(text string) (ParseResult, bool) {
	if !thinkTagRe.MatchString(text) {
		return ParseResult{}, false
	}
	stripped := strings.TrimSpace(thinkTagRe.ReplaceAllString(text, ""))
	if stripped == "" {
		return ParseResult{}, false
	}
	if step, ok := extractReActStep(stripped); ok {
		return ParseResult{Strategy: "tag_strip", Step: step, Raw: text}, true
	}
	return ParseResult{Strategy: "tag_strip", Step: ReActLike{Kind: "raw", Text: stripped}, Raw: text}, true
}

func tryRegexSpan(text string) (ParseResult, bool) {
	if step, ok := extractReActStep(text); ok {
		return ParseResult{Strategy: "regex_span", Step: step, Raw: text}, true
	}
	return ParseResult{}, false
}

// extractReActStep looks for a Final Answer, an Action(...) call, or a
// Thought line, in that priority order, since a turn that contains a final
// answer alongside scratch reasoning should terminate the loop.
func extractReActStep(text string) (ReActLike, bool) {
	if m := finalAnswerRe.FindStringSubmatch(text); m != nil {
		return ReActLike{Kind: "final_answer", Text: strings.TrimSpace(m[1])}, true
	}
	if m := actionRe.FindStringSubmatch(text); m != nil {
		return ReActLike{Kind: "action", ToolName: strings.TrimSpace(m[1]), ToolArgs: strings.TrimSpace(m[2])}, true
	}
	if m := thoughtRe.FindStringSubmatch(text); m != nil {
		return ReActLike{Kind: "thought", Text: strings.TrimSpace(m[1])}, true
	}
	return ReActLike{}, false
}
