package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/agentmesh/core/internal/agent"
	"github.com/agentmesh/core/internal/llm"
	"github.com/agentmesh/core/pkg/models"
)

// scriptedProvider replays one canned reply per Stream call, letting the
// judge's BaseAgent be driven without a real upstream.
type scriptedProvider struct {
	replies []string
	calls   int
}

func (p *scriptedProvider) Name() string         { return "scripted" }
func (p *scriptedProvider) SupportsTools() bool  { return false }
func (p *scriptedProvider) DefaultModel() string { return "scripted-model" }

func (p *scriptedProvider) Stream(_ context.Context, _ llm.Request) (<-chan models.ChatDelta, error) {
	idx := p.calls
	p.calls++
	reply := ""
	if idx < len(p.replies) {
		reply = p.replies[idx]
	}
	ch := make(chan models.ChatDelta, 2)
	ch <- models.ChatDelta{Content: reply}
	ch <- models.ChatDelta{Done: true, Finish: models.FinishStop}
	close(ch)
	return ch, nil
}

// scriptedParticipant returns a fixed reply (optionally templated with the
// call index) regardless of the message it receives.
type scriptedParticipant struct {
	replies []string
	calls   int
}

func (s *scriptedParticipant) Chat(_ context.Context, _ string, _ ...agent.ChatOption) (string, error) {
	idx := s.calls
	s.calls++
	if idx >= len(s.replies) {
		if len(s.replies) == 0 {
			return "", nil
		}
		return s.replies[len(s.replies)-1], nil
	}
	return s.replies[idx], nil
}

type failingParticipant struct{ err error }

func (f *failingParticipant) Chat(_ context.Context, _ string, _ ...agent.ChatOption) (string, error) {
	return "", f.err
}

func TestSequentialChainsOutputs(t *testing.T) {
	roster := NewRoster()
	roster.Add("a", &scriptedParticipant{replies: []string{"step one done"}})
	roster.Add("b", &scriptedParticipant{replies: []string{"step two done"}})
	o := New(roster, nil)

	results, err := o.Sequential(context.Background(), "do the thing")
	if err != nil {
		t.Fatalf("Sequential: %v", err)
	}
	if len(results) != 2 || results[1].Output != "step two done" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSequentialPropagatesParticipantError(t *testing.T) {
	roster := NewRoster()
	roster.Add("a", &failingParticipant{err: errors.New("boom")})
	o := New(roster, nil)

	_, err := o.Sequential(context.Background(), "task")
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestSequentialEmptyRoster(t *testing.T) {
	o := New(NewRoster(), nil)
	_, err := o.Sequential(context.Background(), "task")
	if !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("expected ErrEmptyRoster, got %v", err)
	}
}

func TestParallelCollectsAllOutputsPreservingOrder(t *testing.T) {
	roster := NewRoster()
	roster.Add("a", &scriptedParticipant{replies: []string{"A"}})
	roster.Add("b", &scriptedParticipant{replies: []string{"B"}})
	roster.Add("c", &scriptedParticipant{replies: []string{"C"}})
	o := New(roster, nil)

	results, err := o.Parallel(context.Background(), "task")
	if err != nil {
		t.Fatalf("Parallel: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"A", "B", "C"} {
		if results[i].Output != want || results[i].Err != nil {
			t.Fatalf("result[%d] = %+v, want output %q", i, results[i], want)
		}
	}
}

func TestParallelContinuesPastOneFailure(t *testing.T) {
	roster := NewRoster()
	roster.Add("a", &scriptedParticipant{replies: []string{"ok"}})
	roster.Add("b", &failingParticipant{err: errors.New("boom")})
	o := New(roster, nil)

	results, err := o.Parallel(context.Background(), "task")
	if err != nil {
		t.Fatalf("Parallel: %v", err)
	}
	if results[0].Err != nil || results[1].Err == nil {
		t.Fatalf("unexpected error distribution: %+v", results)
	}
}

func TestVoteMajorityWins(t *testing.T) {
	roster := NewRoster()
	roster.Add("a", &scriptedParticipant{replies: []string{"Option: red\nRationale: it pops"}})
	roster.Add("b", &scriptedParticipant{replies: []string{"Option: blue\nRationale: calming"}})
	roster.Add("c", &scriptedParticipant{replies: []string{"Option: red\nRationale: agreed"}})
	o := New(roster, nil)

	result, err := o.Vote(context.Background(), "pick a color", []string{"red", "blue"})
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if result.Winner != "red" {
		t.Fatalf("expected red to win, got %q (tally=%v)", result.Winner, result.Tally)
	}
}

func TestVoteRequiresOptions(t *testing.T) {
	roster := NewRoster()
	roster.Add("a", &scriptedParticipant{})
	o := New(roster, nil)

	_, err := o.Vote(context.Background(), "task", nil)
	if err == nil {
		t.Fatal("expected error for empty options")
	}
}

// scriptedJudge lets tests control judge verdicts without a real LLM by
// embedding a BaseAgent whose provider replies with canned judgments.
func newScriptedJudge(t *testing.T, replies []string) *agent.Judge {
	t.Helper()
	client, err := llm.New(llm.Config{Provider: &scriptedProvider{replies: replies}})
	if err != nil {
		t.Fatalf("llm.New: %v", err)
	}
	base := agent.NewBaseAgent("judge", "arbitrator", client, "")
	return agent.NewJudge(base)
}

func TestDebateTerminatesEarlyOnConsensus(t *testing.T) {
	roster := NewRoster()
	roster.Add("a", &scriptedParticipant{replies: []string{"I think X", "still X"}})
	roster.Add("b", &scriptedParticipant{replies: []string{"I agree, X", "yes, X"}})

	judge := newScriptedJudge(t, []string{
		`{"decision":"CONSENSUS","confidence":0.9,"reason":"agreement reached"}`,
	})
	o := New(roster, judge)

	result, err := o.Debate(context.Background(), "decide on X", DebateOptions{Rounds: 5})
	if err != nil {
		t.Fatalf("Debate: %v", err)
	}
	if result.Verdict.Decision != "CONSENSUS" {
		t.Fatalf("expected CONSENSUS verdict, got %+v", result.Verdict)
	}
	if len(result.Transcript) != 2 {
		t.Fatalf("expected debate to stop after 1 round (2 turns), got %d", len(result.Transcript))
	}
}

func TestDebateRequiresJudge(t *testing.T) {
	roster := NewRoster()
	roster.Add("a", &scriptedParticipant{replies: []string{"x"}})
	o := New(roster, nil)

	_, err := o.Debate(context.Background(), "task", DebateOptions{Rounds: 1})
	if !errors.Is(err, ErrNoJudge) {
		t.Fatalf("expected ErrNoJudge, got %v", err)
	}
}

func TestConsensusConvergesWhenJudgeAgrees(t *testing.T) {
	roster := NewRoster()
	roster.Add("a", &scriptedParticipant{replies: []string{"position A"}})
	roster.Add("b", &scriptedParticipant{replies: []string{"position A too"}})

	judge := newScriptedJudge(t, []string{
		`{"decision":"CONSENSUS","confidence":0.8,"reason":"aligned"}`,
	})
	o := New(roster, judge)

	result, err := o.Consensus(context.Background(), "agree on something", ConsensusOptions{MaxRounds: 3, Threshold: 0.6})
	if err != nil {
		t.Fatalf("Consensus: %v", err)
	}
	if !result.Converged || result.Rounds != 1 {
		t.Fatalf("expected convergence after round 1, got %+v", result)
	}
}

func TestConsensusExhaustsMaxRoundsWithoutConverging(t *testing.T) {
	roster := NewRoster()
	roster.Add("a", &scriptedParticipant{replies: []string{"A", "A2"}})

	judge := newScriptedJudge(t, []string{
		`{"decision":"CONTINUE","confidence":0.3,"reason":"not there yet"}`,
		`{"decision":"CONTINUE","confidence":0.3,"reason":"still not there"}`,
	})
	o := New(roster, judge)

	result, err := o.Consensus(context.Background(), "task", ConsensusOptions{MaxRounds: 2, Threshold: 0.6})
	if err != nil {
		t.Fatalf("Consensus: %v", err)
	}
	if result.Converged {
		t.Fatal("expected no convergence")
	}
	if result.Rounds != 2 {
		t.Fatalf("expected both rounds consumed, got %d", result.Rounds)
	}
}
