package models

import "time"

// MessageKind discriminates the purpose of a bus Message, mirroring the
// kinds an agent runtime or orchestrator needs to branch on without
// inspecting payload contents.
type MessageKind string

const (
	KindRequest    MessageKind = "request"
	KindResponse   MessageKind = "response"
	KindTask       MessageKind = "task"
	KindTaskResult MessageKind = "task_result"
	KindQuery      MessageKind = "query"
	KindInform     MessageKind = "inform"
	KindSystem     MessageKind = "system"
	KindError      MessageKind = "error"
	KindDebateTurn MessageKind = "debate_turn"
)

// Priority orders delivery within a single agent's inbox; higher values are
// dequeued first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// Payload is the opaque body of a Message plus a side channel of structured
// fields that routing logic (conditional edges, vote tallies, handoff
// reasons) can read without parsing Content.
type Payload struct {
	Content string         `json:"content,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Message is a single record on the bus. See the bus package for the
// delivery and ordering guarantees that apply to it.
type Message struct {
	ID            string      `json:"id"`
	SenderID      string      `json:"sender_id"`
	ReceiverID    string      `json:"receiver_id,omitempty"`
	Topic         string      `json:"topic,omitempty"`
	Kind          MessageKind `json:"kind"`
	Payload       Payload     `json:"payload"`
	Priority      Priority    `json:"priority"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}
