package bus

import (
	"testing"

	"github.com/agentmesh/core/pkg/models"
)

func TestInboxFIFOWithinSamePriority(t *testing.T) {
	in := NewInbox(10)
	_ = in.Enqueue(models.Message{Payload: models.Payload{Content: "first"}})
	_ = in.Enqueue(models.Message{Payload: models.Payload{Content: "second"}})

	msg, ok := in.Dequeue()
	if !ok || msg.Payload.Content != "first" {
		t.Fatalf("expected first message dequeued first, got %+v ok=%v", msg, ok)
	}
}

func TestInboxEvictsLowerPriorityTailWhenFull(t *testing.T) {
	in := NewInbox(2)
	_ = in.Enqueue(models.Message{Payload: models.Payload{Content: "low1"}, Priority: models.PriorityLow})
	_ = in.Enqueue(models.Message{Payload: models.Payload{Content: "low2"}, Priority: models.PriorityLow})

	err := in.Enqueue(models.Message{Payload: models.Payload{Content: "urgent"}, Priority: models.PriorityUrgent})
	if err != nil {
		t.Fatalf("expected eviction to make room, got error: %v", err)
	}
	if in.Len() != 2 {
		t.Fatalf("expected capacity held at 2, got %d", in.Len())
	}
}

func TestInboxBackpressureWhenNoLowerPriorityToEvict(t *testing.T) {
	in := NewInbox(1)
	_ = in.Enqueue(models.Message{Priority: models.PriorityUrgent})

	err := in.Enqueue(models.Message{Priority: models.PriorityUrgent})
	if err != ErrBackpressure {
		t.Fatalf("expected ErrBackpressure, got %v", err)
	}
}

func TestInboxDrainClosesAndReturnsQueued(t *testing.T) {
	in := NewInbox(10)
	_ = in.Enqueue(models.Message{Payload: models.Payload{Content: "a"}})
	_ = in.Enqueue(models.Message{Payload: models.Payload{Content: "b"}})

	drained := in.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained messages, got %d", len(drained))
	}
	if err := in.Enqueue(models.Message{}); err != ErrInboxClosed {
		t.Fatalf("expected ErrInboxClosed after drain, got %v", err)
	}
}
