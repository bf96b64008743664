package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentmesh/core/pkg/models"
)

func TestSendDeliversToReceiverInOrder(t *testing.T) {
	b := New()
	if err := b.Register("alice", 0); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ctx := context.Background()
	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		msg := models.Message{SenderID: "bob", Payload: models.Payload{Content: content}}
		if err := b.Send(ctx, "alice", msg); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	for _, want := range contents {
		got, err := b.Receive(ctx, "alice")
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if got.Payload.Content != want {
			t.Fatalf("expected %q next, got %q", want, got.Payload.Content)
		}
	}
}

func TestSendUnknownReceiverFailsImmediately(t *testing.T) {
	b := New()
	err := b.Send(context.Background(), "ghost", models.Message{}, WithMaxRetries(1))
	if !errors.Is(err, ErrUnknownReceiver) {
		t.Fatalf("expected ErrUnknownReceiver, got %v", err)
	}
}

func TestHigherPriorityDequeuedFirst(t *testing.T) {
	b := New()
	_ = b.Register("alice", 0)
	ctx := context.Background()

	_ = b.Send(ctx, "alice", models.Message{Payload: models.Payload{Content: "low"}, Priority: models.PriorityLow})
	_ = b.Send(ctx, "alice", models.Message{Payload: models.Payload{Content: "urgent"}, Priority: models.PriorityUrgent})

	first, err := b.Receive(ctx, "alice")
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if first.Payload.Content != "urgent" {
		t.Fatalf("expected urgent message first, got %q", first.Payload.Content)
	}
}

func TestBroadcastSkipsSenderAndRecordsHistory(t *testing.T) {
	b := New()
	_ = b.Register("a", 0)
	_ = b.Register("b", 0)
	_ = b.Register("c", 0)

	b.Broadcast("a", models.Message{SenderID: "a", Payload: models.Payload{Content: "hi all"}})

	ctx := context.Background()
	if _, err := b.Receive(ctx, "b"); err != nil {
		t.Fatalf("b should have received broadcast: %v", err)
	}
	if _, err := b.Receive(ctx, "c"); err != nil {
		t.Fatalf("c should have received broadcast: %v", err)
	}
	if len(b.History()) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(b.History()))
	}
}

func TestPublishSubscribeDeliversToSubscribersOnly(t *testing.T) {
	b := New()
	_ = b.Register("sub1", 0)
	_ = b.Register("nonsub", 0)
	b.Subscribe("sub1", "news")

	b.Publish("news", models.Message{Payload: models.Payload{Content: "breaking"}})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := b.Receive(ctx, "sub1"); err != nil {
		t.Fatalf("subscriber should have received publish: %v", err)
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	if _, err := b.Receive(ctx2, "nonsub"); err == nil {
		t.Fatal("non-subscriber should not have received the publish")
	}
}

func TestRequestReplyRoundTrips(t *testing.T) {
	b := New()
	_ = b.Register("server", 0)
	ctx := context.Background()

	go func() {
		req, err := b.Receive(ctx, "server")
		if err != nil {
			return
		}
		_ = b.Reply(ctx, models.Message{
			SenderID:      "server",
			ReceiverID:    req.SenderID,
			CorrelationID: req.CorrelationID,
			Payload:       models.Payload{Content: "pong"},
		})
	}()

	reply, err := b.RequestReply(ctx, "client", "server", models.Message{Payload: models.Payload{Content: "ping"}}, time.Second)
	if err != nil {
		t.Fatalf("RequestReply: %v", err)
	}
	if reply.Payload.Content != "pong" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestRequestReplyTimesOut(t *testing.T) {
	b := New()
	_ = b.Register("silent", 0)

	_, err := b.RequestReply(context.Background(), "client", "silent", models.Message{}, 20*time.Millisecond)
	if !errors.Is(err, ErrReplyTimeout) {
		t.Fatalf("expected ErrReplyTimeout, got %v", err)
	}
}

func TestUnregisterDrainsInboxAndSubscriptions(t *testing.T) {
	b := New()
	_ = b.Register("temp", 0)
	b.Subscribe("temp", "topic")
	_ = b.Send(context.Background(), "temp", models.Message{})

	b.Unregister("temp")

	err := b.Send(context.Background(), "temp", models.Message{}, WithMaxRetries(1))
	if !errors.Is(err, ErrUnknownReceiver) {
		t.Fatalf("expected ErrUnknownReceiver after unregister, got %v", err)
	}
}
