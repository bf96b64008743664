// Package bus implements the typed message bus agents and the
// orchestrator communicate over: point-to-point send, broadcast, topic
// publish/subscribe, and correlation-id based request/reply, all backed by
// per-agent bounded priority inboxes.
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentmesh/core/internal/backoff"
	"github.com/agentmesh/core/pkg/models"
)

// DefaultInboxCapacity bounds a newly registered agent's inbox when
// Register is called without an explicit capacity.
const DefaultInboxCapacity = 256

// DefaultHistoryLimit caps the append-only delivered-message history kept
// for diagnostics and replay.
const DefaultHistoryLimit = 1000

// Bus is the message router described by the component design: a registry
// of agent inboxes, topic subscriptions, a capped history, and pending
// request/reply slots.
type Bus struct {
	mu            sync.RWMutex
	inboxes       map[string]*Inbox
	subscriptions map[string]map[string]struct{} // topic -> agent ids
	history       []models.Message
	historyLimit  int
	pending       map[string]chan models.Message // correlation id -> one-shot slot
	retryPolicy   backoff.Policy
}

// New builds an empty Bus.
func New() *Bus {
	return &Bus{
		inboxes:       make(map[string]*Inbox),
		subscriptions: make(map[string]map[string]struct{}),
		pending:       make(map[string]chan models.Message),
		historyLimit:  DefaultHistoryLimit,
		retryPolicy:   backoff.BusPolicy(),
	}
}

// Register adds an agent with a bounded inbox. Registering an id twice
// fails with ErrAlreadyRegistered.
func (b *Bus) Register(agentID string, capacity int) error {
	if capacity <= 0 {
		capacity = DefaultInboxCapacity
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.inboxes[agentID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, agentID)
	}
	b.inboxes[agentID] = NewInbox(capacity)
	return nil
}

// Unregister drains agentID's inbox and removes it from every subscriber
// set. It is a no-op for an unknown id.
func (b *Bus) Unregister(agentID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if inbox, ok := b.inboxes[agentID]; ok {
		inbox.Drain()
		delete(b.inboxes, agentID)
	}
	for topic, subs := range b.subscriptions {
		delete(subs, agentID)
		if len(subs) == 0 {
			delete(b.subscriptions, topic)
		}
	}
}

// sendOptions customizes a single Send call.
type sendOptions struct {
	maxRetries   int
	dropOnFull   bool
}

// SendOption customizes Send's retry and backpressure behavior.
type SendOption func(*sendOptions)

// WithMaxRetries bounds the total attempts for this send; 1 disables
// retrying.
func WithMaxRetries(n int) SendOption {
	return func(o *sendOptions) { o.maxRetries = n }
}

// WithDropOnBackpressure tells Send to silently drop the message instead
// of returning ErrBackpressure when the receiver's inbox is full and no
// lower-priority message can be evicted for it.
func WithDropOnBackpressure() SendOption {
	return func(o *sendOptions) { o.dropOnFull = true }
}

// Send delivers msg to receiver, retrying transient backpressure with
// exponential backoff up to the configured attempts. An unknown receiver
// fails immediately without retrying, since no amount of waiting resolves
// it.
func (b *Bus) Send(ctx context.Context, receiver string, msg models.Message, opts ...SendOption) error {
	settings := sendOptions{maxRetries: 3}
	for _, o := range opts {
		o(&settings)
	}
	msg = stampMessage(msg)

	isRetryable := func(err error) bool { return errors.Is(err, ErrBackpressure) }
	dropped := false
	_, err := backoff.Do(ctx, b.retryPolicy, settings.maxRetries, isRetryable, func(int) (struct{}, error) {
		err := b.enqueueOne(receiver, msg, false)
		if errors.Is(err, ErrBackpressure) && settings.dropOnFull {
			dropped = true
			return struct{}{}, nil
		}
		return struct{}{}, err
	})
	if err != nil {
		if errors.Is(err, backoff.ErrExhausted) && settings.dropOnFull {
			return nil
		}
		return err
	}
	if !dropped {
		b.recordHistory(msg)
	}
	return nil
}

func (b *Bus) enqueueOne(receiver string, msg models.Message, dropOnFull bool) error {
	b.mu.RLock()
	inbox, ok := b.inboxes[receiver]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReceiver, receiver)
	}
	err := inbox.Enqueue(msg)
	if err != nil && errors.Is(err, ErrBackpressure) && dropOnFull {
		return nil
	}
	return err
}

// Broadcast enqueues a copy of msg to every registered agent except sender.
// Fan-out is not atomic: a per-receiver failure is skipped rather than
// aborting the whole broadcast, and only successfully enqueued copies are
// recorded in history.
func (b *Bus) Broadcast(sender string, msg models.Message) {
	msg = stampMessage(msg)
	b.mu.RLock()
	receivers := make([]string, 0, len(b.inboxes))
	for id := range b.inboxes {
		if id != sender {
			receivers = append(receivers, id)
		}
	}
	b.mu.RUnlock()

	for _, id := range receivers {
		copyMsg := msg
		copyMsg.ReceiverID = id
		if err := b.enqueueOne(id, copyMsg, false); err == nil {
			b.recordHistory(copyMsg)
		}
	}
}

// Publish enqueues msg to every current subscriber of topic.
func (b *Bus) Publish(topic string, msg models.Message) {
	msg = stampMessage(msg)
	msg.Topic = topic

	b.mu.RLock()
	subs := make([]string, 0, len(b.subscriptions[topic]))
	for id := range b.subscriptions[topic] {
		subs = append(subs, id)
	}
	b.mu.RUnlock()

	for _, id := range subs {
		copyMsg := msg
		copyMsg.ReceiverID = id
		if err := b.enqueueOne(id, copyMsg, false); err == nil {
			b.recordHistory(copyMsg)
		}
	}
}

// Subscribe adds agentID to topic's subscriber set.
func (b *Bus) Subscribe(agentID, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.subscriptions[topic]
	if !ok {
		subs = make(map[string]struct{})
		b.subscriptions[topic] = subs
	}
	subs[agentID] = struct{}{}
}

// Unsubscribe removes agentID from topic's subscriber set.
func (b *Bus) Unsubscribe(agentID, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subscriptions[topic]; ok {
		delete(subs, agentID)
		if len(subs) == 0 {
			delete(b.subscriptions, topic)
		}
	}
}

// Receive blocks until a message arrives in agentID's inbox or the context
// is cancelled.
func (b *Bus) Receive(ctx context.Context, agentID string) (models.Message, error) {
	b.mu.RLock()
	inbox, ok := b.inboxes[agentID]
	b.mu.RUnlock()
	if !ok {
		return models.Message{}, fmt.Errorf("%w: %s", ErrUnknownReceiver, agentID)
	}

	result := make(chan models.Message, 1)
	go func() {
		if msg, ok := inbox.Dequeue(); ok {
			result <- msg
		}
		close(result)
	}()

	select {
	case msg, ok := <-result:
		if !ok {
			return models.Message{}, ErrInboxClosed
		}
		return msg, nil
	case <-ctx.Done():
		return models.Message{}, ctx.Err()
	}
}

// RequestReply sends msg to receiver with a fresh correlation id, then
// suspends until a reply carrying that correlation id arrives or timeout
// elapses. The pending slot is always cleaned up before returning.
func (b *Bus) RequestReply(ctx context.Context, sender, receiver string, msg models.Message, timeout time.Duration) (models.Message, error) {
	correlationID := uuid.NewString()
	msg.CorrelationID = correlationID
	msg.SenderID = sender

	slot := make(chan models.Message, 1)
	b.mu.Lock()
	b.pending[correlationID] = slot
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, correlationID)
		b.mu.Unlock()
	}()

	if err := b.Send(ctx, receiver, msg); err != nil {
		return models.Message{}, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case reply := <-slot:
		return reply, nil
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return models.Message{}, ctx.Err()
		}
		return models.Message{}, ErrReplyTimeout
	}
}

// Reply delivers msg as a response to a pending RequestReply call matching
// msg.CorrelationID. If no such call is waiting (already timed out, or no
// correlation id set), Reply falls back to a normal Send to msg.ReceiverID.
func (b *Bus) Reply(ctx context.Context, msg models.Message) error {
	if msg.CorrelationID != "" {
		b.mu.RLock()
		slot, ok := b.pending[msg.CorrelationID]
		b.mu.RUnlock()
		if ok {
			select {
			case slot <- msg:
				return nil
			default:
				return nil
			}
		}
	}
	return b.Send(ctx, msg.ReceiverID, msg)
}

// History returns a snapshot of the capped delivered-message log.
func (b *Bus) History() []models.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.Message, len(b.history))
	copy(out, b.history)
	return out
}

func (b *Bus) recordHistory(msg models.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = append(b.history, msg)
	if over := len(b.history) - b.historyLimit; over > 0 {
		b.history = b.history[over:]
	}
}

func stampMessage(msg models.Message) models.Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return msg
}
