package bus

import (
	"sync"

	"github.com/agentmesh/core/pkg/models"
)

// numPriorityClasses matches the four models.Priority values; the inbox
// keeps one FIFO queue per class and drains the highest non-empty class
// first, so ties within a class resolve by enqueue order.
const numPriorityClasses = int(models.PriorityUrgent) + 1

// Inbox is a bounded, priority-ordered FIFO queue for one agent. Capacity
// is measured across all priority classes combined.
type Inbox struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	closed   bool
	capacity int
	size     int
	classes  [numPriorityClasses][]models.Message
}

// NewInbox builds an inbox bounded to capacity messages. A non-positive
// capacity is treated as unbounded.
func NewInbox(capacity int) *Inbox {
	in := &Inbox{capacity: capacity}
	in.notEmpty = sync.NewCond(&in.mu)
	return in
}

// Len reports the total number of queued messages across all priorities.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.size
}

// Enqueue adds msg to its priority class. If the inbox is at capacity, it
// evicts the single lowest-priority tail message to make room when msg's
// priority is strictly higher than that tail's class; otherwise it returns
// ErrBackpressure and the caller decides whether to retry, drop, or fail.
func (in *Inbox) Enqueue(msg models.Message) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return ErrInboxClosed
	}
	if in.capacity > 0 && in.size >= in.capacity {
		if !in.evictLowerPriorityTail(msg.Priority) {
			return ErrBackpressure
		}
	}
	class := classIndex(msg.Priority)
	in.classes[class] = append(in.classes[class], msg)
	in.size++
	in.notEmpty.Signal()
	return nil
}

// evictLowerPriorityTail drops the last message of the lowest non-empty
// priority class strictly below incoming, if any, reporting whether room
// was made.
func (in *Inbox) evictLowerPriorityTail(incoming models.Priority) bool {
	for class := 0; class < classIndex(incoming); class++ {
		q := in.classes[class]
		if len(q) == 0 {
			continue
		}
		in.classes[class] = q[:len(q)-1]
		in.size--
		return true
	}
	return false
}

// Dequeue blocks until a message is available or the inbox is closed.
func (in *Inbox) Dequeue() (models.Message, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	for in.size == 0 && !in.closed {
		in.notEmpty.Wait()
	}
	if in.size == 0 {
		return models.Message{}, false
	}
	for class := numPriorityClasses - 1; class >= 0; class-- {
		q := in.classes[class]
		if len(q) == 0 {
			continue
		}
		msg := q[0]
		in.classes[class] = q[1:]
		in.size--
		return msg, true
	}
	return models.Message{}, false
}

// Drain empties and closes the inbox, returning whatever was queued.
// Subsequent Enqueue calls fail; blocked Dequeue calls return false.
func (in *Inbox) Drain() []models.Message {
	in.mu.Lock()
	defer in.mu.Unlock()

	var out []models.Message
	for class := numPriorityClasses - 1; class >= 0; class-- {
		out = append(out, in.classes[class]...)
		in.classes[class] = nil
	}
	in.size = 0
	in.closed = true
	in.notEmpty.Broadcast()
	return out
}

func classIndex(p models.Priority) int {
	if int(p) < 0 {
		return 0
	}
	if int(p) >= numPriorityClasses {
		return numPriorityClasses - 1
	}
	return int(p)
}
