package testutil

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/invoicedesk/internal/pubsub"
)

var _ pubsub.PubSub = (*InMemoryPubSub)(nil)

// InMemoryPubSub records published messages per topic. Publishing to a topic
// can be made to fail or to block until released.
type InMemoryPubSub struct {
	subscribers map[string][]chan *message.Message
	messages    map[string][]*message.Message
	failures    map[string]error
	gates       map[string]chan struct{}
	waiting     map[string]int
	mu          sync.RWMutex
}

// NewInMemoryPubSub creates a new instance of InMemoryPubSub
func NewInMemoryPubSub() *InMemoryPubSub {
	return &InMemoryPubSub{
		subscribers: make(map[string][]chan *message.Message),
		messages:    make(map[string][]*message.Message),
		failures:    make(map[string]error),
		gates:       make(map[string]chan struct{}),
		waiting:     make(map[string]int),
	}
}

// Publish implements pubsub.Publisher interface
func (ps *InMemoryPubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	ps.mu.RLock()
	gate := ps.gates[topic]
	failure := ps.failures[topic]
	ps.mu.RUnlock()

	if gate != nil {
		ps.mu.Lock()
		ps.waiting[topic]++
		ps.mu.Unlock()

		select {
		case <-gate:
		case <-ctx.Done():
		}

		ps.mu.Lock()
		ps.waiting[topic]--
		ps.mu.Unlock()

		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if failure != nil {
		return failure
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.messages[topic] = append(ps.messages[topic], msg)
	for _, ch := range ps.subscribers[topic] {
		select {
		case ch <- msg:
		default:
			// slow subscriber, the message stays available through GetMessages
		}
	}
	return nil
}

// Subscribe implements pubsub.Subscriber interface
func (ps *InMemoryPubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ch := make(chan *message.Message, 100)
	ps.subscribers[topic] = append(ps.subscribers[topic], ch)

	if messages, ok := ps.messages[topic]; ok {
		backlog := append([]*message.Message(nil), messages...)
		go func() {
			for _, msg := range backlog {
				select {
				case ch <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	return ch, nil
}

// Close implements pubsub.PubSub interface
func (ps *InMemoryPubSub) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for _, subscribers := range ps.subscribers {
		for _, ch := range subscribers {
			close(ch)
		}
	}

	ps.subscribers = make(map[string][]chan *message.Message)
	ps.messages = make(map[string][]*message.Message)
	return nil
}

// GetMessages returns all messages published to a topic
func (ps *InMemoryPubSub) GetMessages(topic string) []*message.Message {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return append([]*message.Message(nil), ps.messages[topic]...)
}

// ClearMessages clears all stored messages and publish hooks
func (ps *InMemoryPubSub) ClearMessages() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.messages = make(map[string][]*message.Message)
	ps.failures = make(map[string]error)
	for topic, gate := range ps.gates {
		close(gate)
		delete(ps.gates, topic)
	}
}

// FailTopic makes every publish to topic return err. A nil err clears it.
func (ps *InMemoryPubSub) FailTopic(topic string, err error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if err == nil {
		delete(ps.failures, topic)
		return
	}
	ps.failures[topic] = err
}

// Waiting returns the number of publishes currently held on topic
func (ps *InMemoryPubSub) Waiting(topic string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.waiting[topic]
}

// BlockTopic holds publishes to topic until the returned release func is called
func (ps *InMemoryPubSub) BlockTopic(topic string) (release func()) {
	gate := make(chan struct{})

	ps.mu.Lock()
	ps.gates[topic] = gate
	ps.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			ps.mu.Lock()
			defer ps.mu.Unlock()
			if ps.gates[topic] == gate {
				delete(ps.gates, topic)
				close(gate)
			}
		})
	}
}
