package messaging

import (
	"fmt"
	"sync"
)

var _ Broker = (*SimpleBroker)(nil)

// SimpleBroker implements the Broker interface
// subscribers is a map where keys are observer IDs and values are channels for receiving events
type SimpleBroker struct {
	subscribers map[string]chan<- Event
	mu          sync.RWMutex
}

// NewBroker creates a new event broker
func NewBroker() *SimpleBroker {
	return &SimpleBroker{
		subscribers: make(map[string]chan<- Event),
	}
}

// Publish delivers an event to its recipients without blocking. Every
// reachable recipient is attempted; recipients whose channel is full are
// reported in the returned error.
func (b *SimpleBroker) Publish(ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	recipients := ev.To
	if len(recipients) == 0 {
		for id := range b.subscribers {
			if id != ev.Source { // Don't send to self
				recipients = append(recipients, id)
			}
		}
	}

	var full []string
	for _, id := range recipients {
		ch, ok := b.subscribers[id]
		if !ok {
			continue
		}

		select {
		case ch <- ev:
		default:
			full = append(full, id)
		}
	}

	if len(full) > 0 {
		return fmt.Errorf("dropped %s event for full subscribers %v", ev.Kind, full)
	}
	return nil
}

// Subscribe registers an observer to receive events
func (b *SimpleBroker) Subscribe(id string, ch chan<- Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; exists {
		return fmt.Errorf("%s is already subscribed", id)
	}

	b.subscribers[id] = ch
	return nil
}

// Unsubscribe removes an observer's subscription
func (b *SimpleBroker) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; !exists {
		return fmt.Errorf("%s is not subscribed", id)
	}

	delete(b.subscribers, id)
	return nil
}

func (b *SimpleBroker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = make(map[string]chan<- Event)
}
