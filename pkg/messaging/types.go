package messaging

import (
	"time"
)

type EventKind string

const (
	// KindStep carries one environment transition.
	KindStep EventKind = "step"
	// KindEpisodeEnd carries the statistics of a finished episode.
	KindEpisodeEnd EventKind = "episode_end"
)

// Event is a notification from a rollout to its observers
type Event struct {
	Source    string    // ID of the publishing rollout worker
	To        []string  // subscriber IDs (empty means broadcast)
	Kind      EventKind // what Payload holds
	EpisodeID string
	Payload   any
	Timestamp time.Time
}

// Publisher can emit events
type Publisher interface {
	Publish(ev Event) error
}

// Broker routes events from rollouts to observers
type Broker interface {
	Publisher
	// Subscribe registers an observer to receive events
	Subscribe(id string, ch chan<- Event) error
	// Unsubscribe removes an observer's subscription
	Unsubscribe(id string) error
}
