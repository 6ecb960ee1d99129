package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker(t *testing.T) {
	t.Run("test direct event", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(broker.Reset)
		ch1 := make(chan Event, 1)
		ch2 := make(chan Event, 1)

		require.NoError(t, broker.Subscribe("stats", ch1))
		require.NoError(t, broker.Subscribe("metrics", ch2))

		ev := Event{
			Source:    "worker-0",
			To:        []string{"metrics"},
			Kind:      KindStep,
			EpisodeID: "ep-1",
			Payload:   1.5,
			Timestamp: time.Now(),
		}
		require.NoError(t, broker.Publish(ev))

		select {
		case received := <-ch2:
			assert.Equal(t, "worker-0", received.Source)
			assert.Equal(t, KindStep, received.Kind)
			assert.Equal(t, 1.5, received.Payload)
		case <-time.After(time.Second):
			t.Error("Timeout waiting for event")
		}

		select {
		case ev := <-ch1:
			t.Errorf("stats should not receive the event but got: %+v", ev)
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("test broadcast event", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(broker.Reset)

		subs := map[string]chan Event{
			"worker-0": make(chan Event, 1),
			"stats":    make(chan Event, 1),
			"metrics":  make(chan Event, 1),
		}
		for id, ch := range subs {
			require.NoError(t, broker.Subscribe(id, ch))
		}

		require.NoError(t, broker.Publish(Event{
			Source:    "worker-0",
			Kind:      KindEpisodeEnd,
			Timestamp: time.Now(),
		}))

		for id, ch := range subs {
			if id == "worker-0" {
				select {
				case ev := <-ch:
					t.Errorf("Source received its own broadcast: %+v", ev)
				case <-time.After(100 * time.Millisecond):
				}
				continue
			}
			select {
			case received := <-ch:
				assert.Equal(t, KindEpisodeEnd, received.Kind, id)
			case <-time.After(time.Second):
				t.Errorf("Timeout waiting for broadcast on %s", id)
			}
		}
	})

	t.Run("test subscription management", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(broker.Reset)
		ch := make(chan Event, 1)

		require.NoError(t, broker.Subscribe("stats", ch))
		assert.Error(t, broker.Subscribe("stats", ch), "duplicate subscription")
		require.NoError(t, broker.Unsubscribe("stats"))
		assert.Error(t, broker.Unsubscribe("stats"), "unsubscribing twice")
	})

	t.Run("test channel full behavior", func(t *testing.T) {
		broker := NewBroker()
		t.Cleanup(broker.Reset)
		full := make(chan Event, 1)
		roomy := make(chan Event, 4)

		require.NoError(t, broker.Subscribe("slow", full))
		require.NoError(t, broker.Subscribe("fast", roomy))

		ev := Event{Source: "worker-0", Kind: KindStep}
		require.NoError(t, broker.Publish(ev))
		assert.Error(t, broker.Publish(ev))

		// the fast subscriber still got both
		assert.Len(t, roomy, 2)
	})
}
