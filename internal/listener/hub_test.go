package listener

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	id1, ch1 := hub.Subscribe()
	id2, ch2 := hub.Subscribe()
	defer hub.Unsubscribe(id1)
	defer hub.Unsubscribe(id2)

	ev := Event{ID: "e1", ChatID: 42, Text: "hello", Date: time.Now()}
	hub.Publish(ev)

	assert.Equal(t, ev, <-ch1)
	assert.Equal(t, ev, <-ch2)
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	id, ch := hub.Subscribe()

	hub.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)

	// Publishing after removal must not panic on the closed channel.
	hub.Publish(Event{ID: "e2"})
}

func TestHub_UnsubscribeUnknownID(t *testing.T) {
	hub := NewHub()
	hub.Unsubscribe("nope")
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub()
	id, ch := hub.Subscribe()
	defer hub.Unsubscribe(id)

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(Event{ID: "e"})
	}

	// The buffer holds exactly subscriberBuffer events; the rest were
	// dropped without blocking the publisher.
	assert.Equal(t, subscriberBuffer, len(ch))
}

func TestHub_SubscriberIDsAreUnique(t *testing.T) {
	hub := NewHub()
	id1, _ := hub.Subscribe()
	id2, _ := hub.Subscribe()

	assert.NotEqual(t, id1, id2)
}
