package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	unsubA := bus.Subscribe(func(e Event) { got = append(got, "a:"+Name(e)) })
	bus.Subscribe(func(e Event) { got = append(got, "b:"+Name(e)) })

	bus.Publish(FrequencyChanged{Old: time.Minute, New: 2 * time.Minute})
	assert.Equal(t, []string{"a:frequency_changed", "b:frequency_changed"}, got)

	unsubA()
	unsubA() // second call is a no-op
	got = nil
	bus.Publish(ActiveChanged{Active: true})
	assert.Equal(t, []string{"b:active_changed"}, got)
	assert.Equal(t, 1, bus.Len())
}

func TestBus_UnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	calls := 0

	var unsub func()
	unsub = bus.Subscribe(func(Event) {
		calls++
		unsub()
	})

	bus.Publish(ActiveChanged{})
	bus.Publish(ActiveChanged{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}
