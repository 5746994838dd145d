package events

import (
	"sort"
	"sync"
	"time"

	"wordflash/internal/domain"
)

// Event is an in-process message broadcast on the bus
type Event interface {
	eventName() string
}

// LearningInfoChanged is published after a LearningInfo is persisted
type LearningInfoChanged struct {
	Info domain.LearningInfo
}

// FrequencyChanged is published when the global card-show frequency changes
type FrequencyChanged struct {
	Old time.Duration
	New time.Duration
}

// ActiveChanged is published when the learner switches active mode on or off
type ActiveChanged struct {
	Active bool
}

func (LearningInfoChanged) eventName() string { return "learning_info_changed" }
func (FrequencyChanged) eventName() string    { return "frequency_changed" }
func (ActiveChanged) eventName() string       { return "active_changed" }

// Name returns a stable event name for logging
func Name(e Event) string {
	return e.eventName()
}

// Handler receives published events
type Handler func(Event)

// Bus is a callback registry with explicit unsubscribe
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers e synchronously to a snapshot of the current subscribers
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	snapshot := make([]Handler, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		snapshot = append(snapshot, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(e)
	}
}

// Len returns the number of subscribers
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
