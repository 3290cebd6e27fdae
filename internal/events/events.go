// Package events is the notification sink for the upgrade engine. Delivery
// is fire-and-forget: publishing never blocks the transaction that emitted
// the event, and subscribers that fall behind lose events rather than stall
// the publisher.
package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/villagecraft/internal/catalog"
)

// Kind distinguishes event types.
type Kind string

const (
	KindVillageCreated   Kind = "village_created"
	KindBuildingUpgraded Kind = "building_upgraded"
)

// Event is one notification emitted after a state mutation commits.
type Event struct {
	Kind       Kind               `json:"kind"`
	VillageID  uint64             `json:"village_id"`
	Actor      uuid.UUID          `json:"actor"`
	BuildingID catalog.BuildingID `json:"building_id,omitempty"`
	Level      int                `json:"level,omitempty"`
	At         int64              `json:"at"` // Unix seconds
}

// Bus fans events out to any number of subscribers.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber with the given channel buffer.
// The returned cancel func unregisters and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber with room in its buffer.
// Full subscribers are skipped.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
