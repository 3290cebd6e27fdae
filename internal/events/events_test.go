package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishFansOut(t *testing.T) {
	bus := NewBus()
	a, cancelA := bus.Subscribe(4)
	defer cancelA()
	b, cancelB := bus.Subscribe(4)
	defer cancelB()

	actor := uuid.New()
	bus.Publish(Event{Kind: KindVillageCreated, VillageID: 1, Actor: actor, At: 100})

	for _, ch := range []<-chan Event{a, b} {
		ev := <-ch
		assert.Equal(t, KindVillageCreated, ev.Kind)
		assert.Equal(t, uint64(1), ev.VillageID)
		assert.Equal(t, actor, ev.Actor)
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	bus := NewBus()
	slow, cancel := bus.Subscribe(1)
	defer cancel()

	// The second publish overflows the buffer and must be dropped, not
	// block the publisher.
	bus.Publish(Event{Kind: KindBuildingUpgraded, VillageID: 1})
	bus.Publish(Event{Kind: KindBuildingUpgraded, VillageID: 2})

	ev := <-slow
	assert.Equal(t, uint64(1), ev.VillageID)
	select {
	case ev := <-slow:
		t.Fatalf("unexpected second event: %+v", ev)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)

	cancel()
	_, open := <-ch
	require.False(t, open)

	// Publishing after cancel must not panic on the closed channel.
	bus.Publish(Event{Kind: KindVillageCreated, VillageID: 1})

	// Cancel is idempotent.
	cancel()
}
