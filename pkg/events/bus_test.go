package events_test

import (
	"sync/atomic"
	"testing"

	"github.com/fwdaemon/devregistry/pkg/core"
	. "github.com/fwdaemon/devregistry/pkg/events"
	"github.com/fwdaemon/devregistry/testing/mocks"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus()
	var got []Kind
	bus.Subscribe(KindAdded, HandlerFunc(func(e Event) { got = append(got, e.Kind) }))

	d := core.NewSimpleDevice("d1")
	bus.Publish(Event{Kind: KindAdded, Device: d})
	bus.Publish(Event{Kind: KindRemoved, Device: d})

	if len(got) != 1 || got[0] != KindAdded {
		t.Fatalf("got = %v, want one KindAdded delivery", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	count := 0
	sub := bus.Subscribe(KindRemoved, HandlerFunc(func(e Event) { count++ }))

	d := core.NewSimpleDevice("d1")
	bus.Publish(Event{Kind: KindRemoved, Device: d})
	sub.Unsubscribe()
	bus.Publish(Event{Kind: KindRemoved, Device: d})

	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestHandlersInvokedInRegistrationOrder(t *testing.T) {
	bus := NewBus()
	var order []int
	bus.Subscribe(KindAdded, HandlerFunc(func(e Event) { order = append(order, 1) }))
	bus.Subscribe(KindAdded, HandlerFunc(func(e Event) { order = append(order, 2) }))
	bus.Subscribe(KindAdded, HandlerFunc(func(e Event) { order = append(order, 3) }))

	bus.Publish(Event{Kind: KindAdded, Device: core.NewSimpleDevice("d1")})

	want := []int{1, 2, 3}
	for i, v := range want {
		if order[i] != v {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestEventCounterTallyAcrossAllKinds(t *testing.T) {
	bus := NewBus()
	var count atomic.Int64
	counter := mocks.EventCounter(&count)
	bus.Subscribe(KindAdded, counter)
	bus.Subscribe(KindChanged, counter)
	bus.Subscribe(KindRemoved, counter)

	d := core.NewSimpleDevice("d1")
	bus.Publish(Event{Kind: KindAdded, Device: d})
	bus.Publish(Event{Kind: KindChanged, Device: d})
	bus.Publish(Event{Kind: KindRemoved, Device: d})

	if got := count.Load(); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
}

func TestRemoveAllRevokesEverySubscription(t *testing.T) {
	bus := NewBus()
	count := 0
	bus.Subscribe(KindAdded, HandlerFunc(func(e Event) { count++ }))
	bus.RemoveAll()
	bus.Publish(Event{Kind: KindAdded, Device: core.NewSimpleDevice("d1")})

	if count != 0 {
		t.Fatalf("count = %d, want 0 after RemoveAll", count)
	}
}
