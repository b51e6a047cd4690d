package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmitEventReachesEveryListenerForTheType(t *testing.T) {
	received := make(chan interface{}, 2)

	AddEventListener(ListingCreatedEvent, func(msg interface{}) {
		received <- msg
	})
	AddEventListener(OfferCreatedEvent, func(msg interface{}) {
		t.Error("listener for another type invoked")
	})

	EmitEvent(ListingCreatedEvent, "payload")

	select {
	case msg := <-received:
		assert.Equal(t, "payload", msg)
	case <-time.After(time.Second):
		t.Fatal("listener never invoked")
	}
}
