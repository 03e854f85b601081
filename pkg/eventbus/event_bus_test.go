package eventbus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type created struct{ name string }
type deleted struct{ id uint }

func newBus() EventBus {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewEventPublisher(logger)
}

func TestPublishDeliversToMatchingSubscribers(t *testing.T) {
	bus := newBus()

	var got []string
	bus.Subscribe(func(e created) {
		got = append(got, e.name)
	})
	bus.Subscribe(func(e deleted) {
		t.Fatal("mismatched subscriber must not fire")
	})

	bus.Publish(created{name: "acme"})
	assert.Equal(t, []string{"acme"}, got)
}

func TestPublishMatchesInterfaceParams(t *testing.T) {
	bus := newBus()

	var got any
	bus.Subscribe(func(e any) {
		got = e
	})

	bus.Publish(created{name: "acme"})
	assert.Equal(t, created{name: "acme"}, got)
}

func TestUnsubscribe(t *testing.T) {
	bus := newBus()

	calls := 0
	handler := func(e created) { calls++ }
	bus.Subscribe(handler)
	assert.Equal(t, 1, bus.SubscribersCount())

	bus.Unsubscribe(handler)
	assert.Equal(t, 0, bus.SubscribersCount())
	bus.Publish(created{})
	assert.Equal(t, 0, calls)
}

func TestSubscribeRejectsNonFunction(t *testing.T) {
	bus := newBus()
	assert.Panics(t, func() {
		bus.Subscribe("not a function")
	})
}
