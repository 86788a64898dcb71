package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvents_PerIdentity(t *testing.T) {
	e := NewEvents()
	a, cancelA := e.Subscribe("a")
	b, cancelB := e.Subscribe("b")
	defer cancelB()

	e.Publish(EventSignedIn, "a")

	ev := <-a
	assert.Equal(t, EventSignedIn, ev.Type)
	assert.Equal(t, "a", ev.IdentityID)
	assert.Empty(t, b)

	cancelA()
	cancelA()
	_, ok := <-a
	assert.False(t, ok)

	e.Publish(EventSignedOut, "a")
}

func TestEvents_FullSubscriberDoesNotBlock(t *testing.T) {
	e := NewEvents()
	_, cancel := e.Subscribe("x")
	defer cancel()

	for i := 0; i < 100; i++ {
		e.Publish(EventTokenRefreshed, "x")
	}
}
