package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherRoutesByType(t *testing.T) {
	d := NewInMemoryDispatcher()
	var created, updated int
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error { created++; return nil })
	d.Subscribe(EventTicketUpdated, func(context.Context, Event) error { updated++; return nil })

	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: 1}))
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: 2}))
	assert.Equal(t, 2, created)
	assert.Equal(t, 0, updated)
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	var reached bool
	d.Subscribe(EventTicketUpdated, func(context.Context, Event) error { return boom })
	d.Subscribe(EventTicketUpdated, func(context.Context, Event) error { reached = true; return nil })

	err := d.Publish(context.Background(), Event{Type: EventTicketUpdated})
	assert.ErrorIs(t, err, boom)
	assert.True(t, reached)
}

func TestDispatcherNoListeners(t *testing.T) {
	assert.NoError(t, NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventTicketCreated}))
}
