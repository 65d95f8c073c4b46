package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter_DispatchesToMatchingHandlers(t *testing.T) {
	var em Emitter
	var got []EventType

	subStart := em.On(EventCallStart, func(ev Event) { got = append(got, ev.Type) })
	em.On(EventCallEnd, func(ev Event) { got = append(got, ev.Type) })

	em.Emit(Event{Type: EventCallStart})
	em.Emit(Event{Type: EventSpeechStart}) // nobody listening
	em.Emit(Event{Type: EventCallEnd})

	assert.Equal(t, []EventType{EventCallStart, EventCallEnd}, got)

	em.Off(subStart)
	em.Emit(Event{Type: EventCallStart})
	assert.Equal(t, []EventType{EventCallStart, EventCallEnd}, got)
	assert.Equal(t, 0, em.HandlerCount(EventCallStart))
	assert.Equal(t, 1, em.HandlerCount(EventCallEnd))
}

func TestEmitter_OffIsIdempotent(t *testing.T) {
	var em Emitter
	sub := em.On(EventMessage, func(Event) {})

	em.Off(sub)
	em.Off(sub)
	assert.Equal(t, 0, em.HandlerCount(EventMessage))
}
