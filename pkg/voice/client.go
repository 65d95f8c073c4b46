// Package voice holds the realtime voice session core: the provider client
// contract, the per-call session state machine, the assistant configuration
// builder and the transcript log.
package voice

import (
	"context"
	"sync"
)

// EventType identifies a provider event. The names are the provider's wire
// event names.
type EventType string

const (
	EventCallStart   EventType = "call-start"
	EventCallEnd     EventType = "call-end"
	EventMessage     EventType = "message"
	EventSpeechStart EventType = "speech-start"
	EventSpeechEnd   EventType = "speech-end"
	EventError       EventType = "error"
)

const (
	MessageTypeTranscript = "transcript"

	TranscriptTypePartial = "partial"
	TranscriptTypeFinal   = "final"

	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// Message is one provider message event payload.
type Message struct {
	Type           string `json:"type"`
	Role           string `json:"role,omitempty"`
	TranscriptType string `json:"transcriptType,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
}

// Event is one provider event delivered to handlers. Message is set for
// message events, Err for error events.
type Event struct {
	Type    EventType
	Message *Message
	Err     error
}

// Handler receives provider events.
type Handler func(Event)

// Subscription identifies one registered handler so it can be removed.
type Subscription struct {
	eventType EventType
	id        uint64
}

// StartOptions carries per-call overrides: the variables substituted into
// the assistant's prompt templates and the message types to receive.
type StartOptions struct {
	Variables          map[string]string `json:"variableValues,omitempty"`
	ClientMessageTypes []string          `json:"clientMessages,omitempty"`
	ServerMessageTypes []string          `json:"serverMessages,omitempty"`
}

// Client is the realtime voice provider contract. One client carries at most
// one call. Stop must be idempotent; implementations deliver a call-end
// event when the provider confirms the call is over.
type Client interface {
	Start(ctx context.Context, assistant AssistantConfig, opts StartOptions) error
	Stop() error
	Muted() bool
	SetMuted(muted bool)
	On(eventType EventType, handler Handler) Subscription
	Off(sub Subscription)
}

// Emitter is a reusable handler registry implementing the On/Off/Emit half
// of the Client contract. The zero value is ready to use; implementations
// embed it and call Emit from their read loops.
type Emitter struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[EventType]map[uint64]Handler
}

// On registers a handler for an event type.
func (e *Emitter) On(eventType EventType, handler Handler) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[EventType]map[uint64]Handler)
	}
	if e.handlers[eventType] == nil {
		e.handlers[eventType] = make(map[uint64]Handler)
	}
	e.nextID++
	e.handlers[eventType][e.nextID] = handler
	return Subscription{eventType: eventType, id: e.nextID}
}

// Off removes a previously registered handler. Unknown subscriptions are
// ignored.
func (e *Emitter) Off(sub Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if hs := e.handlers[sub.eventType]; hs != nil {
		delete(hs, sub.id)
	}
}

// Emit delivers an event to every handler registered for its type. Handlers
// run synchronously on the caller's goroutine, outside the registry lock.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	hs := e.handlers[ev.Type]
	list := make([]Handler, 0, len(hs))
	for _, h := range hs {
		list = append(list, h)
	}
	e.mu.RUnlock()

	for _, h := range list {
		h(ev)
	}
}

// HandlerCount reports how many handlers are registered for an event type.
func (e *Emitter) HandlerCount(eventType EventType) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[eventType])
}
