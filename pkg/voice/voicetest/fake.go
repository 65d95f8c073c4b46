// Package voicetest provides an in-memory provider client for tests.
package voicetest

import (
	"context"
	"sync"

	"github.com/velvoice/companiond/pkg/voice"
)

// StartCall captures the arguments of one Start invocation.
type StartCall struct {
	Config  voice.AssistantConfig
	Options voice.StartOptions
}

// FakeClient implements voice.Client without any network. Events are fired
// by the test through Emit. When EmitCallEndOnStop is set, Stop behaves like
// the real provider and delivers a call-end event.
type FakeClient struct {
	voice.Emitter

	EmitCallEndOnStop bool
	StartErr          error

	mu         sync.Mutex
	muted      bool
	started    bool
	startCalls []StartCall
	stopCalls  int
}

// NewFakeClient returns a fake whose Stop emits call-end, matching observed
// provider behavior.
func NewFakeClient() *FakeClient {
	return &FakeClient{EmitCallEndOnStop: true}
}

func (f *FakeClient) Start(_ context.Context, cfg voice.AssistantConfig, opts voice.StartOptions) error {
	f.mu.Lock()
	f.startCalls = append(f.startCalls, StartCall{Config: cfg, Options: opts})
	if f.StartErr == nil {
		f.started = true
	}
	f.mu.Unlock()
	return f.StartErr
}

func (f *FakeClient) Stop() error {
	f.mu.Lock()
	f.stopCalls++
	emitEnd := f.EmitCallEndOnStop && f.started && f.stopCalls == 1
	f.mu.Unlock()
	if emitEnd {
		f.Emit(voice.Event{Type: voice.EventCallEnd})
	}
	return nil
}

func (f *FakeClient) Muted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted
}

func (f *FakeClient) SetMuted(muted bool) {
	f.mu.Lock()
	f.muted = muted
	f.mu.Unlock()
}

// StartCalls returns a copy of every recorded Start invocation.
func (f *FakeClient) StartCalls() []StartCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]StartCall, len(f.startCalls))
	copy(out, f.startCalls)
	return out
}

// StopCalls reports how many times Stop was invoked.
func (f *FakeClient) StopCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

// FireCallStart delivers a call-start event.
func (f *FakeClient) FireCallStart() { f.Emit(voice.Event{Type: voice.EventCallStart}) }

// FireCallEnd delivers a call-end event.
func (f *FakeClient) FireCallEnd() { f.Emit(voice.Event{Type: voice.EventCallEnd}) }

// FireSpeechStart delivers a speech-start event.
func (f *FakeClient) FireSpeechStart() { f.Emit(voice.Event{Type: voice.EventSpeechStart}) }

// FireSpeechEnd delivers a speech-end event.
func (f *FakeClient) FireSpeechEnd() { f.Emit(voice.Event{Type: voice.EventSpeechEnd}) }

// FireMessage delivers a message event.
func (f *FakeClient) FireMessage(msg voice.Message) {
	f.Emit(voice.Event{Type: voice.EventMessage, Message: &msg})
}

// FireError delivers an error event.
func (f *FakeClient) FireError(err error) {
	f.Emit(voice.Event{Type: voice.EventError, Err: err})
}
