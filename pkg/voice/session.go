package voice

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// CallStatus is the lifecycle state of a single voice session. Transitions
// are monotonic: Inactive -> Connecting -> Active -> Finished, with the one
// shortcut Connecting -> Finished. Finished is terminal; a new session means
// a new Session instance.
type CallStatus string

const (
	StatusInactive   CallStatus = "INACTIVE"
	StatusConnecting CallStatus = "CONNECTING"
	StatusActive     CallStatus = "ACTIVE"
	StatusFinished   CallStatus = "FINISHED"
)

var (
	// ErrAlreadyStarted is returned when Start is called on a session that
	// has left the Inactive state.
	ErrAlreadyStarted = errors.New("voice: session already started")
	// ErrNotInCall is returned for commands that require an open call.
	ErrNotInCall = errors.New("voice: no call in progress")
)

// Recorder persists the fact that a session completed. The write is
// best-effort: failures are logged by the session and never retried.
type Recorder interface {
	RecordSession(companionID string) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(companionID string) error

func (f RecorderFunc) RecordSession(companionID string) error { return f(companionID) }

// Params describes the companion a session talks to. Subject, topic and
// style become call variables; voice and style select the assistant config.
type Params struct {
	CompanionID string
	Subject     string
	Topic       string
	Voice       string
	Style       string
}

// Session drives one realtime voice call against a provider client. All
// event callbacks and user commands may interleave freely; every state
// change happens under one mutex and provider calls are made outside it.
type Session struct {
	client   Client
	recorder Recorder
	log      *zap.Logger
	params   Params

	mu       sync.Mutex
	status   CallStatus
	speaking bool
	muted    bool
	recorded bool
	closed   bool

	transcript *Transcript
	subs       []Subscription
}

// NewSession wires a session to the provider client. Event handlers are
// registered here and removed, one for one, by Close.
func NewSession(client Client, recorder Recorder, log *zap.Logger, params Params) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		client:     client,
		recorder:   recorder,
		log:        log,
		params:     params,
		status:     StatusInactive,
		transcript: NewTranscript(),
	}
	s.subs = []Subscription{
		client.On(EventCallStart, s.onCallStart),
		client.On(EventCallEnd, s.onCallEnd),
		client.On(EventMessage, s.onMessage),
		client.On(EventSpeechStart, s.onSpeechStart),
		client.On(EventSpeechEnd, s.onSpeechEnd),
		client.On(EventError, s.onError),
	}
	return s
}

// Start builds the assistant config and opens the call. Validation happens
// before any side effect: an out-of-domain voice/style never reaches the
// provider. On a failed open the connection is released and the session
// finishes.
func (s *Session) Start(ctx context.Context) error {
	cfg, err := Configure(s.params.Voice, s.params.Style)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.status != StatusInactive {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.status = StatusConnecting
	s.mu.Unlock()

	opts := StartOptions{
		Variables: map[string]string{
			"subject": s.params.Subject,
			"topic":   s.params.Topic,
			"style":   s.params.Style,
		},
		ClientMessageTypes: []string{MessageTypeTranscript},
		ServerMessageTypes: []string{},
	}
	if err := s.client.Start(ctx, cfg, opts); err != nil {
		s.mu.Lock()
		s.status = StatusFinished
		s.speaking = false
		s.mu.Unlock()
		if stopErr := s.client.Stop(); stopErr != nil {
			s.log.Warn("stop after failed start", zap.Error(stopErr))
		}
		return err
	}

	s.log.Info("session connecting",
		zap.String("companionId", s.params.CompanionID),
		zap.String("subject", s.params.Subject),
		zap.String("topic", s.params.Topic))
	return nil
}

// Disconnect ends the call on user request. The provider stop command is
// issued on every path that leaves Connecting or Active; calling Disconnect
// on a finished or unstarted session is a no-op.
func (s *Session) Disconnect() {
	s.mu.Lock()
	inCall := s.status == StatusConnecting || s.status == StatusActive
	if inCall {
		s.status = StatusFinished
		s.speaking = false
	}
	s.mu.Unlock()

	if inCall {
		if err := s.client.Stop(); err != nil {
			s.log.Warn("provider stop failed", zap.Error(err))
		}
	}
}

// ToggleMute reads the provider's mute state, inverts it and mirrors the
// result locally. Only legal while a call is open; the call status never
// changes.
func (s *Session) ToggleMute() (bool, error) {
	s.mu.Lock()
	if s.status != StatusConnecting && s.status != StatusActive {
		s.mu.Unlock()
		return false, ErrNotInCall
	}
	s.mu.Unlock()

	muted := !s.client.Muted()
	s.client.SetMuted(muted)

	s.mu.Lock()
	s.muted = muted
	s.mu.Unlock()
	return muted, nil
}

// Close tears the session down: the call is released if still open and every
// handler registered at construction is removed. Safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.Disconnect()
	for _, sub := range s.subs {
		s.client.Off(sub)
	}
}

// Status returns the current call status.
func (s *Session) Status() CallStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// IsSpeaking reports whether the assistant is currently speaking.
func (s *Session) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// IsMuted reports the locally mirrored microphone mute flag.
func (s *Session) IsMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Transcript exposes the accumulated transcript log.
func (s *Session) Transcript() *Transcript {
	return s.transcript
}

// CompanionID returns the companion this session belongs to.
func (s *Session) CompanionID() string {
	return s.params.CompanionID
}

func (s *Session) onCallStart(Event) {
	s.mu.Lock()
	if s.status == StatusConnecting {
		s.status = StatusActive
	}
	s.mu.Unlock()
}

// onCallEnd is duplicate-safe: the provider may redeliver call-end, and the
// user may already have disconnected. The history write fires at most once
// per session instance.
func (s *Session) onCallEnd(Event) {
	s.mu.Lock()
	if s.status == StatusInactive {
		s.mu.Unlock()
		return
	}
	s.status = StatusFinished
	s.speaking = false
	shouldRecord := !s.recorded
	s.recorded = true
	s.mu.Unlock()

	if !shouldRecord || s.recorder == nil {
		return
	}
	if err := s.recorder.RecordSession(s.params.CompanionID); err != nil {
		// Best effort: the session outcome is not surfaced to the user.
		s.log.Error("record session failed",
			zap.String("companionId", s.params.CompanionID),
			zap.Error(err))
	}
}

func (s *Session) onMessage(ev Event) {
	s.transcript.Ingest(ev.Message)
}

func (s *Session) onSpeechStart(Event) {
	s.mu.Lock()
	if s.status != StatusFinished {
		s.speaking = true
	}
	s.mu.Unlock()
}

func (s *Session) onSpeechEnd(Event) {
	s.mu.Lock()
	s.speaking = false
	s.mu.Unlock()
}

// onError logs and nothing else: a session stays open after a non-fatal
// provider error unless a call-end follows.
func (s *Session) onError(ev Event) {
	s.log.Warn("provider error",
		zap.String("companionId", s.params.CompanionID),
		zap.Error(ev.Err))
}
