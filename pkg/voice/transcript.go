package voice

import "sync"

// Entry is one finalized utterance in the session transcript.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript accumulates finalized utterances from the provider message
// stream. Entries are stored in arrival order; Entries returns them
// newest-first because that is how the session view renders them. The
// chronological order stays available through History so the display choice
// is not baked into the data model.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewTranscript creates an empty transcript log. No size cap is applied.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Ingest filters a provider message event. Only final transcript messages
// become entries; partial transcripts and other message types are dropped
// because partials are noisy. Reports whether an entry was added.
func (t *Transcript) Ingest(msg *Message) bool {
	if msg == nil || msg.Type != MessageTypeTranscript || msg.TranscriptType != TranscriptTypeFinal {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{Role: msg.Role, Content: msg.Transcript})
	return true
}

// Entries returns a newest-first copy of the log.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[len(t.entries)-1-i] = e
	}
	return out
}

// History returns a chronological copy of the log.
func (t *Transcript) History() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len reports the number of finalized entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
