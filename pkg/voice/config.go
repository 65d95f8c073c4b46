package voice

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when the requested voice or style is outside
// the supported domain. The creation form restricts input to this domain,
// but the builder rejects out-of-domain values instead of defaulting.
var ErrInvalidConfig = errors.New("voice: invalid voice/style combination")

const (
	VoiceMale   = "male"
	VoiceFemale = "female"

	StyleFormal = "formal"
	StyleCasual = "casual"
)

// ModelParams are the LLM parameters fixed at configuration-build time.
type ModelParams struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

// AssistantConfig is the immutable payload handed to the provider at call
// start. Subject, topic and style are not part of it; they are injected at
// call time through StartOptions.Variables.
type AssistantConfig struct {
	VoiceID      string      `json:"voiceId"`
	Greeting     string      `json:"firstMessage"`
	SystemPrompt string      `json:"systemPrompt"`
	ModelParams  ModelParams `json:"modelParams"`
}

// baseSystemPrompt is shared by all four voice/style combinations. The
// {{subject}}, {{topic}} and {{style}} placeholders are resolved by the
// provider from the call variables.
const baseSystemPrompt = `You are a highly knowledgeable tutor teaching a real-time voice session with a student. Your goal is to teach the student about the topic and subject.

Tutor guidelines:
- Stick to the given topic {{topic}} and subject {{subject}}.
- Keep the conversation flowing smoothly while maintaining control.
- Regularly check if the student follows and ask short questions.
- Break down the topic into smaller parts and teach one part at a time.
- Keep your style of conversation {{style}}.
- Keep responses short, this is a voice conversation.
- Do not include any special characters in your responses.`

const greeting = "Hello, let's start the session. Today we'll be talking about {{topic}}."

// voiceTable maps (voice, style) to the provider voice identifier. Four
// entries, one per supported combination.
var voiceTable = map[string]map[string]string{
	VoiceMale: {
		StyleFormal: "vp-en-m-graham",
		StyleCasual: "vp-en-m-finley",
	},
	VoiceFemale: {
		StyleFormal: "vp-en-f-mirabel",
		StyleCasual: "vp-en-f-june",
	},
}

// Configure derives the assistant configuration for a voice and conversation
// style. The mapping is deterministic and every combination yields a distinct
// config. Out-of-domain input fails with ErrInvalidConfig before any call is
// opened.
func Configure(voice, style string) (AssistantConfig, error) {
	styles, ok := voiceTable[voice]
	if !ok {
		return AssistantConfig{}, fmt.Errorf("%w: voice %q", ErrInvalidConfig, voice)
	}
	voiceID, ok := styles[style]
	if !ok {
		return AssistantConfig{}, fmt.Errorf("%w: style %q", ErrInvalidConfig, style)
	}

	temperature := float32(0.4)
	if style == StyleCasual {
		temperature = 0.7
	}

	return AssistantConfig{
		VoiceID:      voiceID,
		Greeting:     greeting,
		SystemPrompt: baseSystemPrompt,
		ModelParams: ModelParams{
			Model:       "gpt-4o-mini",
			Temperature: temperature,
			MaxTokens:   250,
		},
	}, nil
}
