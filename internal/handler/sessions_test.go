package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/velvoice/companiond/internal/models"
	"github.com/velvoice/companiond/pkg/voice"
	"github.com/velvoice/companiond/pkg/voice/voicetest"
)

type sessionState struct {
	SessionID   string        `json:"sessionId"`
	CompanionID string        `json:"companionId"`
	Status      string        `json:"status"`
	IsMuted     bool          `json:"isMuted"`
	IsSpeaking  bool          `json:"isSpeaking"`
	Transcript  []voice.Entry `json:"transcript"`
}

// newSessionTestServer wires the router to a fake provider and hands the
// test the last fake a session was built on.
func newSessionTestServer(t *testing.T) (*gin.Engine, *gorm.DB, func() *voicetest.FakeClient) {
	t.Helper()
	h, engine, db := newTestServer(t)

	var last *voicetest.FakeClient
	h.SetClientFactory(func() voice.Client {
		last = voicetest.NewFakeClient()
		return last
	})
	return engine, db, func() *voicetest.FakeClient { return last }
}

func createTestCompanion(t *testing.T, db *gorm.DB, voiceName, style string) *models.Companion {
	t.Helper()
	companion := &models.Companion{
		Author:   1,
		Name:     "Neura",
		Subject:  "science",
		Topic:    "gravity",
		Voice:    voiceName,
		Style:    style,
		Duration: 30,
	}
	require.NoError(t, models.CreateCompanion(db, companion))
	return companion
}

func TestStartSession_FullFlow(t *testing.T) {
	engine, db, lastFake := newSessionTestServer(t)
	companion := createTestCompanion(t, db, "female", "casual")

	w := doRequest(engine, http.MethodPost, "/api/companions/"+companion.ID+"/sessions", "alice", nil)
	requireStatus(t, w, http.StatusOK)

	var started sessionState
	decodeData(t, w, &started)
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, string(voice.StatusConnecting), started.Status)
	assert.False(t, started.IsMuted)
	assert.False(t, started.IsSpeaking)

	fake := lastFake()
	require.NotNil(t, fake)
	calls := fake.StartCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "science", calls[0].Options.Variables["subject"])
	assert.Equal(t, "gravity", calls[0].Options.Variables["topic"])

	fake.FireCallStart()
	fake.FireSpeechStart()
	fake.FireMessage(voice.Message{
		Type:           voice.MessageTypeTranscript,
		TranscriptType: voice.TranscriptTypeFinal,
		Role:           voice.RoleAssistant,
		Transcript:     "Let's talk about gravity.",
	})

	w = doRequest(engine, http.MethodGet, "/api/sessions/"+started.SessionID, "alice", nil)
	requireStatus(t, w, http.StatusOK)
	var live sessionState
	decodeData(t, w, &live)
	assert.Equal(t, string(voice.StatusActive), live.Status)
	assert.True(t, live.IsSpeaking)
	require.Len(t, live.Transcript, 1)
	assert.Equal(t, "Let's talk about gravity.", live.Transcript[0].Content)

	w = doRequest(engine, http.MethodDelete, "/api/sessions/"+started.SessionID, "alice", nil)
	requireStatus(t, w, http.StatusOK)
	var stopped sessionState
	decodeData(t, w, &stopped)
	assert.Equal(t, string(voice.StatusFinished), stopped.Status)
	assert.Equal(t, 1, fake.StopCalls())

	// The completed session landed in history exactly once.
	count, err := models.CountUserSessions(db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Finished sessions stay readable; a second stop changes nothing.
	w = doRequest(engine, http.MethodDelete, "/api/sessions/"+started.SessionID, "alice", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, 1, fake.StopCalls())

	w = doRequest(engine, http.MethodGet, "/api/sessions/"+started.SessionID, "alice", nil)
	requireStatus(t, w, http.StatusOK)
	decodeData(t, w, &live)
	assert.Equal(t, string(voice.StatusFinished), live.Status)
	assert.False(t, live.IsSpeaking)
	assert.Len(t, live.Transcript, 1)
}

func TestStartSession_UnknownCompanion(t *testing.T) {
	engine, _, _ := newSessionTestServer(t)

	w := doRequest(engine, http.MethodPost, "/api/companions/nope/sessions", "alice", nil)
	requireStatus(t, w, http.StatusNotFound)
}

func TestStartSession_UnsupportedVoice(t *testing.T) {
	engine, db, lastFake := newSessionTestServer(t)
	// A row written before voice validation existed.
	companion := createTestCompanion(t, db, "robot", "casual")

	w := doRequest(engine, http.MethodPost, "/api/companions/"+companion.ID+"/sessions", "alice", nil)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "Unsupported voice or style", decodeEnvelope(t, w).Msg)

	// Validation fails before the provider is touched.
	if fake := lastFake(); fake != nil {
		assert.Empty(t, fake.StartCalls())
	}
}

func TestStartSession_ProviderFailure(t *testing.T) {
	h, engine, db := newTestServer(t)
	companion := createTestCompanion(t, db, "female", "casual")

	h.SetClientFactory(func() voice.Client {
		fake := voicetest.NewFakeClient()
		fake.StartErr = errors.New("dial refused")
		return fake
	})

	w := doRequest(engine, http.MethodPost, "/api/companions/"+companion.ID+"/sessions", "alice", nil)
	requireStatus(t, w, http.StatusBadGateway)
}

func TestSession_OwnershipEnforced(t *testing.T) {
	engine, db, _ := newSessionTestServer(t)
	companion := createTestCompanion(t, db, "female", "casual")

	w := doRequest(engine, http.MethodPost, "/api/companions/"+companion.ID+"/sessions", "alice", nil)
	requireStatus(t, w, http.StatusOK)
	var started sessionState
	decodeData(t, w, &started)

	w = doRequest(engine, http.MethodGet, "/api/sessions/"+started.SessionID, "mallory", nil)
	requireStatus(t, w, http.StatusForbidden)

	w = doRequest(engine, http.MethodDelete, "/api/sessions/"+started.SessionID, "mallory", nil)
	requireStatus(t, w, http.StatusForbidden)

	w = doRequest(engine, http.MethodGet, "/api/sessions/unknown-id", "alice", nil)
	requireStatus(t, w, http.StatusNotFound)
}

func TestToggleMute(t *testing.T) {
	engine, db, lastFake := newSessionTestServer(t)
	companion := createTestCompanion(t, db, "male", "formal")

	w := doRequest(engine, http.MethodPost, "/api/companions/"+companion.ID+"/sessions", "alice", nil)
	requireStatus(t, w, http.StatusOK)
	var started sessionState
	decodeData(t, w, &started)
	lastFake().FireCallStart()

	w = doRequest(engine, http.MethodPost, "/api/sessions/"+started.SessionID+"/mute", "alice", nil)
	requireStatus(t, w, http.StatusOK)
	var muteState struct {
		IsMuted bool `json:"isMuted"`
	}
	decodeData(t, w, &muteState)
	assert.True(t, muteState.IsMuted)
	assert.True(t, lastFake().Muted())

	w = doRequest(engine, http.MethodPost, "/api/sessions/"+started.SessionID+"/mute", "alice", nil)
	requireStatus(t, w, http.StatusOK)
	decodeData(t, w, &muteState)
	assert.False(t, muteState.IsMuted)

	// Mute is rejected once the call is over.
	w = doRequest(engine, http.MethodDelete, "/api/sessions/"+started.SessionID, "alice", nil)
	requireStatus(t, w, http.StatusOK)
	w = doRequest(engine, http.MethodPost, "/api/sessions/"+started.SessionID+"/mute", "alice", nil)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestFinishedSessionsAreEvicted(t *testing.T) {
	h, engine, db := newTestServer(t)
	h.sessions.retention = 10 * time.Millisecond

	var last *voicetest.FakeClient
	h.SetClientFactory(func() voice.Client {
		last = voicetest.NewFakeClient()
		return last
	})
	companion := createTestCompanion(t, db, "female", "casual")

	w := doRequest(engine, http.MethodPost, "/api/companions/"+companion.ID+"/sessions", "alice", nil)
	requireStatus(t, w, http.StatusOK)
	var started sessionState
	decodeData(t, w, &started)
	last.FireCallStart()

	w = doRequest(engine, http.MethodDelete, "/api/sessions/"+started.SessionID, "alice", nil)
	requireStatus(t, w, http.StatusOK)

	// Once the retention window elapses the session is gone and its
	// handlers are detached from the provider client.
	require.Eventually(t, func() bool {
		w := doRequest(engine, http.MethodGet, "/api/sessions/"+started.SessionID, "alice", nil)
		return w.Code == http.StatusNotFound
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, last.HandlerCount(voice.EventCallEnd))

	// The history record survives eviction.
	count, err := models.CountUserSessions(db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSessionHistory(t *testing.T) {
	engine, db, lastFake := newSessionTestServer(t)
	companion := createTestCompanion(t, db, "female", "casual")

	for i := 0; i < 2; i++ {
		w := doRequest(engine, http.MethodPost, "/api/companions/"+companion.ID+"/sessions", "alice", nil)
		requireStatus(t, w, http.StatusOK)
		lastFake().FireCallStart()
		lastFake().FireCallEnd()
	}

	w := doRequest(engine, http.MethodGet, "/api/sessions/history", "alice", nil)
	requireStatus(t, w, http.StatusOK)

	var items []models.SessionHistoryItem
	decodeData(t, w, &items)
	require.Len(t, items, 2)
	assert.Equal(t, companion.ID, items[0].CompanionID)
	require.NotNil(t, items[0].Companion)
	assert.Equal(t, "Neura", items[0].Companion.Name)

	// History is scoped to its owner.
	w = doRequest(engine, http.MethodGet, "/api/sessions/history", "bob", nil)
	requireStatus(t, w, http.StatusOK)
	decodeData(t, w, &items)
	assert.Empty(t, items)
}
