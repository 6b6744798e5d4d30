package transport_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jdutton/n8n-pii-sanitization/internal/domain/session"
	"github.com/jdutton/n8n-pii-sanitization/internal/domain/turn"
	"github.com/jdutton/n8n-pii-sanitization/internal/transport"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg transport.Config) http.Handler {
	t.Helper()
	registry := session.NewRegistry(session.DefaultConfig(), nil)
	svc := turn.NewService(registry, nil, nil)
	return transport.NewServer(svc, cfg)
}

const validPayload = `{
	"raw_text": "Hi, I'm John Smith, email john@x.com",
	"persons": [{"matched_name": "John Smith", "confidence": 0.9, "emails": ["john@x.com"]}]
}`

func TestWebhook_SingleShot(t *testing.T) {
	srv := newTestServer(t, transport.Config{})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(validPayload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "success", resp["status"])
	require.Equal(t, "Hi, I'm [Person1], email [Person1:email1]", resp["sanitized_text"])
	require.True(t, strings.HasPrefix(resp["session_id"].(string), "single_"))

	// Single-shot responses omit the conversation fields entirely.
	_, present := resp["chat_response"]
	require.False(t, present)
	_, present = resp["conversation_turn"]
	require.False(t, present)
}

func TestWebhook_ResponseFieldSetClosed(t *testing.T) {
	srv := newTestServer(t, transport.Config{})

	req := httptest.NewRequest(http.MethodPost, "/webhook/chat", strings.NewReader(validPayload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	allowed := map[string]struct{}{
		"status": {}, "sanitized_text": {}, "session_id": {}, "persons": {},
		"token_map": {}, "pii_mapping": {}, "original_input": {}, "timestamp": {},
		"chat_response": {}, "conversation_turn": {}, "conversation_length": {},
	}
	for field := range resp {
		_, ok := allowed[field]
		require.True(t, ok, "unexpected top-level field %q", field)
	}
}

func TestWebhook_ChatConversation(t *testing.T) {
	srv := newTestServer(t, transport.Config{})

	req := httptest.NewRequest(http.MethodPost, "/webhook/chat", strings.NewReader(validPayload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var first struct {
		SessionID        string `json:"session_id"`
		ConversationTurn int    `json:"conversation_turn"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.True(t, strings.HasPrefix(first.SessionID, "chat_"))
	require.Equal(t, 1, first.ConversationTurn)

	second := `{
		"session_id": "` + first.SessionID + `",
		"raw_text": "My phone is 555-1234",
		"persons": [{"matched_name": "John Smith", "confidence": 0.9, "phones": ["555-1234"]}]
	}`
	req = httptest.NewRequest(http.MethodPost, "/webhook/chat", strings.NewReader(second))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, first.SessionID, resp["session_id"])
	require.Equal(t, "My phone is [Person1:phone1]", resp["sanitized_text"])
	require.Equal(t, float64(2), resp["conversation_turn"])
}

func TestWebhook_MalformedPayloadReturnsErrorStatus(t *testing.T) {
	srv := newTestServer(t, transport.Config{})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"bogus": true}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "error", resp["status"])
	require.Equal(t, `{"bogus": true}`, resp["original_input"])
}

func TestDeleteSession_AlwaysNoContent(t *testing.T) {
	srv := newTestServer(t, transport.Config{})

	req := httptest.NewRequest(http.MethodDelete, "/sessions/chat_1_unknown", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBearerAuth(t *testing.T) {
	srv := newTestServer(t, transport.Config{AuthToken: "s3cret"})

	// Missing token.
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(validPayload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong token.
	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(validPayload))
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct token.
	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(validPayload))
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Health stays open.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, transport.Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "healthy")
}
