package instagram

import (
	"InstaFlow/entity"
	"context"
	"errors"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubCore struct {
	err    error
	events []entity.MessageEvent
}

func (s *stubCore) RelayMessage(_ context.Context, event entity.MessageEvent) error {
	s.events = append(s.events, event)
	return s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestWebhook_RelaysFirstMessage(t *testing.T) {
	core := &stubCore{}
	rec := post(Webhook(discard(), core), `{"entry":[{"messaging":[{"sender":{"id":"u1"},"message":{"text":"hello"}}]}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
	require.Equal(t, []entity.MessageEvent{{SenderID: "u1", Text: "hello"}}, core.events)
}

func TestWebhook_BadPayloadNeverReachesCore(t *testing.T) {
	bodies := []string{
		`{"entry":[]}`,
		`{"entry":[{"messaging":[]}]}`,
		`{"entry":[{"messaging":[{"sender":{"id":"u1"}}]}]}`,
		`{"entry":[{"messaging":[{"message":{"text":"hi"}}]}]}`,
		`{}`,
		``,
	}

	for _, body := range bodies {
		core := &stubCore{}
		rec := post(Webhook(discard(), core), body)

		require.Equal(t, http.StatusInternalServerError, rec.Code, body)
		require.Empty(t, rec.Body.String())
		require.Empty(t, core.events)
	}
}

func TestWebhook_CoreFailureIs500(t *testing.T) {
	core := &stubCore{err: errors.New("resolve intent: network down")}
	rec := post(Webhook(discard(), core), `{"entry":[{"messaging":[{"sender":{"id":"u1"},"message":{"text":"hello"}}]}]}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Empty(t, rec.Body.String())
	require.Len(t, core.events, 1)
}

func TestWebhookVerify(t *testing.T) {
	h := WebhookVerify(discard(), "verify-me")

	req := httptest.NewRequest(http.MethodGet, "/?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=42", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "42", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=42", nil)
	rec = httptest.NewRecorder()
	h(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
