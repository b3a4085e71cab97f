package dialogflow

import (
	"context"
	"encoding/json"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type capturedCall struct {
	path string
	body map[string]any
}

type fakeAgent struct {
	mu    sync.Mutex
	calls []capturedCall
	reply string
	fail  bool
}

func (f *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.calls = append(f.calls, capturedCall{path: r.URL.Path, body: body})
	f.mu.Unlock()

	if f.fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"invalid argument"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"responseId":"r1","queryResult":{"queryText":"x","fulfillmentText":"` + f.reply + `","intent":{"displayName":"greeting"},"intentDetectionConfidence":0.9}}`))
}

func newTestResolver(t *testing.T, agent *fakeAgent) *Resolver {
	t.Helper()
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)

	r, err := NewResolver(context.Background(), Options{
		ProjectID: "agent-123",
		SessionID: "session-abc",
		Endpoint:  srv.URL + "/",
		ClientOptions: []option.ClientOption{
			option.WithHTTPClient(srv.Client()),
		},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return r
}

func TestNewResolver_ValidatesOptions(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewResolver(context.Background(), Options{SessionID: "s"}, log)
	require.Error(t, err)

	_, err = NewResolver(context.Background(), Options{ProjectID: "p"}, log)
	require.Error(t, err)
}

func TestDetectIntent_ReturnsFulfillmentText(t *testing.T) {
	agent := &fakeAgent{reply: "hi there"}
	r := newTestResolver(t, agent)

	text, err := r.DetectIntent(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "hi there", text)

	require.Len(t, agent.calls, 1)
	call := agent.calls[0]
	require.Equal(t, "/v2/projects/agent-123/agent/sessions/session-abc:detectIntent", call.path)

	queryInput := call.body["queryInput"].(map[string]any)
	textInput := queryInput["text"].(map[string]any)
	require.Equal(t, "hello", textInput["text"])
	require.Equal(t, "en", textInput["languageCode"])
}

func TestDetectIntent_SameSessionAcrossCalls(t *testing.T) {
	agent := &fakeAgent{reply: "ok"}
	r := newTestResolver(t, agent)

	for _, text := range []string{"one", "two", "three"} {
		_, err := r.DetectIntent(context.Background(), text)
		require.NoError(t, err)
	}

	require.Len(t, agent.calls, 3)
	for _, call := range agent.calls {
		require.True(t, strings.HasSuffix(call.path, "/sessions/session-abc:detectIntent"), call.path)
	}
	require.Equal(t, "projects/agent-123/agent/sessions/session-abc", r.SessionPath())
}

func TestDetectIntent_PropagatesUpstreamError(t *testing.T) {
	agent := &fakeAgent{fail: true}
	r := newTestResolver(t, agent)

	text, err := r.DetectIntent(context.Background(), "hello")
	require.Error(t, err)
	require.Empty(t, text)
}
