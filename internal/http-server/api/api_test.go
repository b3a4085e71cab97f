package api

import (
	"InstaFlow/bot/insta"
	"InstaFlow/entity"
	"InstaFlow/impl/core"
	"InstaFlow/internal/config"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const helloPayload = `{"entry":[{"messaging":[{"sender":{"id":"u1"},"message":{"text":"hello"}}]}]}`

type stubResolver struct {
	reply string
	err   error
}

func (s *stubResolver) DetectIntent(context.Context, string) (string, error) {
	return s.reply, s.err
}

type recordingClient struct {
	authErr error
	sends   [][]string
	texts   []string
}

func (c *recordingClient) Authenticate(context.Context) error {
	return c.authErr
}

func (c *recordingClient) BroadcastText(_ context.Context, recipientIDs []string, text string) error {
	c.sends = append(c.sends, recipientIDs)
	c.texts = append(c.texts, text)
	return nil
}

type panicCore struct{}

func (panicCore) RelayMessage(context.Context, entity.MessageEvent) error {
	panic("unexpected nil")
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(t *testing.T, resolver core.IntentResolver, client *recordingClient) http.Handler {
	t.Helper()
	log := discard()

	session := insta.NewSession(client, log)
	_ = session.Bootstrap(context.Background())

	c := core.New("session-abc", log)
	c.SetResolver(resolver)
	c.SetSender(session)

	return NewRouter(&config.Config{}, log, c)
}

func do(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPipeline_HappyPath(t *testing.T) {
	client := &recordingClient{}
	h := newPipeline(t, &stubResolver{reply: "hi there"}, client)

	rec := do(h, http.MethodPost, "/", helloPayload, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
	require.Equal(t, [][]string{{"u1"}}, client.sends)
	require.Equal(t, []string{"hi there"}, client.texts)
}

func TestPipeline_EmptyEntryIs500(t *testing.T) {
	client := &recordingClient{}
	h := newPipeline(t, &stubResolver{reply: "hi there"}, client)

	rec := do(h, http.MethodPost, "/", `{"entry":[]}`, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Empty(t, client.sends)
}

func TestPipeline_ResolverNetworkFaultIs500WithoutSend(t *testing.T) {
	client := &recordingClient{}
	h := newPipeline(t, &stubResolver{err: errors.New("dial tcp: i/o timeout")}, client)

	rec := do(h, http.MethodPost, "/", helloPayload, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Empty(t, client.sends)
}

func TestPipeline_FailedBootstrapStillServes(t *testing.T) {
	client := &recordingClient{authErr: errors.New("checkpoint_challenge_required")}
	h := newPipeline(t, &stubResolver{reply: "hi there"}, client)

	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(helloPayload))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Empty(t, client.sends)
}

func TestRouter_PanicIsRecoveredAs500(t *testing.T) {
	h := NewRouter(&config.Config{}, discard(), panicCore{})

	rec := do(h, http.MethodPost, "/", helloPayload, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_UnknownRoutes(t *testing.T) {
	h := NewRouter(&config.Config{}, discard(), panicCore{})

	require.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/health", "", nil).Code)
	require.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodPut, "/", "", nil).Code)
	// verification is only mounted when a verify token is configured
	require.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodGet, "/", "", nil).Code)
}

func TestRouter_VerifyTokenMountsHandshake(t *testing.T) {
	conf := &config.Config{}
	conf.Instagram.VerifyToken = "verify-me"
	h := NewRouter(conf, discard(), panicCore{})

	rec := do(h, http.MethodGet, "/?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=abc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc", rec.Body.String())
}

func TestRouter_SignatureChecked(t *testing.T) {
	client := &recordingClient{}
	log := discard()
	session := insta.NewSession(client, log)
	require.NoError(t, session.Bootstrap(context.Background()))

	c := core.New("session-abc", log)
	c.SetResolver(&stubResolver{reply: "hi there"})
	c.SetSender(session)

	conf := &config.Config{}
	conf.Instagram.AppSecret = "app-secret"
	h := NewRouter(conf, log, c)

	rec := do(h, http.MethodPost, "/", helloPayload, map[string]string{"X-Hub-Signature-256": "sha256=00"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, client.sends)

	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write([]byte(helloPayload))
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	rec = do(h, http.MethodPost, "/", helloPayload, map[string]string{"X-Hub-Signature-256": sig})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, client.sends, 1)
}
