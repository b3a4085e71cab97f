package insta

import (
	"context"
	"errors"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"testing"
)

type fakeClient struct {
	authErr    error
	authCalls  int
	sendErr    error
	recipients [][]string
	texts      []string
}

func (f *fakeClient) Authenticate(context.Context) error {
	f.authCalls++
	return f.authErr
}

func (f *fakeClient) BroadcastText(_ context.Context, recipientIDs []string, text string) error {
	f.recipients = append(f.recipients, recipientIDs)
	f.texts = append(f.texts, text)
	return f.sendErr
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSession_SendBeforeBootstrapFailsFast(t *testing.T) {
	client := &fakeClient{}
	s := NewSession(client, discard())

	err := s.SendText(context.Background(), "u1", "hi")
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.Empty(t, client.recipients)
	require.False(t, s.Authenticated())
}

func TestSession_BootstrapSuccessAllowsSend(t *testing.T) {
	client := &fakeClient{}
	s := NewSession(client, discard())

	require.NoError(t, s.Bootstrap(context.Background()))
	require.True(t, s.Authenticated())

	require.NoError(t, s.SendText(context.Background(), "u1", "hi there"))
	require.Equal(t, [][]string{{"u1"}}, client.recipients)
	require.Equal(t, []string{"hi there"}, client.texts)
}

func TestSession_BootstrapFailureIsStickyAndSendsFail(t *testing.T) {
	client := &fakeClient{authErr: errors.New("bad_password")}
	s := NewSession(client, discard())

	err := s.Bootstrap(context.Background())
	require.EqualError(t, err, "bad_password")

	// a second bootstrap does not retry
	err = s.Bootstrap(context.Background())
	require.EqualError(t, err, "bad_password")
	require.Equal(t, 1, client.authCalls)

	err = s.SendText(context.Background(), "u1", "hi")
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.Contains(t, err.Error(), "bad_password")
	require.Empty(t, client.recipients)
}

func TestSession_SendErrorPropagates(t *testing.T) {
	client := &fakeClient{sendErr: errors.New("thread closed")}
	s := NewSession(client, discard())
	require.NoError(t, s.Bootstrap(context.Background()))

	err := s.SendText(context.Background(), "u1", "hi")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotAuthenticated)
}
