package insta

import (
	"InstaFlow/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var ErrNotAuthenticated = errors.New("instagram session is not authenticated")

var errBootstrapPending = errors.New("bootstrap has not finished")

// Client is a messaging platform connection.
type Client interface {
	Authenticate(ctx context.Context) error
	BroadcastText(ctx context.Context, recipientIDs []string, text string) error
}

type bootstrapResult struct {
	err error
}

// Session owns the platform login. Bootstrap runs once; its outcome is
// published atomically and read by every send.
type Session struct {
	client Client
	once   sync.Once
	result atomic.Pointer[bootstrapResult]
	log    *slog.Logger
}

func NewSession(client Client, logger *slog.Logger) *Session {
	return &Session{
		client: client,
		log:    logger.With(sl.Module("instagram.session")),
	}
}

// Bootstrap authenticates the client. Only the first call does any work;
// later calls return the first outcome. Failures are not retried.
func (s *Session) Bootstrap(ctx context.Context) error {
	s.once.Do(func() {
		start := time.Now()
		err := s.client.Authenticate(ctx)
		s.result.Store(&bootstrapResult{err: err})

		if err != nil {
			s.log.Error("failed to authenticate instagram client", sl.Err(err))
			return
		}
		s.log.With(
			slog.Duration("took", time.Since(start)),
		).Info("instagram client is authenticated")
	})

	res := s.result.Load()
	if res == nil {
		return errBootstrapPending
	}
	return res.err
}

func (s *Session) Authenticated() bool {
	res := s.result.Load()
	return res != nil && res.err == nil
}

// SendText delivers text to the thread with exactly one recipient.
func (s *Session) SendText(ctx context.Context, recipientID, text string) error {
	res := s.result.Load()
	if res == nil {
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, errBootstrapPending)
	}
	if res.err != nil {
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, res.err)
	}

	if err := s.client.BroadcastText(ctx, []string{recipientID}, text); err != nil {
		return fmt.Errorf("broadcast text: %w", err)
	}

	s.log.With(
		slog.String("recipient_id", recipientID),
		slog.String("text", text),
	).Info("sent message to instagram user")
	return nil
}
