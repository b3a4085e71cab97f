package core

import (
	"InstaFlow/bot/insta"
	"InstaFlow/entity"
	"InstaFlow/internal/lib/sl"
	"InstaFlow/internal/metrics"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// journalTimeout bounds one journal write; it runs after the reply is sent.
const journalTimeout = 5 * time.Second

var (
	ErrNoResolver = errors.New("intent resolver not configured")
	ErrNoSender   = errors.New("message sender not configured")
)

// RelayMessage resolves the event text and sends the reply, unchanged, back
// to the sender. Nothing is retried; the first error is returned.
func (c *Core) RelayMessage(ctx context.Context, event entity.MessageEvent) error {
	reply, err := c.relay(ctx, event)

	record := entity.RelayRecord{
		SessionID: c.sessionID,
		SenderID:  event.SenderID,
		Text:      event.Text,
		Reply:     reply,
		Status:    entity.RelayStatusOk,
		CreatedAt: time.Now(),
	}
	if err != nil {
		record.Status = entity.RelayStatusFailed
		record.Error = err.Error()
	}
	c.saveRecord(record)

	return err
}

func (c *Core) relay(ctx context.Context, event entity.MessageEvent) (string, error) {
	if c.resolver == nil {
		metrics.RelaysTotal.WithLabelValues(metrics.ResultResolveError).Inc()
		return "", ErrNoResolver
	}
	if c.sender == nil {
		metrics.RelaysTotal.WithLabelValues(metrics.ResultSendError).Inc()
		return "", ErrNoSender
	}

	start := time.Now()
	reply, err := c.resolver.DetectIntent(ctx, event.Text)
	metrics.ResolveLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RelaysTotal.WithLabelValues(metrics.ResultResolveError).Inc()
		return "", fmt.Errorf("resolve intent: %w", err)
	}

	start = time.Now()
	err = c.sender.SendText(ctx, event.SenderID, reply)
	metrics.SendLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, insta.ErrNotAuthenticated) {
			metrics.RelaysTotal.WithLabelValues(metrics.ResultNotAuthenticated).Inc()
		} else {
			metrics.RelaysTotal.WithLabelValues(metrics.ResultSendError).Inc()
		}
		return reply, fmt.Errorf("send reply: %w", err)
	}

	metrics.RelaysTotal.WithLabelValues(metrics.ResultOk).Inc()
	c.log.With(
		slog.String("sender_id", event.SenderID),
		slog.String("reply", reply),
	).Debug("message relayed")
	return reply, nil
}

// saveRecord writes the journal entry in the background so the webhook
// acknowledgment never waits on storage.
func (c *Core) saveRecord(record entity.RelayRecord) {
	if c.repo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()

		if err := c.repo.SaveRelayRecord(ctx, record); err != nil {
			c.log.With(
				slog.String("sender_id", record.SenderID),
				sl.Err(err),
			).Warn("save relay record")
		}
	}()
}
