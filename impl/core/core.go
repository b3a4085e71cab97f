package core

import (
	"InstaFlow/entity"
	"InstaFlow/internal/lib/sl"
	"context"
	"log/slog"
)

// IntentResolver turns user text into the agent's reply text.
type IntentResolver interface {
	DetectIntent(ctx context.Context, text string) (string, error)
}

// MessageSender delivers text to one Instagram user.
type MessageSender interface {
	SendText(ctx context.Context, recipientID, text string) error
}

type Repository interface {
	SaveRelayRecord(ctx context.Context, record entity.RelayRecord) error
}

type Core struct {
	sessionID string
	resolver  IntentResolver
	sender    MessageSender
	repo      Repository
	log       *slog.Logger
}

func New(sessionID string, log *slog.Logger) *Core {
	return &Core{
		sessionID: sessionID,
		log:       log.With(sl.Module("core")),
	}
}

func (c *Core) SetResolver(resolver IntentResolver) {
	c.resolver = resolver
}

func (c *Core) SetSender(sender MessageSender) {
	c.sender = sender
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}
