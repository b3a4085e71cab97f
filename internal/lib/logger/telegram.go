package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Notifier delivers a plain text alert to an operator.
type Notifier interface {
	SendMessage(msg string)
}

// TelegramHandler forwards records at or above minLevel to a Notifier and
// always passes them on to the wrapped handler.
type TelegramHandler struct {
	next     slog.Handler
	notifier Notifier
	minLevel slog.Level
	attrs    []slog.Attr
}

func SetupTelegramHandler(log *slog.Logger, notifier Notifier, minLevel slog.Level) *slog.Logger {
	if notifier == nil {
		return log
	}
	return slog.New(&TelegramHandler{
		next:     log.Handler(),
		notifier: notifier,
		minLevel: minLevel,
	})
}

func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level) || level >= h.minLevel
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= h.minLevel {
		h.notifier.SendMessage(h.format(record))
	}
	if h.next.Enabled(ctx, record.Level) {
		return h.next.Handle(ctx, record)
	}
	return nil
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TelegramHandler{
		next:     h.next.WithAttrs(attrs),
		notifier: h.notifier,
		minLevel: h.minLevel,
		attrs:    merged,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	return &TelegramHandler{
		next:     h.next.WithGroup(name),
		notifier: h.notifier,
		minLevel: h.minLevel,
		attrs:    h.attrs,
	}
}

func (h *TelegramHandler) format(record slog.Record) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", record.Level.String(), record.Message))
	for _, a := range h.attrs {
		sb.WriteString(fmt.Sprintf("\n%s: %s", a.Key, a.Value.String()))
	}
	record.Attrs(func(a slog.Attr) bool {
		sb.WriteString(fmt.Sprintf("\n%s: %s", a.Key, a.Value.String()))
		return true
	})
	return sb.String()
}
