package bot

import (
	"InstaFlow/internal/lib/sl"
	"fmt"
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"log/slog"
	"strings"
)

// telegram rejects longer messages
const maxMessageLength = 4096

// TgBot posts operator alerts to a single admin chat.
type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	botUsername string
	adminId     int64
}

func NewTgBot(botName, apiKey string, adminId int64, log *slog.Logger) (*TgBot, error) {
	if adminId == 0 {
		return nil, fmt.Errorf("telegram admin id is not set")
	}
	tgBot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		adminId:     adminId,
		botUsername: botName,
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

// SendMessage does not block the caller; alerts are best effort.
func (t *TgBot) SendMessage(msg string) {
	go t.plainResponse(t.adminId, msg)
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	markdown, plain := alertTexts(text)

	if markdown == "" {
		return
	}
	_, err := t.api.SendMessage(chatId, markdown, &tgbotapi.SendMessageOpts{
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		// logging through t.log here would loop back into the alert handler
		_, _ = t.api.SendMessage(chatId, plain, &tgbotapi.SendMessageOpts{})
	}
}

// alertTexts returns the MarkdownV2 body and the plain fallback, both within
// maxMessageLength once the ellipsis is added.
func alertTexts(text string) (markdown, plain string) {
	markdown = sanitize(truncate(text, maxMessageLength/2-1), false)
	plain = truncate(text, maxMessageLength-1)
	return markdown, plain
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}

func sanitize(input string, preserveLinks bool) string {
	// Define a list of reserved characters that need to be escaped
	reservedChars := "\\`_{}#+-.!|()[]*~>=<"
	if preserveLinks {
		reservedChars = "\\`_{}#+-.!|*~>=<"
	}

	var sb strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			sb.WriteRune('\\')
		}
		sb.WriteRune(char)
	}

	return sb.String()
}
