package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
)

var ErrBadPayload = errors.New("bad webhook payload")

var validate = validator.New(validator.WithRequiredStructEnabled())

// WebhookPayload is the Instagram messaging webhook body. Unknown fields are ignored.
type WebhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID        string `json:"id"`
		Time      int64  `json:"time"`
		Messaging []struct {
			Sender *struct {
				ID *string `json:"id"`
			} `json:"sender"`
			Recipient *struct {
				ID string `json:"id"`
			} `json:"recipient"`
			Timestamp int64 `json:"timestamp"`
			Message   *struct {
				Mid    string  `json:"mid"`
				Text   *string `json:"text"`
				IsEcho bool    `json:"is_echo,omitempty"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

// MessageEvent is the only part of a webhook delivery the relay acts on.
type MessageEvent struct {
	SenderID string `json:"sender_id" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

// ParseWebhook decodes body and extracts entry[0].messaging[0]. Every shape
// problem is reported as ErrBadPayload.
func ParseWebhook(body []byte) (MessageEvent, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return MessageEvent{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return payload.FirstEvent()
}

func (p *WebhookPayload) FirstEvent() (MessageEvent, error) {
	if len(p.Entry) == 0 {
		return MessageEvent{}, fmt.Errorf("%w: no entry", ErrBadPayload)
	}
	if len(p.Entry[0].Messaging) == 0 {
		return MessageEvent{}, fmt.Errorf("%w: no messaging item", ErrBadPayload)
	}

	item := p.Entry[0].Messaging[0]
	if item.Message == nil || item.Message.Text == nil {
		return MessageEvent{}, fmt.Errorf("%w: no message text", ErrBadPayload)
	}
	if item.Sender == nil || item.Sender.ID == nil {
		return MessageEvent{}, fmt.Errorf("%w: no sender id", ErrBadPayload)
	}

	event := MessageEvent{
		SenderID: *item.Sender.ID,
		Text:     *item.Message.Text,
	}
	if err := validate.Struct(event); err != nil {
		return MessageEvent{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return event, nil
}
