package entity

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

const (
	RelayStatusOk     = "ok"
	RelayStatusFailed = "failed"
)

// RelayRecord is an audit row for one relayed webhook event.
type RelayRecord struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SessionID string             `json:"session_id" bson:"session_id"`
	SenderID  string             `json:"sender_id" bson:"sender_id"`
	Text      string             `json:"text" bson:"text"`
	Reply     string             `json:"reply" bson:"reply"`
	Status    string             `json:"status" bson:"status"`
	Error     string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
