package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// ErrMissingField reports a chat frame without all required fields.
var ErrMissingField = errors.New("chat message is missing a required field")

// ChatMessage is the payload exchanged over the chat stream.
// Immutable once constructed.
type ChatMessage struct {
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// wireChatMessage distinguishes absent fields from zero values during decoding.
type wireChatMessage struct {
	Username  *string    `json:"username"`
	Content   *string    `json:"content"`
	Timestamp *time.Time `json:"timestamp"`
}

// DecodeChatMessage decodes an inbound text frame strictly: unknown fields,
// missing fields, malformed timestamps, and trailing data are all rejected.
func DecodeChatMessage(data []byte) (ChatMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var w wireChatMessage
	if err := dec.Decode(&w); err != nil {
		return ChatMessage{}, err
	}
	if dec.More() {
		return ChatMessage{}, errors.New("trailing data after chat message")
	}
	if w.Username == nil || w.Content == nil || w.Timestamp == nil {
		return ChatMessage{}, ErrMissingField
	}

	return ChatMessage{
		Username:  *w.Username,
		Content:   *w.Content,
		Timestamp: *w.Timestamp,
	}, nil
}

// Encode marshals the message for an outbound text frame.
func (m ChatMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}
