package gateway

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// TimestampLayout matches ISO-8601 with milliseconds in UTC, e.g. 2026-10-15T09:30:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var validate = validator.New()

// Frame is one websocket text message: an event name and its JSON payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChatPayload is the body of an inbound chat-message.
// An empty message is valid, a missing one is not.
type ChatPayload struct {
	Message *string `json:"message" validate:"required"`
}

// UserPresence is the payload of user-joined and user-left.
type UserPresence struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type ChatMessage struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	SocketID  string `json:"socketId"`
}

type TypingStatus struct {
	Username    string   `json:"username"`
	IsTyping    bool     `json:"isTyping"`
	TypingUsers []string `json:"typingUsers"`
}

type Handshake struct {
	SocketID string `json:"socketId"`
}

// DecodeInbound parses a client frame. Only join, chat-message and typing may come from clients.
func DecodeInbound(raw []byte) (event.Inbound, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	switch event.Kind(frame.Event) {
	case event.KindJoin:
		var name *string
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &name); err != nil {
				return nil, fmt.Errorf("%w: join expects a string: %v", errors.ErrInvalidPayload, err)
			}
		}
		return event.Join{Name: lo.FromPtr(name)}, nil

	case event.KindChatMessage:
		var payload ChatPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return nil, fmt.Errorf("%w: chat-message: %v", errors.ErrInvalidPayload, err)
		}
		if err := validate.Struct(payload); err != nil {
			return nil, fmt.Errorf("%w: chat-message: %v", errors.ErrInvalidPayload, err)
		}
		return event.PostMessage{Text: *payload.Message}, nil

	case event.KindTyping:
		var isTyping bool
		if err := json.Unmarshal(frame.Data, &isTyping); err != nil {
			return nil, fmt.Errorf("%w: typing expects a boolean: %v", errors.ErrInvalidPayload, err)
		}
		return event.Typing{IsTyping: isTyping}, nil

	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, frame.Event)
	}
}

// EncodeOutbound renders an outbound event as a frame.
func EncodeOutbound(e event.Outbound) ([]byte, error) {
	payload, err := toWire(e)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: e.Name(), Data: data})
}

func toWire(e event.Outbound) (any, error) {
	switch evt := e.(type) {
	case event.UserJoined:
		return UserPresence{Username: evt.Username, Message: evt.Message, Timestamp: FormatTimestamp(evt.At)}, nil
	case event.UserLeft:
		return UserPresence{Username: evt.Username, Message: evt.Message, Timestamp: FormatTimestamp(evt.At)}, nil
	case event.UsersCount:
		return evt.Count, nil
	case event.MessagePosted:
		return ChatMessage{
			Username:  evt.Username,
			Message:   evt.Message,
			Timestamp: FormatTimestamp(evt.At),
			SocketID:  string(evt.SenderID),
		}, nil
	case event.TypingStatus:
		return TypingStatus{
			Username:    evt.Username,
			IsTyping:    evt.IsTyping,
			TypingUsers: lo.Ternary(evt.TypingUsers == nil, []string{}, evt.TypingUsers),
		}, nil
	case event.Connected:
		return Handshake{SocketID: string(evt.ConnID)}, nil
	default:
		return nil, fmt.Errorf("%w: %T", errors.ErrUnknownEvent, e)
	}
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
